package keystore

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJKSKeyEntryRoundTrip(t *testing.T) {
	key, cert := testKeyAndCert(t, "tenant1")

	container := NewContainer()
	err := container.SetKeyEntry("tenant1", key, []*x509.Certificate{cert})
	assert.Nil(t, err)

	codec := NewJKSCodec()
	data, err := codec.Marshal(container, testPassword)
	assert.Nil(t, err)
	assert.NotEmpty(t, data)

	decoded, err := codec.Unmarshal(data, testPassword)
	assert.Nil(t, err)

	alias, decodedKey, chain, err := decoded.KeyEntry()
	assert.Nil(t, err)
	assert.Equal(t, "tenant1", alias)
	assert.Equal(t, key.N, decodedKey.N)
	assert.Len(t, chain, 1)
	assert.Equal(t, cert.SerialNumber, chain[0].SerialNumber)
}

func TestJKSTrustedEntryRoundTrip(t *testing.T) {
	_, rootCert := testKeyAndCert(t, "rootca")

	container := NewContainer()
	assert.Nil(t, container.SetTrustedEntry("rootca", rootCert))

	codec := NewJKSCodec()
	data, err := codec.Marshal(container, testPassword)
	assert.Nil(t, err)

	decoded, err := codec.Unmarshal(data, testPassword)
	assert.Nil(t, err)
	assert.True(t, decoded.HasTrustedEntry("rootca"))
	assert.True(t, decoded.HasTrustedCert(rootCert))

	_, _, _, err = decoded.KeyEntry()
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestJKSKeyAndTrustedEntries(t *testing.T) {
	key, cert := testKeyAndCert(t, "tenant1")
	_, rootCert := testKeyAndCert(t, "rootca")

	container := NewContainer()
	assert.Nil(t, container.SetKeyEntry(
		"tenant1", key, []*x509.Certificate{cert}))
	assert.Nil(t, container.SetTrustedEntry("rootca", rootCert))

	codec := NewJKSCodec()
	data, err := codec.Marshal(container, testPassword)
	assert.Nil(t, err)

	decoded, err := codec.Unmarshal(data, testPassword)
	assert.Nil(t, err)

	alias, _, _, err := decoded.KeyEntry()
	assert.Nil(t, err)
	assert.Equal(t, "tenant1", alias)
	assert.True(t, decoded.HasTrustedEntry("rootca"))
}

func TestJKSWrongPassword(t *testing.T) {
	key, cert := testKeyAndCert(t, "tenant1")

	container := NewContainer()
	assert.Nil(t, container.SetKeyEntry(
		"tenant1", key, []*x509.Certificate{cert}))

	codec := NewJKSCodec()
	data, err := codec.Marshal(container, testPassword)
	assert.Nil(t, err)

	_, err = codec.Unmarshal(data, []byte("wrong-password"))
	assert.ErrorIs(t, err, ErrInvalidPassword)
}
