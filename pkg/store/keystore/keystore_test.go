package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/pki"
)

var testPassword = []byte("tenant1-secret")

func testKeyAndCert(t *testing.T, cn string) (*rsa.PrivateKey, *x509.Certificate) {
	provider := pki.NewProvider(&pki.Params{
		Logger: logging.DefaultLogger(),
	})
	key, err := provider.GenerateKeyPair(1024)
	require.Nil(t, err)

	subject := pki.Subject{
		CommonName:         cn,
		Organization:       "Example Company",
		OrganizationalUnit: "Cloud",
		Country:            "US",
	}
	cert, err := provider.CreateSelfSigned(
		subject, key, 365, pki.LeafProfile())
	require.Nil(t, err)

	return key, cert
}

func TestParseStoreType(t *testing.T) {
	storeType, err := ParseStoreType("jks")
	require.Nil(t, err)
	require.Equal(t, STORE_JKS, storeType)

	storeType, err = ParseStoreType("PKCS12")
	require.Nil(t, err)
	require.Equal(t, STORE_PKCS12, storeType)

	_, err = ParseStoreType("pkcs11")
	require.ErrorIs(t, err, ErrInvalidStoreType)
}

func TestContainerKeyEntry(t *testing.T) {
	key, cert := testKeyAndCert(t, "tenant1")

	container := NewContainer()

	_, _, _, err := container.KeyEntry()
	require.ErrorIs(t, err, ErrEntryNotFound)

	err = container.SetKeyEntry("", key, []*x509.Certificate{cert})
	require.ErrorIs(t, err, ErrInvalidAlias)

	err = container.SetKeyEntry("tenant1", nil, []*x509.Certificate{cert})
	require.ErrorIs(t, err, ErrInvalidKeyEntry)

	err = container.SetKeyEntry("tenant1", key, []*x509.Certificate{cert})
	require.Nil(t, err)

	alias, entryKey, chain, err := container.KeyEntry()
	require.Nil(t, err)
	require.Equal(t, "tenant1", alias)
	require.Equal(t, key.N, entryKey.N)
	require.Len(t, chain, 1)

	leaf, err := container.Leaf()
	require.Nil(t, err)
	require.Equal(t, cert.SerialNumber, leaf.SerialNumber)
}

func TestContainerTrustedEntries(t *testing.T) {
	_, rootCert := testKeyAndCert(t, "rootca")
	_, otherCert := testKeyAndCert(t, "other")

	container := NewContainer()
	require.Nil(t, container.SetTrustedEntry("rootca", rootCert))

	require.True(t, container.HasTrustedEntry("rootca"))
	require.False(t, container.HasTrustedEntry("missing"))
	require.True(t, container.HasTrustedCert(rootCert))
	require.False(t, container.HasTrustedCert(otherCert))

	cert, err := container.TrustedEntry("rootca")
	require.Nil(t, err)
	require.Equal(t, rootCert.SerialNumber, cert.SerialNumber)

	_, err = container.TrustedEntry("missing")
	require.ErrorIs(t, err, ErrEntryNotFound)

	require.Nil(t, container.SetTrustedEntry("alpha", otherCert))
	require.Equal(t, []string{"alpha", "rootca"}, container.TrustedAliases())
}
