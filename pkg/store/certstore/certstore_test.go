package certstore

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/pki"
)

func testStore() (*FileStore, *pki.X509Provider) {
	logger := logging.DefaultLogger()
	provider := pki.NewProvider(&pki.Params{Logger: logger})
	return NewFileStore(logger, afero.NewMemMapFs()), provider
}

func TestCertificateRoundTrip(t *testing.T) {
	store, provider := testStore()

	key, err := provider.GenerateKeyPair(1024)
	require.Nil(t, err)
	cert, err := provider.CreateSelfSigned(
		pki.Subject{CommonName: "rootca"}, key, 365, pki.AuthorityProfile())
	require.Nil(t, err)

	path := "/bundles/ca/ca.crt"
	assert.False(t, store.Exists(path))
	assert.Nil(t, store.SaveCertificate(path, cert))
	assert.True(t, store.Exists(path))

	loaded, err := store.Certificate(path)
	assert.Nil(t, err)
	assert.Equal(t, cert.SerialNumber, loaded.SerialNumber)

	assert.ErrorIs(t,
		store.SaveCertificate(path, cert), ErrFileAlreadyExists)
}

func TestPrivKeyRoundTrip(t *testing.T) {
	store, provider := testStore()
	password := []byte("root-password")

	key, err := provider.GenerateKeyPair(1024)
	require.Nil(t, err)

	path := "/bundles/ca/ca.key"
	assert.Nil(t, store.SavePrivKey(path, key, password))

	loaded, err := store.PrivKey(path, password)
	assert.Nil(t, err)
	assert.Equal(t, key.N, loaded.N)

	_, err = store.PrivKey(path, []byte("wrong-password"))
	assert.NotNil(t, err)
}

func TestCSRRoundTrip(t *testing.T) {
	store, provider := testStore()

	key, err := provider.GenerateKeyPair(1024)
	require.Nil(t, err)
	csrPEM, err := provider.CreateCSR(
		pki.Subject{CommonName: "tenant1"}, key)
	require.Nil(t, err)

	path := "/bundles/tenant1/tenant1.csr"
	assert.Nil(t, store.SaveCSR(path, csrPEM))

	loaded, err := store.CSR(path)
	assert.Nil(t, err)
	assert.Equal(t, csrPEM, loaded)
}

func TestMissingFile(t *testing.T) {
	store, _ := testStore()

	_, err := store.Certificate("/bundles/ca/ca.crt")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = store.Blob("/bundles/tenant1/config.json")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
