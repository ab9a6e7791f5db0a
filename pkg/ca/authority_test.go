package ca

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/pki"
	"github.com/tjake/cert-bundle-maker/pkg/store/keystore"
)

const testBaseDir = "/bundles"

var testPassword = []byte("root-password")

func testConfig() *Config {
	return &Config{
		KeySize:   1024,
		ValidDays: 365,
		Subject: pki.Subject{
			CommonName:         "rootca",
			Organization:       "Example Company",
			OrganizationalUnit: "Cloud",
			Country:            "US",
		},
	}
}

func testAuthority(t *testing.T, fs afero.Fs, password []byte) *Authority {
	logger := logging.DefaultLogger()
	provider := pki.NewProvider(&pki.Params{Logger: logger})
	backend := keystore.NewFileBackend(logger, fs, keystore.NewJKSCodec())

	authority, err := NewAuthority(&Params{
		Logger:   logger,
		Fs:       fs,
		BaseDir:  testBaseDir,
		Config:   testConfig(),
		Password: password,
		Provider: provider,
		Backend:  backend,
	})
	require.Nil(t, err)
	return authority
}

func TestNewAuthorityRequiresPassword(t *testing.T) {
	logger := logging.DefaultLogger()
	fs := afero.NewMemMapFs()
	backend := keystore.NewFileBackend(logger, fs, keystore.NewJKSCodec())

	_, err := NewAuthority(&Params{
		Logger:   logger,
		Fs:       fs,
		BaseDir:  testBaseDir,
		Config:   testConfig(),
		Provider: pki.NewProvider(&pki.Params{Logger: logger}),
		Backend:  backend,
	})
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestEnsureMaterializesAuthority(t *testing.T) {
	fs := afero.NewMemMapFs()
	authority := testAuthority(t, fs, testPassword)

	assert.Nil(t, authority.Ensure())

	keyPEM, err := afero.ReadFile(fs, authority.KeyPath())
	assert.Nil(t, err)
	assert.Contains(t, string(keyPEM), "BEGIN ENCRYPTED PRIVATE KEY")

	certificate, err := authority.Certificate()
	assert.Nil(t, err)
	assert.True(t, certificate.IsCA)
	assert.Equal(t, "rootca", certificate.Subject.CommonName)

	logger := logging.DefaultLogger()
	backend := keystore.NewFileBackend(logger, fs, keystore.NewJKSCodec())
	container, err := backend.Load(authority.TrustStorePath(), testPassword)
	assert.Nil(t, err)

	trusted, err := container.TrustedEntry(TrustedRootAlias)
	assert.Nil(t, err)
	assert.Equal(t, certificate.SerialNumber, trusted.SerialNumber)
}

func TestEnsureIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	authority := testAuthority(t, fs, testPassword)
	assert.Nil(t, authority.Ensure())

	paths := []string{
		authority.KeyPath(),
		authority.CertPath(),
		authority.TrustStorePath(),
	}
	before := make(map[string][]byte, len(paths))
	for _, path := range paths {
		data, err := afero.ReadFile(fs, path)
		require.Nil(t, err)
		before[path] = data
	}

	// A fresh instance over the same file system derives all state
	// from artifact presence
	rerun := testAuthority(t, fs, testPassword)
	assert.Nil(t, rerun.Ensure())

	for _, path := range paths {
		data, err := afero.ReadFile(fs, path)
		require.Nil(t, err)
		assert.Equal(t, before[path], data, path)
	}
}

func TestEnsureCompletesPartialState(t *testing.T) {
	fs := afero.NewMemMapFs()
	authority := testAuthority(t, fs, testPassword)
	assert.Nil(t, authority.Ensure())

	keyBefore, err := afero.ReadFile(fs, authority.KeyPath())
	require.Nil(t, err)

	require.Nil(t, fs.Remove(authority.TrustStorePath()))

	rerun := testAuthority(t, fs, testPassword)
	assert.Nil(t, rerun.Ensure())

	keyAfter, err := afero.ReadFile(fs, authority.KeyPath())
	require.Nil(t, err)
	assert.Equal(t, keyBefore, keyAfter)

	logger := logging.DefaultLogger()
	backend := keystore.NewFileBackend(logger, fs, keystore.NewJKSCodec())
	container, err := backend.Load(authority.TrustStorePath(), testPassword)
	assert.Nil(t, err)
	assert.True(t, container.HasTrustedEntry(TrustedRootAlias))
}

func TestSignCSRAndVerify(t *testing.T) {
	fs := afero.NewMemMapFs()
	authority := testAuthority(t, fs, testPassword)
	assert.Nil(t, authority.Ensure())

	logger := logging.DefaultLogger()
	provider := pki.NewProvider(&pki.Params{Logger: logger})

	tenantKey, err := provider.GenerateKeyPair(1024)
	require.Nil(t, err)
	csrPEM, err := provider.CreateCSR(
		pki.Subject{CommonName: "tenant1"}, tenantKey)
	require.Nil(t, err)

	certificate, err := authority.SignCSR(csrPEM, 365)
	assert.Nil(t, err)
	assert.Equal(t, "tenant1", certificate.Subject.CommonName)
	assert.Equal(t, "rootca", certificate.Issuer.CommonName)

	assert.Nil(t, authority.Verify(certificate))
}

func TestCertificateNotInitialized(t *testing.T) {
	fs := afero.NewMemMapFs()
	authority := testAuthority(t, fs, testPassword)

	_, err := authority.Certificate()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestWrongAuthorityPassword(t *testing.T) {
	fs := afero.NewMemMapFs()
	authority := testAuthority(t, fs, testPassword)
	assert.Nil(t, authority.Ensure())

	imposter := testAuthority(t, fs, []byte("wrong-password"))
	_, err := imposter.SignCSR([]byte("irrelevant"), 365)
	assert.NotNil(t, err)
}
