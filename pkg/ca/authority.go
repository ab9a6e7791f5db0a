package ca

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/pki"
	"github.com/tjake/cert-bundle-maker/pkg/store/certstore"
	"github.com/tjake/cert-bundle-maker/pkg/store/keystore"
)

var (
	ErrPasswordRequired = errors.New("certificate-authority: private key password required")
	ErrKeyGeneration    = errors.New("certificate-authority: root key generation failed")
	ErrCertGeneration   = errors.New("certificate-authority: root certificate generation failed")
	ErrTrustStoreImport = errors.New("certificate-authority: root truststore import failed")
	ErrNotInitialized   = errors.New("certificate-authority: root certificate or key not materialized")
)

// Params bundle the collaborators required to construct an
// Authority.
type Params struct {
	Logger   *logging.Logger
	Fs       afero.Fs
	BaseDir  string
	Config   *Config
	Password []byte
	Provider pki.Provider
	Backend  *keystore.FileBackend
}

// Authority owns the root key pair, the self-signed root certificate
// and the root truststore under <base>/<dir>. All three artifacts
// are idempotent by presence: whatever already exists on disk is
// reused, never regenerated.
type Authority struct {
	logger    *logging.Logger
	provider  pki.Provider
	certStore *certstore.FileStore
	backend   *keystore.FileBackend
	config    *Config
	password  []byte

	dir            string
	keyPath        string
	certPath       string
	trustStorePath string

	certificate *x509.Certificate
}

func NewAuthority(params *Params) (*Authority, error) {
	if len(params.Password) == 0 {
		return nil, ErrPasswordRequired
	}

	config := params.Config
	if config == nil {
		config = DefaultConfig()
	}
	config.defaults()

	dir := filepath.Join(params.BaseDir, config.Dir)
	trustStoreFile := fmt.Sprintf(
		"truststore.%s", params.Backend.FileExtension())

	return &Authority{
		logger:         params.Logger,
		provider:       params.Provider,
		certStore:      certstore.NewFileStore(params.Logger, params.Fs),
		backend:        params.Backend,
		config:         config,
		password:       params.Password,
		dir:            dir,
		keyPath:        filepath.Join(dir, RootKeyFile),
		certPath:       filepath.Join(dir, RootCertFile),
		trustStorePath: filepath.Join(dir, trustStoreFile),
	}, nil
}

// Ensure materializes the root authority: private key, self-signed
// certificate and truststore. A no-op when the certificate and
// truststore both exist. Failures name the stage that failed and
// abort the run, partial state is reported and completed rather
// than repaired.
func (a *Authority) Ensure() error {

	certExists := a.certStore.Exists(a.certPath)
	trustExists := a.backend.Exists(a.trustStorePath)

	if certExists && trustExists {
		a.logger.Infof(
			"certificate-authority: %s already materialized, skipping",
			a.dir)
		return nil
	}
	if certExists != trustExists {
		a.logger.Warnf(
			"certificate-authority: partial state in %s, completing missing artifacts",
			a.dir)
	}

	if err := a.ensureKey(); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	if err := a.ensureCertificate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCertGeneration, err)
	}
	if err := a.ensureTrustStore(); err != nil {
		return fmt.Errorf("%w: %v", ErrTrustStoreImport, err)
	}
	return nil
}

func (a *Authority) ensureKey() error {
	if a.certStore.Exists(a.keyPath) {
		a.logger.Warnf(
			"certificate-authority: %s exists, skipping key generation",
			a.keyPath)
		return nil
	}
	key, err := a.provider.GenerateKeyPair(a.config.KeySize)
	if err != nil {
		return err
	}
	return a.certStore.SavePrivKey(a.keyPath, key, a.password)
}

func (a *Authority) ensureCertificate() error {
	if a.certStore.Exists(a.certPath) {
		a.logger.Warnf(
			"certificate-authority: %s exists, skipping certificate generation",
			a.certPath)
		return nil
	}
	key, err := a.privateKey()
	if err != nil {
		return err
	}
	certificate, err := a.provider.CreateSelfSigned(
		a.config.Subject, key, a.config.ValidDays, pki.AuthorityProfile())
	if err != nil {
		return err
	}
	if err := a.certStore.SaveCertificate(a.certPath, certificate); err != nil {
		return err
	}
	a.certificate = certificate
	return nil
}

func (a *Authority) ensureTrustStore() error {
	if a.backend.Exists(a.trustStorePath) {
		a.logger.Warnf(
			"certificate-authority: %s exists, skipping truststore import",
			a.trustStorePath)
		return nil
	}
	certificate, err := a.Certificate()
	if err != nil {
		return err
	}
	container := keystore.NewContainer()
	if err := container.SetTrustedEntry(
		TrustedRootAlias, certificate); err != nil {

		return err
	}
	return a.backend.Save(
		a.trustStorePath, container, a.password, false)
}

// Returns the root certificate, loading it from the certificate
// store on first use
func (a *Authority) Certificate() (*x509.Certificate, error) {
	if a.certificate != nil {
		return a.certificate, nil
	}
	if !a.certStore.Exists(a.certPath) {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, a.certPath)
	}
	certificate, err := a.certStore.Certificate(a.certPath)
	if err != nil {
		return nil, err
	}
	a.certificate = certificate
	return certificate, nil
}

func (a *Authority) privateKey() (*rsa.PrivateKey, error) {
	if !a.certStore.Exists(a.keyPath) {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, a.keyPath)
	}
	return a.certStore.PrivKey(a.keyPath, a.password)
}

// Signs a PEM encoded certificate signing request with the root key,
// producing a leaf certificate valid for the requested number of days
func (a *Authority) SignCSR(
	csrPEM []byte, validDays int) (*x509.Certificate, error) {

	certificate, err := a.Certificate()
	if err != nil {
		return nil, err
	}
	key, err := a.privateKey()
	if err != nil {
		return nil, err
	}
	return a.provider.SignCSR(csrPEM, certificate, key, validDays)
}

// Verifies the certificate chains to this authority's root
func (a *Authority) Verify(certificate *x509.Certificate) error {
	root, err := a.Certificate()
	if err != nil {
		return err
	}
	return a.provider.Verify(certificate, root)
}

func (a *Authority) Dir() string {
	return a.dir
}

func (a *Authority) KeyPath() string {
	return a.keyPath
}

func (a *Authority) CertPath() string {
	return a.certPath
}

func (a *Authority) TrustStorePath() string {
	return a.trustStorePath
}
