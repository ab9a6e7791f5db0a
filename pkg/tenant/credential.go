package tenant

import (
	"crypto/x509"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tjake/cert-bundle-maker/pkg/ca"
	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/pki"
	"github.com/tjake/cert-bundle-maker/pkg/store/certstore"
	"github.com/tjake/cert-bundle-maker/pkg/store/keystore"
)

var (
	ErrNameRequired     = errors.New("credential-store: tenant name required")
	ErrPasswordRequired = errors.New("credential-store: tenant password required")
	ErrKeyGeneration    = errors.New("credential-store: key pair generation failed")
	ErrExport           = errors.New("credential-store: interchange export failed")
	ErrCSR              = errors.New("credential-store: signing request generation failed")
	ErrSign             = errors.New("credential-store: certificate signing failed")
	ErrVerify           = errors.New("credential-store: certificate verification failed")
	ErrTrustImport      = errors.New("credential-store: root trust import failed")
	ErrLeafImport       = errors.New("credential-store: leaf certificate import failed")
)

type Params struct {
	Logger    *logging.Logger
	Fs        afero.Fs
	BaseDir   string
	Name      string
	Password  []byte
	Subject   pki.Subject
	Config    *Config
	Provider  pki.Provider
	Backend   *keystore.FileBackend
	Authority *ca.Authority
}

// CredentialStore issues and persists the TLS credentials of a single
// tenant: keystore, interchange export, private key, signing request,
// signed certificate, connection config and truststore. Every step is
// presence gated so a rerun only performs the work that is missing.
type CredentialStore struct {
	logger    *logging.Logger
	certStore *certstore.FileStore
	backend   *keystore.FileBackend
	provider  pki.Provider
	authority *ca.Authority
	config    *Config
	name      string
	password  []byte
	subject   pki.Subject

	dir            string
	keystorePath   string
	exportPath     string
	keyPath        string
	csrPath        string
	certPath       string
	configPath     string
	trustStorePath string

	// interchange is always PKCS #12 regardless of the keystore format
	interchange keystore.Codec
}

func NewCredentialStore(params *Params) (*CredentialStore, error) {
	if params.Name == "" {
		return nil, ErrNameRequired
	}
	if len(params.Password) == 0 {
		return nil, ErrPasswordRequired
	}
	if params.Config == nil {
		params.Config = DefaultConfig()
	}
	params.Config.defaults()
	dir := filepath.Join(params.BaseDir, params.Name)
	extension := params.Backend.FileExtension()
	return &CredentialStore{
		logger:         params.Logger,
		certStore:      certstore.NewFileStore(params.Logger, params.Fs),
		backend:        params.Backend,
		provider:       params.Provider,
		authority:      params.Authority,
		config:         params.Config,
		name:           params.Name,
		password:       params.Password,
		subject:        params.Subject.WithCommonName(params.Name),
		dir:            dir,
		keystorePath:   filepath.Join(dir, "keystore."+extension),
		exportPath:     filepath.Join(dir, "keystore.p12"),
		keyPath:        filepath.Join(dir, params.Name+".key"),
		csrPath:        filepath.Join(dir, params.Name+".csr"),
		certPath:       filepath.Join(dir, params.Name+".crt"),
		configPath:     filepath.Join(dir, "config.json"),
		trustStorePath: filepath.Join(dir, "truststore."+extension),
		interchange:    keystore.NewPKCS12Codec(params.Name),
	}, nil
}

// Issue runs the issuance sequence to completion. The truststore is
// written last and gates the whole sequence: once it exists the tenant
// is considered fully provisioned and the run is a no-op. The signed
// certificate is verified against the authority on every incomplete
// run, even when signing itself was skipped, so credentials minted by
// a different root abort the run instead of shipping in a bundle.
func (c *CredentialStore) Issue() error {
	if c.backend.Exists(c.trustStorePath) {
		c.logger.Infof("credential-store: %s already provisioned, skipping", c.name)
		return nil
	}
	c.logger.Infof("credential-store: issuing %s credentials from state %s",
		c.name, c.State())
	if err := c.ensureKeystore(); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	if err := c.ensureExport(); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	if err := c.ensureSigningRequest(); err != nil {
		return fmt.Errorf("%w: %v", ErrCSR, err)
	}
	if err := c.ensureCertificate(); err != nil {
		return fmt.Errorf("%w: %v", ErrSign, err)
	}
	if err := c.verifyCertificate(); err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if err := c.ensureRootTrusted(); err != nil {
		return fmt.Errorf("%w: %v", ErrTrustImport, err)
	}
	if err := c.ensureLeafImported(); err != nil {
		return fmt.Errorf("%w: %v", ErrLeafImport, err)
	}
	if err := c.ensureConnectionConfig(); err != nil {
		return fmt.Errorf("credential-store: writing connection config: %w", err)
	}
	if err := c.ensureTrustStore(); err != nil {
		return fmt.Errorf("credential-store: materializing truststore: %w", err)
	}
	c.logger.Infof("credential-store: %s issuance complete", c.name)
	return nil
}

// Generates the tenant key pair inside a new keystore. The key entry
// carries a self signed placeholder until the signed leaf replaces it.
func (c *CredentialStore) ensureKeystore() error {
	if c.backend.Exists(c.keystorePath) {
		c.logger.Warnf("credential-store: %s exists, skipping key generation",
			c.keystorePath)
		return nil
	}
	key, err := c.provider.GenerateKeyPair(c.config.KeySize)
	if err != nil {
		return err
	}
	placeholder, err := c.provider.CreateSelfSigned(
		c.subject, key, c.config.ValidDays, pki.LeafProfile())
	if err != nil {
		return err
	}
	container := keystore.NewContainer()
	if err := container.SetKeyEntry(
		c.name, key, []*x509.Certificate{placeholder}); err != nil {

		return err
	}
	return c.backend.Save(c.keystorePath, container, c.password, false)
}

// Exports the keystore to the PKCS #12 interchange format and derives
// the unencrypted private key PEM from it.
func (c *CredentialStore) ensureExport() error {
	if c.certStore.Exists(c.exportPath) && c.certStore.Exists(c.keyPath) {
		c.logger.Warnf("credential-store: %s exists, skipping export",
			c.exportPath)
		return nil
	}
	container, err := c.backend.Load(c.keystorePath, c.password)
	if err != nil {
		return err
	}
	if !c.certStore.Exists(c.exportPath) {
		data, err := c.interchange.Marshal(container, c.password)
		if err != nil {
			return err
		}
		if err := c.certStore.SaveBlob(c.exportPath, data); err != nil {
			return err
		}
	}
	if !c.certStore.Exists(c.keyPath) {
		_, key, _, err := container.KeyEntry()
		if err != nil {
			return err
		}
		if err := c.certStore.SavePrivKey(c.keyPath, key, nil); err != nil {
			return err
		}
	}
	return nil
}

// Creates the certificate signing request from the exported key
func (c *CredentialStore) ensureSigningRequest() error {
	if c.certStore.Exists(c.csrPath) {
		c.logger.Warnf("credential-store: %s exists, skipping signing request",
			c.csrPath)
		return nil
	}
	key, err := c.certStore.PrivKey(c.keyPath, nil)
	if err != nil {
		return err
	}
	csrPEM, err := c.provider.CreateCSR(c.subject, key)
	if err != nil {
		return err
	}
	return c.certStore.SaveCSR(c.csrPath, csrPEM)
}

// Signs the request with the authority
func (c *CredentialStore) ensureCertificate() error {
	if c.certStore.Exists(c.certPath) {
		c.logger.Warnf("credential-store: %s exists, skipping signing",
			c.certPath)
		return nil
	}
	csrPEM, err := c.certStore.CSR(c.csrPath)
	if err != nil {
		return err
	}
	certificate, err := c.authority.SignCSR(csrPEM, c.config.ValidDays)
	if err != nil {
		return err
	}
	return c.certStore.SaveCertificate(c.certPath, certificate)
}

// Verifies the signed certificate chains to the authority root. Runs
// unconditionally so a certificate present on disk but minted by a
// different root fails the sequence.
func (c *CredentialStore) verifyCertificate() error {
	certificate, err := c.certStore.Certificate(c.certPath)
	if err != nil {
		return err
	}
	return c.authority.Verify(certificate)
}

// Imports the authority root as a trusted entry in the keystore
func (c *CredentialStore) ensureRootTrusted() error {
	root, err := c.authority.Certificate()
	if err != nil {
		return err
	}
	container, err := c.backend.Load(c.keystorePath, c.password)
	if err != nil {
		return err
	}
	if container.HasTrustedCert(root) {
		c.logger.Warnf("credential-store: %s root already trusted, skipping",
			c.name)
		return nil
	}
	if err := container.SetTrustedEntry(ca.TrustedRootAlias, root); err != nil {
		return err
	}
	return c.backend.Save(c.keystorePath, container, c.password, true)
}

// Replaces the placeholder chain on the key entry with the signed leaf
func (c *CredentialStore) ensureLeafImported() error {
	certificate, err := c.certStore.Certificate(c.certPath)
	if err != nil {
		return err
	}
	container, err := c.backend.Load(c.keystorePath, c.password)
	if err != nil {
		return err
	}
	alias, key, chain, err := container.KeyEntry()
	if err != nil {
		return err
	}
	if len(chain) > 0 && chain[0].SerialNumber.Cmp(certificate.SerialNumber) == 0 {
		c.logger.Warnf("credential-store: %s leaf already imported, skipping",
			c.name)
		return nil
	}
	if err := container.SetKeyEntry(
		alias, key, []*x509.Certificate{certificate}); err != nil {

		return err
	}
	return c.backend.Save(c.keystorePath, container, c.password, true)
}

// Renders the client connection configuration document
func (c *CredentialStore) ensureConnectionConfig() error {
	if c.certStore.Exists(c.configPath) {
		c.logger.Warnf("credential-store: %s exists, skipping connection config",
			c.configPath)
		return nil
	}
	document, err := RenderConnectionDocument(
		c.config.Connection,
		filepath.Base(c.keystorePath),
		filepath.Base(c.trustStorePath),
		c.password)
	if err != nil {
		return err
	}
	return c.certStore.SaveBlob(c.configPath, document)
}

// Copies the completed keystore to the truststore path. This is the
// terminal artifact of the sequence.
func (c *CredentialStore) ensureTrustStore() error {
	return c.backend.Copy(c.keystorePath, c.trustStorePath)
}

func (c *CredentialStore) Name() string {
	return c.name
}

func (c *CredentialStore) Dir() string {
	return c.dir
}

func (c *CredentialStore) KeystorePath() string {
	return c.keystorePath
}

func (c *CredentialStore) ExportPath() string {
	return c.exportPath
}

func (c *CredentialStore) KeyPath() string {
	return c.keyPath
}

func (c *CredentialStore) CSRPath() string {
	return c.csrPath
}

func (c *CredentialStore) CertPath() string {
	return c.certPath
}

func (c *CredentialStore) ConfigPath() string {
	return c.configPath
}

func (c *CredentialStore) TrustStorePath() string {
	return c.trustStorePath
}
