package provision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tjake/cert-bundle-maker/pkg/bundle"
	"github.com/tjake/cert-bundle-maker/pkg/ca"
	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/pki"
	"github.com/tjake/cert-bundle-maker/pkg/store/keystore"
	"github.com/tjake/cert-bundle-maker/pkg/tenant"
	"github.com/tjake/cert-bundle-maker/pkg/util"
)

var (
	ErrNoTenants     = errors.New("provision: no tenants configured")
	ErrTenantConfig  = errors.New("provision: tenant name and password required")
	ErrUnknownTenant = errors.New("provision: unknown tenant")
)

// TenantSpec names a tenant to provision and the password protecting
// its key material.
type TenantSpec struct {
	Name     string `yaml:"name" json:"name" mapstructure:"name"`
	Password string `yaml:"password" json:"password" mapstructure:"password"`
}

type Config struct {
	BaseDir      string         `yaml:"base-dir" json:"base_dir" mapstructure:"base-dir"`
	SeedDir      string         `yaml:"seed-dir" json:"seed_dir" mapstructure:"seed-dir"`
	StoreType    string         `yaml:"store-type" json:"store_type" mapstructure:"store-type"`
	RootPassword string         `yaml:"root-password" json:"root_password" mapstructure:"root-password"`
	CA           *ca.Config     `yaml:"certificate-authority" json:"certificate_authority" mapstructure:"certificate-authority"`
	Tenant       *tenant.Config `yaml:"tenant" json:"tenant" mapstructure:"tenant"`
	Tenants      []TenantSpec   `yaml:"tenants" json:"tenants" mapstructure:"tenants"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseDir:   "bundles",
		StoreType: string(keystore.STORE_JKS),
		CA:        ca.DefaultConfig(),
		Tenant:    tenant.DefaultConfig(),
	}
}

func (config *Config) defaults() {
	fallback := DefaultConfig()
	if config.BaseDir == "" {
		config.BaseDir = fallback.BaseDir
	}
	if config.StoreType == "" {
		config.StoreType = fallback.StoreType
	}
	if config.CA == nil {
		config.CA = fallback.CA
	}
	if config.Tenant == nil {
		config.Tenant = fallback.Tenant
	}
}

type Params struct {
	Logger *logging.Logger
	Fs     afero.Fs
	Config *Config
}

// Driver runs the provisioning workflow: ensure the root authority,
// issue each tenant's credentials and assemble their bundles. Every
// stage skips work whose artifacts already exist, so the driver is
// safe to rerun after a failure or to pick up newly added tenants.
type Driver struct {
	logger    *logging.Logger
	fs        afero.Fs
	config    *Config
	provider  pki.Provider
	backend   *keystore.FileBackend
	authority *ca.Authority
	assembler *bundle.Assembler
}

func NewDriver(params *Params) (*Driver, error) {
	config := params.Config
	if config == nil {
		config = DefaultConfig()
	}
	config.defaults()
	storeType, err := keystore.ParseStoreType(config.StoreType)
	if err != nil {
		return nil, err
	}
	codec, err := keystore.NewCodec(storeType, "")
	if err != nil {
		return nil, err
	}
	backend := keystore.NewFileBackend(params.Logger, params.Fs, codec)
	provider := pki.NewProvider(&pki.Params{Logger: params.Logger})
	authority, err := ca.NewAuthority(&ca.Params{
		Logger:   params.Logger,
		Fs:       params.Fs,
		BaseDir:  config.BaseDir,
		Config:   config.CA,
		Password: []byte(config.RootPassword),
		Provider: provider,
		Backend:  backend,
	})
	if err != nil {
		return nil, err
	}
	return &Driver{
		logger:    params.Logger,
		fs:        params.Fs,
		config:    config,
		provider:  provider,
		backend:   backend,
		authority: authority,
		assembler: bundle.NewAssembler(&bundle.Params{
			Logger: params.Logger,
			Fs:     params.Fs,
		}),
	}, nil
}

func (d *Driver) Authority() *ca.Authority {
	return d.authority
}

func (d *Driver) Config() *Config {
	return d.config
}

// Run provisions the named tenants, or every configured tenant when
// names is empty. Tenants are processed in order and the first
// failure aborts the run, leaving completed bundles behind and
// nothing partial for the tenant that failed.
func (d *Driver) Run(names []string) error {
	specs, err := d.selectTenants(names)
	if err != nil {
		return err
	}
	if err := d.SeedAuthority(); err != nil {
		return err
	}
	if err := d.authority.Ensure(); err != nil {
		return err
	}
	for _, spec := range specs {
		if err := d.provision(spec); err != nil {
			d.logger.Errorf("provision: %s: %s", spec.Name, err)
			return err
		}
	}
	return nil
}

// SeedAuthority copies externally supplied authority material into
// the authority directory before it is ensured. Files already present
// win over the seed so reruns never clobber a live authority.
func (d *Driver) SeedAuthority() error {
	if d.config.SeedDir == "" {
		return nil
	}
	entries, err := afero.ReadDir(d.fs, d.config.SeedDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		dst := filepath.Join(d.authority.Dir(), entry.Name())
		if util.FileExists(d.fs, dst) {
			d.logger.Warnf("provision: %s exists, skipping seed", dst)
			continue
		}
		data, err := afero.ReadFile(d.fs,
			filepath.Join(d.config.SeedDir, entry.Name()))
		if err != nil {
			return err
		}
		if err := d.fs.MkdirAll(d.authority.Dir(), os.ModePerm); err != nil {
			return err
		}
		if err := afero.WriteFile(d.fs, dst, data, 0644); err != nil {
			return err
		}
		d.logger.Infof("provision: seeded %s", dst)
	}
	return nil
}

func (d *Driver) provision(spec TenantSpec) error {
	credential, err := d.credentialStore(spec)
	if err != nil {
		return err
	}
	if err := credential.Issue(); err != nil {
		return err
	}
	return d.assembler.Assemble(
		bundle.ArchivePath(d.config.BaseDir, credential.Name()),
		bundle.Manifest(d.authority, credential))
}

func (d *Driver) credentialStore(spec TenantSpec) (*tenant.CredentialStore, error) {
	if spec.Name == "" || spec.Password == "" {
		return nil, fmt.Errorf("%w: %q", ErrTenantConfig, spec.Name)
	}
	// each store gets its own config copy, defaults never leak back
	config := *d.config.Tenant
	return tenant.NewCredentialStore(&tenant.Params{
		Logger:    d.logger,
		Fs:        d.fs,
		BaseDir:   d.config.BaseDir,
		Name:      spec.Name,
		Password:  []byte(spec.Password),
		Subject:   d.config.CA.Subject,
		Config:    &config,
		Provider:  d.provider,
		Backend:   d.backend,
		Authority: d.authority,
	})
}

func (d *Driver) selectTenants(names []string) ([]TenantSpec, error) {
	if len(d.config.Tenants) == 0 {
		return nil, ErrNoTenants
	}
	if len(names) == 0 {
		return d.config.Tenants, nil
	}
	index := make(map[string]TenantSpec, len(d.config.Tenants))
	for _, spec := range d.config.Tenants {
		index[spec.Name] = spec
	}
	specs := make([]TenantSpec, 0, len(names))
	for _, name := range names {
		spec, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
