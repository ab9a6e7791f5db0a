package ca

import (
	"github.com/tjake/cert-bundle-maker/pkg/pki"
)

const (
	// File basenames inside the authority directory
	RootKeyFile  = "ca.key"
	RootCertFile = "ca.crt"

	// Alias the root certificate is imported under in every
	// truststore this tool writes
	TrustedRootAlias = "rootca"

	defaultDir       = "ca"
	defaultKeySize   = 2048
	defaultValidDays = 365
)

type Config struct {
	Dir       string      `yaml:"dir" json:"dir" mapstructure:"dir"`
	KeySize   int         `yaml:"key-size" json:"key_size" mapstructure:"key-size"`
	ValidDays int         `yaml:"valid-days" json:"valid_days" mapstructure:"valid-days"`
	Subject   pki.Subject `yaml:"subject" json:"subject" mapstructure:"subject"`
}

// Returns the documented fallback configuration. Deployments are
// expected to provide their own subject.
func DefaultConfig() *Config {
	return &Config{
		Dir:       defaultDir,
		KeySize:   defaultKeySize,
		ValidDays: defaultValidDays,
		Subject: pki.Subject{
			CommonName:         TrustedRootAlias,
			Organization:       "Example Company",
			OrganizationalUnit: "Cloud",
			Country:            "US",
		},
	}
}

// Fills zero values with the documented fallbacks
func (config *Config) defaults() {
	fallback := DefaultConfig()
	if config.Dir == "" {
		config.Dir = fallback.Dir
	}
	if config.KeySize == 0 {
		config.KeySize = fallback.KeySize
	}
	if config.ValidDays == 0 {
		config.ValidDays = fallback.ValidDays
	}
	if config.Subject.CommonName == "" {
		config.Subject = fallback.Subject
	}
}
