package tenant

const (
	defaultKeySize   = 2048
	defaultValidDays = 365
)

type Config struct {
	KeySize    int              `yaml:"key-size" json:"key_size" mapstructure:"key-size"`
	ValidDays  int              `yaml:"valid-days" json:"valid_days" mapstructure:"valid-days"`
	Connection ConnectionConfig `yaml:"connection" json:"connection" mapstructure:"connection"`
}

// Returns the documented fallback configuration applied to tenants
// that have no explicit settings.
func DefaultConfig() *Config {
	return &Config{
		KeySize:   defaultKeySize,
		ValidDays: defaultValidDays,
		Connection: ConnectionConfig{
			Host:    "localhost",
			Port:    9080,
			CQLPort: 9042,
			LocalDC: "dc1",
		},
	}
}

// Fills zero values with the documented fallbacks
func (config *Config) defaults() {
	fallback := DefaultConfig()
	if config.KeySize == 0 {
		config.KeySize = fallback.KeySize
	}
	if config.ValidDays == 0 {
		config.ValidDays = fallback.ValidDays
	}
	if config.Connection.Host == "" {
		config.Connection.Host = fallback.Connection.Host
	}
	if config.Connection.Port == 0 {
		config.Connection.Port = fallback.Connection.Port
	}
	if config.Connection.CQLPort == 0 {
		config.Connection.CQLPort = fallback.Connection.CQLPort
	}
	if config.Connection.LocalDC == "" {
		config.Connection.LocalDC = fallback.Connection.LocalDC
	}
}
