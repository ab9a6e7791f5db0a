package tenant

import "encoding/json"

// ConnectionConfig describes the database endpoint written into the
// tenant's client configuration document.
type ConnectionConfig struct {
	Host     string `yaml:"host" json:"host" mapstructure:"host"`
	Port     int    `yaml:"port" json:"port" mapstructure:"port"`
	CQLPort  int    `yaml:"cql-port" json:"cql_port" mapstructure:"cql-port"`
	Keyspace string `yaml:"keyspace" json:"keyspace" mapstructure:"keyspace"`
	LocalDC  string `yaml:"localdc" json:"localdc" mapstructure:"localdc"`
}

// connectionDocument fixes the key names and key order of the rendered
// client configuration document. Credential locations are relative to
// the extracted bundle directory.
type connectionDocument struct {
	Host               string `json:"host"`
	Port               int    `json:"port"`
	CQLPort            int    `json:"cql_port"`
	Keyspace           string `json:"keyspace"`
	LocalDC            string `json:"localdc"`
	CACertLocation     string `json:"caCertLocation"`
	KeyLocation        string `json:"keyLocation"`
	CertLocation       string `json:"certLocation"`
	KeyStoreLocation   string `json:"keyStoreLocation"`
	KeyStorePassword   string `json:"keyStorePassword"`
	TrustStoreLocation string `json:"trustStoreLocation"`
	TrustStorePassword string `json:"trustStorePassword"`
}

// RenderConnectionDocument produces the config.json payload for a
// tenant bundle. The keystore and truststore passwords are both the
// tenant password, the truststore being a copy of the keystore.
func RenderConnectionDocument(
	connection ConnectionConfig,
	keystoreFile, truststoreFile string,
	password []byte) ([]byte, error) {

	document := connectionDocument{
		Host:               connection.Host,
		Port:               connection.Port,
		CQLPort:            connection.CQLPort,
		Keyspace:           connection.Keyspace,
		LocalDC:            connection.LocalDC,
		CACertLocation:     "./ca.crt",
		KeyLocation:        "./key",
		CertLocation:       "./cert",
		KeyStoreLocation:   "./" + keystoreFile,
		KeyStorePassword:   string(password),
		TrustStoreLocation: "./" + truststoreFile,
		TrustStorePassword: string(password),
	}
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
