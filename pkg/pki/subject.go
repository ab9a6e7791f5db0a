package pki

import (
	"crypto/x509/pkix"
	"fmt"
)

// Subject holds the PKIX identity fields stamped into every
// certificate and signing request issued by this tool.
type Subject struct {
	CommonName         string `yaml:"cn" json:"cn" mapstructure:"cn"`
	Organization       string `yaml:"organization" json:"organization" mapstructure:"organization"`
	OrganizationalUnit string `yaml:"organizational-unit" json:"organizational_unit" mapstructure:"organizational-unit"`
	Country            string `yaml:"country" json:"country" mapstructure:"country"`
}

// Returns the subject as a comma separated attribute list, the
// distinguished name form consumed by Java keytool.
func (s Subject) AttributeForm() string {
	return fmt.Sprintf("CN=%s, OU=%s, O=%s, C=%s",
		s.CommonName,
		s.OrganizationalUnit,
		s.Organization,
		s.Country)
}

// Returns the subject as a slash separated path, the form consumed
// by the openssl req -subj option.
func (s Subject) PathForm() string {
	return fmt.Sprintf("/C=%s/O=%s/OU=%s/CN=%s",
		s.Country,
		s.Organization,
		s.OrganizationalUnit,
		s.CommonName)
}

// Returns the subject as a pkix.Name for x509 templates
func (s Subject) PKIXName() pkix.Name {
	return pkix.Name{
		CommonName:         s.CommonName,
		Organization:       []string{s.Organization},
		OrganizationalUnit: []string{s.OrganizationalUnit},
		Country:            []string{s.Country},
	}
}

// Returns a copy of the subject with the common name replaced. Used
// to derive per-tenant subjects from the authority subject.
func (s Subject) WithCommonName(cn string) Subject {
	s.CommonName = cn
	return s
}
