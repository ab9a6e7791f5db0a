package pki

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
)

var (
	ErrInvalidEncodingPEM = errors.New("pki: invalid PEM encoding")
	ErrInvalidPassword    = errors.New("pki: invalid private key password")
	ErrInvalidPublicKey   = errors.New("pki: invalid public key")
)

// ExtensionProfile selects the x509 extensions stamped into a
// certificate at creation time.
type ExtensionProfile struct {
	KeyUsage    x509.KeyUsage
	ExtKeyUsage []x509.ExtKeyUsage
	IsCA        bool
}

// Returns the extension profile for a self-signed root authority
// certificate. The certificate is marked for both TLS server and
// client authentication in addition to certificate signing, so the
// root can anchor mutually authenticated connections.
func AuthorityProfile() ExtensionProfile {
	return ExtensionProfile{
		KeyUsage: x509.KeyUsageKeyEncipherment |
			x509.KeyUsageDigitalSignature |
			x509.KeyUsageCertSign |
			x509.KeyUsageCRLSign,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageClientAuth,
			x509.ExtKeyUsageServerAuth,
		},
		IsCA: true,
	}
}

// Returns the extension profile for tenant leaf certificates and the
// self-signed placeholder written into a fresh keystore.
func LeafProfile() ExtensionProfile {
	return ExtensionProfile{
		KeyUsage: x509.KeyUsageKeyEncipherment |
			x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageClientAuth,
			x509.ExtKeyUsageServerAuth,
		},
		IsCA: false,
	}
}

// Provider performs the primitive cryptographic operations behind
// certificate issuance. The authority and tenant workflows never
// reach for a cryptographic library directly, they describe what
// they need and the provider produces it.
type Provider interface {

	// Generates a new RSA key pair of the requested size
	GenerateKeyPair(bits int) (*rsa.PrivateKey, error)

	// Creates a self-signed certificate for the subject using the
	// provided extension profile
	CreateSelfSigned(
		subject Subject,
		key *rsa.PrivateKey,
		validDays int,
		profile ExtensionProfile) (*x509.Certificate, error)

	// Creates a PEM encoded PKCS #10 certificate signing request
	CreateCSR(subject Subject, key *rsa.PrivateKey) ([]byte, error)

	// Signs a PEM encoded certificate signing request with the
	// issuer key and certificate, producing a leaf certificate
	// valid for the requested number of days
	SignCSR(
		csrPEM []byte,
		caCert *x509.Certificate,
		caKey *rsa.PrivateKey,
		validDays int) (*x509.Certificate, error)

	// Verifies the certificate chains to the provided root
	Verify(certificate, root *x509.Certificate) error
}
