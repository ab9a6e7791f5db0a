package pki

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
)

var testSubject = Subject{
	CommonName:         "rootca",
	Organization:       "Example Company",
	OrganizationalUnit: "Cloud",
	Country:            "US",
}

func newTestProvider() *X509Provider {
	return NewProvider(&Params{
		Logger: logging.DefaultLogger(),
	})
}

func TestGenerateKeyPair(t *testing.T) {
	provider := newTestProvider()

	key, err := provider.GenerateKeyPair(2048)
	assert.Nil(t, err)
	assert.NotNil(t, key)
	assert.Equal(t, 2048, key.N.BitLen())
}

func TestCreateSelfSignedAuthority(t *testing.T) {
	provider := newTestProvider()

	key, err := provider.GenerateKeyPair(1024)
	assert.Nil(t, err)

	cert, err := provider.CreateSelfSigned(
		testSubject, key, 365, AuthorityProfile())
	assert.Nil(t, err)

	assert.True(t, cert.IsCA)
	assert.True(t, cert.BasicConstraintsValid)
	assert.Equal(t, "rootca", cert.Subject.CommonName)
	assert.Equal(t, cert.Subject.CommonName, cert.Issuer.CommonName)
	assert.Equal(t, x509.SHA256WithRSA, cert.SignatureAlgorithm)

	assert.NotZero(t, cert.KeyUsage&x509.KeyUsageDigitalSignature)
	assert.NotZero(t, cert.KeyUsage&x509.KeyUsageKeyEncipherment)
	assert.NotZero(t, cert.KeyUsage&x509.KeyUsageCertSign)
	assert.Contains(t, cert.ExtKeyUsage, x509.ExtKeyUsageServerAuth)
	assert.Contains(t, cert.ExtKeyUsage, x509.ExtKeyUsageClientAuth)

	expires := time.Now().AddDate(0, 0, 365)
	assert.WithinDuration(t, expires, cert.NotAfter, time.Hour)
}

func TestCreateSelfSignedLeaf(t *testing.T) {
	provider := newTestProvider()

	key, err := provider.GenerateKeyPair(1024)
	assert.Nil(t, err)

	cert, err := provider.CreateSelfSigned(
		testSubject.WithCommonName("tenant1"), key, 365, LeafProfile())
	assert.Nil(t, err)

	assert.False(t, cert.IsCA)
	assert.Equal(t, "tenant1", cert.Subject.CommonName)
	assert.Zero(t, cert.KeyUsage&x509.KeyUsageCertSign)
}

func TestCSRRoundTrip(t *testing.T) {
	provider := newTestProvider()

	key, err := provider.GenerateKeyPair(1024)
	assert.Nil(t, err)

	csrPEM, err := provider.CreateCSR(
		testSubject.WithCommonName("tenant1"), key)
	assert.Nil(t, err)
	assert.Contains(t, string(csrPEM), "BEGIN CERTIFICATE REQUEST")

	csr, err := DecodeCSR(csrPEM)
	assert.Nil(t, err)
	assert.Equal(t, "tenant1", csr.Subject.CommonName)
	assert.Equal(t, []string{"Example Company"}, csr.Subject.Organization)
	assert.Nil(t, csr.CheckSignature())
}

func TestSignCSRAndVerify(t *testing.T) {
	provider := newTestProvider()

	caKey, err := provider.GenerateKeyPair(1024)
	assert.Nil(t, err)
	caCert, err := provider.CreateSelfSigned(
		testSubject, caKey, 365, AuthorityProfile())
	assert.Nil(t, err)

	tenantKey, err := provider.GenerateKeyPair(1024)
	assert.Nil(t, err)
	csrPEM, err := provider.CreateCSR(
		testSubject.WithCommonName("tenant1"), tenantKey)
	assert.Nil(t, err)

	cert, err := provider.SignCSR(csrPEM, caCert, caKey, 365)
	assert.Nil(t, err)
	assert.Equal(t, "tenant1", cert.Subject.CommonName)
	assert.Equal(t, "rootca", cert.Issuer.CommonName)
	assert.False(t, cert.IsCA)

	assert.Nil(t, provider.Verify(cert, caCert))
}

func TestVerifyRejectsForeignRoot(t *testing.T) {
	provider := newTestProvider()

	caKey, err := provider.GenerateKeyPair(1024)
	assert.Nil(t, err)
	caCert, err := provider.CreateSelfSigned(
		testSubject, caKey, 365, AuthorityProfile())
	assert.Nil(t, err)

	foreignKey, err := provider.GenerateKeyPair(1024)
	assert.Nil(t, err)
	foreignCert, err := provider.CreateSelfSigned(
		testSubject.WithCommonName("foreign"), foreignKey, 365, AuthorityProfile())
	assert.Nil(t, err)

	tenantKey, err := provider.GenerateKeyPair(1024)
	assert.Nil(t, err)
	csrPEM, err := provider.CreateCSR(
		testSubject.WithCommonName("tenant1"), tenantKey)
	assert.Nil(t, err)

	cert, err := provider.SignCSR(csrPEM, caCert, caKey, 365)
	assert.Nil(t, err)

	assert.NotNil(t, provider.Verify(cert, foreignCert))
}
