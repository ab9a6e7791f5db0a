package pki

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"io"
	"time"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/util"
)

// Params bundle the collaborators required to construct an
// X509Provider.
type Params struct {
	Logger *logging.Logger
	Random io.Reader
}

// X509Provider implements Provider on the x509 runtime library.
type X509Provider struct {
	logger *logging.Logger
	random io.Reader
}

func NewProvider(params *Params) *X509Provider {
	random := params.Random
	if random == nil {
		random = rand.Reader
	}
	return &X509Provider{
		logger: params.Logger,
		random: random,
	}
}

func (p *X509Provider) GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	p.logger.Debugf("pki: generating %d bit RSA key pair", bits)
	return rsa.GenerateKey(p.random, bits)
}

func (p *X509Provider) CreateSelfSigned(
	subject Subject,
	key *rsa.PrivateKey,
	validDays int,
	profile ExtensionProfile) (*x509.Certificate, error) {

	serialNumber, err := util.X509SerialNumber(p.random)
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	subjectKeyID, err := createSubjectKeyIdentifier(key.Public())
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	p.logger.Infof(
		"pki: creating self-signed certificate for %s",
		subject.CommonName)
	p.logger.Debugf("pki: subject %s", subject.PathForm())

	template := &x509.Certificate{
		SignatureAlgorithm:    x509.SHA256WithRSA,
		SerialNumber:          serialNumber,
		Subject:               subject.PKIXName(),
		SubjectKeyId:          subjectKeyID,
		AuthorityKeyId:        subjectKeyID,
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(0, 0, validDays),
		IsCA:                  profile.IsCA,
		KeyUsage:              profile.KeyUsage,
		ExtKeyUsage:           profile.ExtKeyUsage,
		BasicConstraintsValid: profile.IsCA,
	}

	derBytes, err := x509.CreateCertificate(
		p.random, template, template, key.Public(), key)
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	return x509.ParseCertificate(derBytes)
}

func (p *X509Provider) CreateCSR(
	subject Subject, key *rsa.PrivateKey) ([]byte, error) {

	p.logger.Infof(
		"pki: creating certificate signing request for %s",
		subject.CommonName)
	p.logger.Debugf("pki: subject %s", subject.AttributeForm())

	template := x509.CertificateRequest{
		SignatureAlgorithm: x509.SHA256WithRSA,
		Subject:            subject.PKIXName(),
	}

	csrBytes, err := x509.CreateCertificateRequest(
		p.random, &template, key)
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	csrPEM, err := EncodeCSR(csrBytes)
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	p.logger.Debug(string(csrPEM))

	return csrPEM, nil
}

func (p *X509Provider) SignCSR(
	csrPEM []byte,
	caCert *x509.Certificate,
	caKey *rsa.PrivateKey,
	validDays int) (*x509.Certificate, error) {

	csr, err := DecodeCSR(csrPEM)
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	if err := csr.CheckSignature(); err != nil {
		p.logger.Error(err)
		return nil, err
	}

	serialNumber, err := util.X509SerialNumber(p.random)
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	subjectKeyID, err := createSubjectKeyIdentifier(csr.PublicKey)
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	p.logger.Infof(
		"pki: signing certificate request for %s with %s",
		csr.Subject.CommonName,
		caCert.Subject.CommonName)

	profile := LeafProfile()
	template := x509.Certificate{
		Signature:          csr.Signature,
		SignatureAlgorithm: x509.SHA256WithRSA,
		PublicKeyAlgorithm: csr.PublicKeyAlgorithm,
		PublicKey:          csr.PublicKey,
		SerialNumber:       serialNumber,
		Issuer:             caCert.Subject,
		Subject:            csr.Subject,
		AuthorityKeyId:     caCert.SubjectKeyId,
		SubjectKeyId:       subjectKeyID,
		NotBefore:          time.Now(),
		NotAfter:           time.Now().AddDate(0, 0, validDays),
		KeyUsage:           profile.KeyUsage,
		ExtKeyUsage:        profile.ExtKeyUsage,
	}

	derBytes, err := x509.CreateCertificate(
		p.random, &template, caCert, template.PublicKey, caKey)
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}

	return x509.ParseCertificate(derBytes)
}

func (p *X509Provider) Verify(certificate, root *x509.Certificate) error {

	roots := x509.NewCertPool()
	roots.AddCert(root)

	opts := x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}

	if _, err := certificate.Verify(opts); err != nil {
		p.logger.Error(err)
		return err
	}
	return nil
}

// Build Subject Key Identifier
func createSubjectKeyIdentifier(pub crypto.PublicKey) ([]byte, error) {
	var spki struct {
		Algorithm        pkix.AlgorithmIdentifier
		SubjectPublicKey asn1.BitString
	}
	spkiASN1, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	if _, err := asn1.Unmarshal(spkiASN1, &spki); err != nil {
		return nil, err
	}
	skid := sha1.Sum(spki.SubjectPublicKey.Bytes)
	return skid[:], nil
}
