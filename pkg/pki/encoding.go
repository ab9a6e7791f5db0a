package pki

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"

	"github.com/youmark/pkcs8"
)

// Encodes a raw DER byte array as a PEM byte array
func EncodePEM(derCert []byte) ([]byte, error) {
	caPEM := new(bytes.Buffer)
	err := pem.Encode(caPEM, &pem.Block{
		Type:  "CERTIFICATE",
		Bytes: derCert,
	})
	if err != nil {
		return nil, err
	}
	return caPEM.Bytes(), nil
}

// Decodes PEM bytes to *x509.Certificate
func DecodePEM(data []byte) (*x509.Certificate, error) {
	var block *pem.Block
	if block, _ = pem.Decode(data); block == nil {
		return nil, ErrInvalidEncodingPEM
	}
	return x509.ParseCertificate(block.Bytes)
}

// Encodes a Certificate Signing Request to PEM form
func EncodeCSR(csr []byte) ([]byte, error) {
	csrPEM := new(bytes.Buffer)
	csrBlock := &pem.Block{Type: "CERTIFICATE REQUEST", Bytes: csr}
	if err := pem.Encode(csrPEM, csrBlock); err != nil {
		return nil, err
	}
	return csrPEM.Bytes(), nil
}

// Decodes CSR bytes to x509.CertificateRequest
func DecodeCSR(data []byte) (*x509.CertificateRequest, error) {
	var block *pem.Block
	if block, _ = pem.Decode(data); block == nil {
		return nil, ErrInvalidEncodingPEM
	}
	return x509.ParseCertificateRequest(block.Bytes)
}

// Encodes a private key to PEM encoded ASN.1 DER PKCS #8 form,
// encrypted with the password when one is provided.
func EncodePrivKeyPEM(privateKey *rsa.PrivateKey, password []byte) ([]byte, error) {
	keyType := "PRIVATE KEY"
	if len(password) > 0 {
		keyType = "ENCRYPTED PRIVATE KEY"
	} else {
		password = nil
	}
	der, err := pkcs8.MarshalPrivateKey(privateKey, password, nil)
	if err != nil {
		return nil, err
	}
	keyPEM := new(bytes.Buffer)
	err = pem.Encode(keyPEM, &pem.Block{
		Type:  keyType,
		Bytes: der,
	})
	if err != nil {
		return nil, err
	}
	return keyPEM.Bytes(), nil
}

// Parses a PEM encoded PKCS #8 private key, decrypting with the
// password when one is provided.
func DecodePrivKeyPEM(data, password []byte) (*rsa.PrivateKey, error) {
	var block *pem.Block
	if block, _ = pem.Decode(data); block == nil {
		return nil, ErrInvalidEncodingPEM
	}
	if len(password) == 0 {
		password = nil
	}
	key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, password)
	if err != nil {
		if strings.Contains(err.Error(), "asn1: structure error: tags don't match") {
			return nil, ErrInvalidPassword
		}
		if strings.Contains(err.Error(), "incorrect password") {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	return key, nil
}
