package keystore

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"strings"
	"time"

	jks "github.com/pavlo-v-chernykh/keystore-go/v4"
)

const certificateType = "X509"

// JKSCodec serializes containers in the Java KeyStore format
// understood by keytool and JVM based client drivers.
type JKSCodec struct{}

func NewJKSCodec() *JKSCodec {
	return &JKSCodec{}
}

func (codec *JKSCodec) StoreType() StoreType {
	return STORE_JKS
}

func (codec *JKSCodec) FileExtension() string {
	return "jks"
}

func (codec *JKSCodec) Marshal(
	container *Container, password []byte) ([]byte, error) {

	ks := jks.New()

	if container.key != nil {
		der, err := x509.MarshalPKCS8PrivateKey(container.key)
		if err != nil {
			return nil, err
		}
		chain := make([]jks.Certificate, len(container.chain))
		for i, cert := range container.chain {
			chain[i] = jks.Certificate{
				Type:    certificateType,
				Content: cert.Raw,
			}
		}
		entry := jks.PrivateKeyEntry{
			CreationTime:     time.Now(),
			PrivateKey:       der,
			CertificateChain: chain,
		}
		if err := ks.SetPrivateKeyEntry(
			container.keyAlias, entry, password); err != nil {

			return nil, err
		}
	}

	for _, alias := range container.TrustedAliases() {
		entry := jks.TrustedCertificateEntry{
			CreationTime: time.Now(),
			Certificate: jks.Certificate{
				Type:    certificateType,
				Content: container.trusted[alias].Raw,
			},
		}
		if err := ks.SetTrustedCertificateEntry(alias, entry); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := ks.Store(&buf, password); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (codec *JKSCodec) Unmarshal(data, password []byte) (*Container, error) {

	ks := jks.New()
	if err := ks.Load(bytes.NewReader(data), password); err != nil {
		if strings.Contains(err.Error(), "invalid digest") {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}

	container := NewContainer()
	for _, alias := range ks.Aliases() {
		switch {
		case ks.IsPrivateKeyEntry(alias):
			entry, err := ks.GetPrivateKeyEntry(alias, password)
			if err != nil {
				return nil, err
			}
			keyAny, err := x509.ParsePKCS8PrivateKey(entry.PrivateKey)
			if err != nil {
				return nil, err
			}
			key, ok := keyAny.(*rsa.PrivateKey)
			if !ok {
				return nil, ErrInvalidKeyEntry
			}
			chain := make([]*x509.Certificate, len(entry.CertificateChain))
			for i, ksCert := range entry.CertificateChain {
				cert, err := x509.ParseCertificate(ksCert.Content)
				if err != nil {
					return nil, err
				}
				chain[i] = cert
			}
			if err := container.SetKeyEntry(alias, key, chain); err != nil {
				return nil, err
			}

		case ks.IsTrustedCertificateEntry(alias):
			entry, err := ks.GetTrustedCertificateEntry(alias)
			if err != nil {
				return nil, err
			}
			cert, err := x509.ParseCertificate(entry.Certificate.Content)
			if err != nil {
				return nil, err
			}
			if err := container.SetTrustedEntry(alias, cert); err != nil {
				return nil, err
			}
		}
	}
	return container, nil
}
