package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// PKCS12Codec serializes containers in PKCS #12 format. The format
// carries at most one private key and does not preserve entry
// aliases, so decoded key entries are assigned the configured
// default alias and trusted entries are aliased by common name.
type PKCS12Codec struct {
	keyAlias string
}

func NewPKCS12Codec(keyAlias string) *PKCS12Codec {
	if keyAlias == "" {
		// keytool assigns "1" to unnamed PKCS #12 entries
		keyAlias = "1"
	}
	return &PKCS12Codec{keyAlias: keyAlias}
}

func (codec *PKCS12Codec) StoreType() StoreType {
	return STORE_PKCS12
}

func (codec *PKCS12Codec) FileExtension() string {
	return "pfx"
}

func (codec *PKCS12Codec) Marshal(
	container *Container, password []byte) ([]byte, error) {

	trusted := container.TrustedCertificates()

	if container.key == nil {
		if len(trusted) == 0 {
			return nil, ErrEntryNotFound
		}
		entries := make([]pkcs12.TrustStoreEntry, len(trusted))
		for i, alias := range container.TrustedAliases() {
			entries[i] = pkcs12.TrustStoreEntry{
				Cert:         container.trusted[alias],
				FriendlyName: alias,
			}
		}
		return pkcs12.Modern.EncodeTrustStoreEntries(
			entries, string(password))
	}

	caCerts := make(
		[]*x509.Certificate, 0, len(container.chain)-1+len(trusted))
	caCerts = append(caCerts, container.chain[1:]...)
	caCerts = append(caCerts, trusted...)

	return pkcs12.Modern.Encode(
		container.key, container.chain[0], caCerts, string(password))
}

func (codec *PKCS12Codec) Unmarshal(data, password []byte) (*Container, error) {

	container := NewContainer()

	key, leaf, caCerts, err := pkcs12.DecodeChain(data, string(password))
	if err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrInvalidKeyEntry
		}
		chain := []*x509.Certificate{leaf}
		if err := container.SetKeyEntry(
			codec.keyAlias, rsaKey, chain); err != nil {

			return nil, err
		}
		for _, cert := range caCerts {
			alias := trustedAlias(container, cert)
			if err := container.SetTrustedEntry(alias, cert); err != nil {
				return nil, err
			}
		}
		return container, nil
	}
	if errors.Is(err, pkcs12.ErrIncorrectPassword) {
		return nil, ErrInvalidPassword
	}

	// No private key in the file; try decoding as a trust store
	certs, tsErr := pkcs12.DecodeTrustStore(data, string(password))
	if tsErr != nil {
		if errors.Is(tsErr, pkcs12.ErrIncorrectPassword) {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	for _, cert := range certs {
		alias := trustedAlias(container, cert)
		if err := container.SetTrustedEntry(alias, cert); err != nil {
			return nil, err
		}
	}
	return container, nil
}

// Derives a stable alias for a decoded trusted certificate
func trustedAlias(container *Container, cert *x509.Certificate) string {
	alias := strings.ToLower(cert.Subject.CommonName)
	if alias == "" {
		alias = cert.SerialNumber.Text(16)
	}
	if !container.HasTrustedEntry(alias) {
		return alias
	}
	for i := 2; ; i++ {
		next := fmt.Sprintf("%s-%d", alias, i)
		if !container.HasTrustedEntry(next) {
			return next
		}
	}
}
