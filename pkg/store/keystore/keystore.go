package keystore

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrFileAlreadyExists = errors.New("store/keystore: file already exists")
	ErrFileNotFound      = errors.New("store/keystore: file not found")
	ErrInvalidStoreType  = errors.New("store/keystore: invalid store type")
	ErrInvalidAlias      = errors.New("store/keystore: invalid entry alias")
	ErrInvalidKeyEntry   = errors.New("store/keystore: invalid private key entry")
	ErrEntryNotFound     = errors.New("store/keystore: entry not found")
	ErrInvalidPassword   = errors.New("store/keystore: invalid password")
)

type StoreType string

const (
	STORE_JKS    StoreType = "jks"
	STORE_PKCS12 StoreType = "pkcs12"
)

func ParseStoreType(storeType string) (StoreType, error) {
	switch strings.ToLower(storeType) {
	case string(STORE_JKS):
		return STORE_JKS, nil
	case string(STORE_PKCS12):
		return STORE_PKCS12, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidStoreType, storeType)
}

// Codec serializes containers to and from a password protected
// keystore wire format.
type Codec interface {
	StoreType() StoreType
	FileExtension() string
	Marshal(container *Container, password []byte) ([]byte, error)
	Unmarshal(data, password []byte) (*Container, error)
}

// Returns the codec for the requested store type
func NewCodec(storeType StoreType, keyAlias string) (Codec, error) {
	switch storeType {
	case STORE_JKS:
		return NewJKSCodec(), nil
	case STORE_PKCS12:
		return NewPKCS12Codec(keyAlias), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidStoreType, storeType)
}

// Container is the in-memory model of a keystore: at most one
// private key entry, identified by alias, plus any number of trusted
// certificate entries. The same model serves both the tenant
// keystore and the authority truststore.
type Container struct {
	keyAlias string
	key      *rsa.PrivateKey
	chain    []*x509.Certificate
	trusted  map[string]*x509.Certificate
}

func NewContainer() *Container {
	return &Container{
		trusted: make(map[string]*x509.Certificate),
	}
}

// Sets the private key entry, replacing any previous entry and its
// certificate chain.
func (c *Container) SetKeyEntry(
	alias string,
	key *rsa.PrivateKey,
	chain []*x509.Certificate) error {

	if alias == "" {
		return ErrInvalidAlias
	}
	if key == nil || len(chain) == 0 {
		return ErrInvalidKeyEntry
	}
	c.keyAlias = alias
	c.key = key
	c.chain = chain
	return nil
}

// Returns the private key entry alias, key and certificate chain
func (c *Container) KeyEntry() (string, *rsa.PrivateKey, []*x509.Certificate, error) {
	if c.key == nil {
		return "", nil, nil, ErrEntryNotFound
	}
	return c.keyAlias, c.key, c.chain, nil
}

// Returns the first certificate in the key entry chain
func (c *Container) Leaf() (*x509.Certificate, error) {
	if c.key == nil {
		return nil, ErrEntryNotFound
	}
	return c.chain[0], nil
}

func (c *Container) SetTrustedEntry(alias string, cert *x509.Certificate) error {
	if alias == "" {
		return ErrInvalidAlias
	}
	if cert == nil {
		return ErrEntryNotFound
	}
	c.trusted[alias] = cert
	return nil
}

func (c *Container) TrustedEntry(alias string) (*x509.Certificate, error) {
	cert, ok := c.trusted[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, alias)
	}
	return cert, nil
}

func (c *Container) HasTrustedEntry(alias string) bool {
	_, ok := c.trusted[alias]
	return ok
}

// Returns true if the exact certificate is present as a trusted
// entry under any alias. Formats that discard aliases on decode are
// still able to answer this.
func (c *Container) HasTrustedCert(cert *x509.Certificate) bool {
	for _, trusted := range c.trusted {
		if bytes.Equal(trusted.Raw, cert.Raw) {
			return true
		}
	}
	return false
}

// Returns the trusted entry aliases in lexical order
func (c *Container) TrustedAliases() []string {
	aliases := make([]string, 0, len(c.trusted))
	for alias := range c.trusted {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Returns the trusted certificates ordered by alias
func (c *Container) TrustedCertificates() []*x509.Certificate {
	aliases := c.TrustedAliases()
	certs := make([]*x509.Certificate, len(aliases))
	for i, alias := range aliases {
		certs[i] = c.trusted[alias]
	}
	return certs
}
