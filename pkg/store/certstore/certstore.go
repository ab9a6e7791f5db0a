package certstore

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/pki"
)

var (
	ErrFileAlreadyExists = errors.New("store/certstore: file already exists")
	ErrFileNotFound      = errors.New("store/certstore: file not found")
)

// FileStore persists the flat PEM artifacts of the issuance
// workflow: certificates, signing requests and private keys.
type FileStore struct {
	logger *logging.Logger
	fs     afero.Fs
}

func NewFileStore(logger *logging.Logger, fs afero.Fs) *FileStore {
	return &FileStore{
		logger: logger,
		fs:     fs,
	}
}

func (store *FileStore) Exists(path string) bool {
	if _, err := store.fs.Stat(path); err != nil {
		return false
	}
	return true
}

// Writes the certificate in PEM form, refusing to overwrite
func (store *FileStore) SaveCertificate(
	path string, certificate *x509.Certificate) error {

	certPEM, err := pki.EncodePEM(certificate.Raw)
	if err != nil {
		return err
	}
	return store.save(path, certPEM)
}

func (store *FileStore) Certificate(path string) (*x509.Certificate, error) {
	data, err := store.read(path)
	if err != nil {
		return nil, err
	}
	return pki.DecodePEM(data)
}

// Writes a PEM encoded certificate signing request
func (store *FileStore) SaveCSR(path string, csrPEM []byte) error {
	return store.save(path, csrPEM)
}

func (store *FileStore) CSR(path string) ([]byte, error) {
	return store.read(path)
}

// Writes the private key in PKCS #8 PEM form, encrypted when a
// password is provided
func (store *FileStore) SavePrivKey(
	path string, key *rsa.PrivateKey, password []byte) error {

	keyPEM, err := pki.EncodePrivKeyPEM(key, password)
	if err != nil {
		return err
	}
	return store.save(path, keyPEM)
}

func (store *FileStore) PrivKey(
	path string, password []byte) (*rsa.PrivateKey, error) {

	data, err := store.read(path)
	if err != nil {
		return nil, err
	}
	return pki.DecodePrivKeyPEM(data, password)
}

// Writes an opaque artifact such as a rendered configuration document
func (store *FileStore) SaveBlob(path string, data []byte) error {
	return store.save(path, data)
}

func (store *FileStore) Blob(path string) ([]byte, error) {
	return store.read(path)
}

func (store *FileStore) save(path string, data []byte) error {
	if store.Exists(path) {
		return fmt.Errorf("%w: %s", ErrFileAlreadyExists, path)
	}
	if err := store.fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		store.logger.Errorf("%s: %s", err, path)
		return err
	}
	if err := afero.WriteFile(store.fs, path, data, 0644); err != nil {
		store.logger.Errorf("%s: %s", err, path)
		return err
	}
	return nil
}

func (store *FileStore) read(path string) ([]byte, error) {
	data, err := afero.ReadFile(store.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			store.logger.Warnf("%s: %s", ErrFileNotFound, path)
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return data, nil
}
