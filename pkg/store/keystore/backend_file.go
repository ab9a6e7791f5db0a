package keystore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
)

// FileBackend persists keystore containers on a file system through
// a codec. Saves refuse to overwrite an existing file unless asked,
// so every container write is presence gated the same way flat
// artifacts are.
type FileBackend struct {
	logger *logging.Logger
	fs     afero.Fs
	codec  Codec
}

func NewFileBackend(
	logger *logging.Logger,
	fs afero.Fs,
	codec Codec) *FileBackend {

	return &FileBackend{
		logger: logger,
		fs:     fs,
		codec:  codec,
	}
}

func (fb *FileBackend) StoreType() StoreType {
	return fb.codec.StoreType()
}

func (fb *FileBackend) FileExtension() string {
	return fb.codec.FileExtension()
}

// Marshals the container and writes it to the file system
func (fb *FileBackend) Save(
	path string,
	container *Container,
	password []byte,
	overwrite bool) error {

	if !overwrite {
		if _, err := fb.fs.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrFileAlreadyExists, path)
		}
	}
	data, err := fb.codec.Marshal(container, password)
	if err != nil {
		fb.logger.Errorf("%s: %s", err, path)
		return err
	}
	if err := fb.fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		fb.logger.Errorf("%s: %s", err, path)
		return err
	}
	if err := afero.WriteFile(fb.fs, path, data, 0644); err != nil {
		fb.logger.Errorf("%s: %s", err, path)
		return err
	}
	return nil
}

// Reads the file and unmarshals it into a container
func (fb *FileBackend) Load(path string, password []byte) (*Container, error) {
	data, err := afero.ReadFile(fb.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			fb.logger.Warnf("%s: %s", ErrFileNotFound, path)
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return fb.codec.Unmarshal(data, password)
}

func (fb *FileBackend) Exists(path string) bool {
	if _, err := fb.fs.Stat(path); err != nil {
		return false
	}
	return true
}

// Copies the store byte for byte to a second path, leaving an
// existing destination untouched.
func (fb *FileBackend) Copy(src, dst string) error {
	if fb.Exists(dst) {
		return fmt.Errorf("%w: %s", ErrFileAlreadyExists, dst)
	}
	data, err := afero.ReadFile(fb.fs, src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, src)
		}
		return err
	}
	if err := fb.fs.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return err
	}
	return afero.WriteFile(fb.fs, dst, data, 0644)
}
