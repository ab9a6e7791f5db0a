package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/tjake/cert-bundle-maker/pkg/ca"
	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/tenant"
)

var ErrMissingInput = errors.New("bundle: missing input artifact")

// Entry maps a file on the file system to its name inside the
// credential bundle archive.
type Entry struct {
	Name string
	Path string
}

type Params struct {
	Logger *logging.Logger
	Fs     afero.Fs
}

// Assembler packages issued credentials into flat zip archives ready
// to hand to a tenant.
type Assembler struct {
	logger *logging.Logger
	fs     afero.Fs
}

func NewAssembler(params *Params) *Assembler {
	return &Assembler{
		logger: params.Logger,
		fs:     params.Fs,
	}
}

// Returns the archive path for a tenant bundle
func ArchivePath(baseDir, name string) string {
	return filepath.Join(baseDir, name+"-bundle.zip")
}

// Manifest returns the bundle contents for a tenant in archive order:
// the authority credentials, the tenant stores, the flat leaf
// credentials and the connection config. The leaf certificate and key
// travel under the fixed names the connection config points at.
func Manifest(authority *ca.Authority, credential *tenant.CredentialStore) []Entry {
	return []Entry{
		{Name: "ca.key", Path: authority.KeyPath()},
		{Name: "ca.crt", Path: authority.CertPath()},
		{Name: filepath.Base(credential.TrustStorePath()), Path: credential.TrustStorePath()},
		{Name: filepath.Base(credential.KeystorePath()), Path: credential.KeystorePath()},
		{Name: "cert", Path: credential.CertPath()},
		{Name: "key", Path: credential.KeyPath()},
		{Name: filepath.Base(credential.CSRPath()), Path: credential.CSRPath()},
		{Name: "config.json", Path: credential.ConfigPath()},
	}
}

// Assemble writes the archive unless it already exists. Every input
// is read before the first byte is written so a missing artifact
// never leaves a partial archive behind. Entries carry no timestamps,
// assembling the same inputs twice produces identical archives.
func (a *Assembler) Assemble(path string, entries []Entry) error {
	if _, err := a.fs.Stat(path); err == nil {
		a.logger.Infof("bundle: %s exists, skipping assembly", path)
		return nil
	}
	contents := make([][]byte, len(entries))
	for i, entry := range entries {
		data, err := afero.ReadFile(a.fs, entry.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrMissingInput, entry.Path)
			}
			return err
		}
		contents[i] = data
	}
	buffer := new(bytes.Buffer)
	writer := zip.NewWriter(buffer)
	for i, entry := range entries {
		file, err := writer.CreateHeader(&zip.FileHeader{
			Name:   entry.Name,
			Method: zip.Deflate,
		})
		if err != nil {
			return err
		}
		if _, err := file.Write(contents[i]); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	if err := a.fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	if err := afero.WriteFile(a.fs, path, buffer.Bytes(), 0644); err != nil {
		a.logger.Errorf("%s: %s", err, path)
		return err
	}
	a.logger.Infof("bundle: assembled %s", path)
	return nil
}
