package util

import (
	"github.com/spf13/afero"
)

// Returns true if the file exists on the provided file system
func FileExists(fs afero.Fs, path string) bool {
	if _, err := fs.Stat(path); err != nil {
		return false
	}
	return true
}
