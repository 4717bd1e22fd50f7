// Package osfilesystem implements ports.FileSystem on the local disk.
package osfilesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/panorama/pkg/ports"
)

// FileSystem implements ports.FileSystem using the os package.
type FileSystem struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// New creates a FileSystem with 0755 directories and 0644 files.
func New() *FileSystem {
	return &FileSystem{dirPerm: 0o755, filePerm: 0o644}
}

func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes into a temporary file next to path and renames it
// into place, so an existing output is replaced in one step.
func (f *FileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, f.dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, f.filePerm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (f *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, f.dirPerm)
}

var _ ports.FileSystem = (*FileSystem)(nil)
