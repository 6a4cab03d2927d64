// Package fs is the filesystem seam for gemkit. Everything that touches a
// workspace or the download cache goes through FS so tests can swap in
// stubs, and the helpers in this package encode the two write policies
// gemkit uses: create-only-if-absent for scaffolding and atomic replace
// for regenerated files.
package fs

import (
	"io"
	iofs "io/fs"
	"os"
)

// TempFile is an open temp file. *os.File satisfies it.
type TempFile interface {
	io.Writer
	Name() string
	Sync() error
	Close() error
}

// FS is the set of filesystem calls gemkit makes.
type FS interface {
	Stat(path string) (iofs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Chmod(path string, perm os.FileMode) error
	Rename(oldpath, newpath string) error
	Remove(path string) error

	// CreateTemp opens a new file in dir named after pattern (see
	// os.CreateTemp). The caller closes it and removes it if unused.
	CreateTemp(dir, pattern string) (TempFile, error)
}

// RealFS is FS backed by the os package.
type RealFS struct{}

// NewRealFS returns the os-backed FS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

func (*RealFS) Stat(path string) (iofs.FileInfo, error)      { return os.Stat(path) }
func (*RealFS) ReadFile(path string) ([]byte, error)         { return os.ReadFile(path) }
func (*RealFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (*RealFS) Chmod(path string, perm os.FileMode) error    { return os.Chmod(path, perm) }
func (*RealFS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (*RealFS) Remove(path string) error                     { return os.Remove(path) }

func (*RealFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (*RealFS) CreateTemp(dir, pattern string) (TempFile, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return f, nil
}
