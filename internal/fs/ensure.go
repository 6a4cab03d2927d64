package fs

import (
	"os"
	"syscall"
)

// Exists reports whether path exists. Errors other than not-exist are returned.
func Exists(fsys FS, path string) (bool, error) {
	_, err := fsys.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// EnsureDir creates path (and parents) if it does not exist.
// created is true only when this call made the directory, so callers can
// attach first-creation work to the result instead of re-checking later.
// An existing non-directory at path is an error. Every error is an
// *os.PathError naming the path that failed.
func EnsureDir(fsys FS, path string, perm os.FileMode) (created bool, err error) {
	info, err := fsys.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return false, &os.PathError{Op: "mkdir", Path: path, Err: syscall.ENOTDIR}
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := fsys.MkdirAll(path, perm); err != nil {
		return false, err
	}
	return true, nil
}

// WriteFileIfAbsent writes data to path only if nothing exists there yet.
// Existing files are never read or modified.
func WriteFileIfAbsent(fsys FS, path string, data []byte, perm os.FileMode) (created bool, err error) {
	exists, err := Exists(fsys, path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := fsys.WriteFile(path, data, perm); err != nil {
		return false, err
	}
	return true, nil
}
