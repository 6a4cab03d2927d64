package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempPattern names in-flight atomic writes.
const TempPattern = ".gemkit-tmp-*"

// WriteFileAtomic replaces path with data. The bytes are written and
// synced to a sibling temp file which is then renamed over path, so
// readers see either the old content or the new, never a prefix. On any
// failure the temp file is removed and path is untouched. The parent
// directory must exist.
func WriteFileAtomic(fsys FS, path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := fsys.CreateTemp(filepath.Dir(path), TempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if err != nil {
			_ = fsys.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fsys.Chmod(tmpPath, perm); err != nil {
		return err
	}
	return fsys.Rename(tmpPath, path)
}
