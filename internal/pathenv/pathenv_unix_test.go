//go:build !windows

package pathenv

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestSystemDirs_NPMConfigPrefix(t *testing.T) {
	prefix := t.TempDir()
	t.Setenv("NPM_CONFIG_PREFIX", prefix)

	dirs, err := systemDirs()
	if err != nil {
		t.Fatalf("systemDirs() error = %v", err)
	}
	if !slices.Contains(dirs, filepath.Join(prefix, "bin")) {
		t.Errorf("dirs = %v, want %s/bin", dirs, prefix)
	}

	t.Setenv("NPM_CONFIG_PREFIX", "")
	dirs, _ = systemDirs()
	if slices.Contains(dirs, filepath.Join(prefix, "bin")) {
		t.Errorf("unset prefix still listed: %v", dirs)
	}
}
