//go:build !windows

package pathenv

import (
	"os"
	"path/filepath"
	"runtime"
)

// systemDirs lists where the package managers and the official
// installers put node and npm-global binaries.
func systemDirs() ([]string, error) {
	dirs := []string{"/usr/local/bin", "/usr/bin"}
	if runtime.GOOS == "darwin" {
		dirs = append([]string{"/opt/homebrew/bin"}, dirs...)
	}
	if prefix := os.Getenv("NPM_CONFIG_PREFIX"); prefix != "" {
		dirs = append(dirs, filepath.Join(prefix, "bin"))
	}
	return dirs, nil
}
