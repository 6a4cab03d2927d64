// Package pathenv refreshes the process PATH after a runtime install so
// later subprocesses find binaries the installer just placed.
package pathenv

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Refresher updates PATH and returns the directories it added.
type Refresher func() ([]string, error)

// Refresh prepends the platform's install directories that exist and are
// not on PATH yet, and updates the process environment.
func Refresh() ([]string, error) {
	dirs, err := systemDirs()
	if err != nil {
		return nil, err
	}
	merged, added := Merge(os.Getenv("PATH"), dirs, isDir)
	if len(added) == 0 {
		return nil, nil
	}
	if err := os.Setenv("PATH", merged); err != nil {
		return nil, err
	}
	return added, nil
}

// Merge prepends each dir that exists and is not already in current.
// Order of dirs is kept; duplicates within dirs are dropped.
func Merge(current string, dirs []string, exists func(string) bool) (string, []string) {
	present := make(map[string]bool)
	for _, p := range filepath.SplitList(current) {
		present[pathKey(p)] = true
	}

	var added []string
	for _, d := range dirs {
		if d == "" || present[pathKey(d)] || !exists(d) {
			continue
		}
		present[pathKey(d)] = true
		added = append(added, d)
	}
	if len(added) == 0 {
		return current, nil
	}

	parts := append([]string{}, added...)
	if current != "" {
		parts = append(parts, current)
	}
	return strings.Join(parts, string(os.PathListSeparator)), added
}

func pathKey(p string) string {
	p = filepath.Clean(p)
	if runtime.GOOS == "windows" {
		return strings.ToLower(p)
	}
	return p
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
