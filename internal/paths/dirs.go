// Package paths resolves the per-user directories gemkit reads from and
// writes to: the global config file and the installer download cache.
package paths

import (
	"path/filepath"
	"runtime"
)

// Dirs holds the resolved per-user directories.
type Dirs struct {
	ConfigDir string
	CacheDir  string
}

// Env is the interface for environment variable lookups.
// Implementations must return "" for unset variables.
type Env interface {
	Get(key string) string
}

// ConfigFile returns the path of the global config file inside d.ConfigDir.
func (d Dirs) ConfigFile() string {
	return filepath.Join(d.ConfigDir, "config.yaml")
}

// DownloadDir returns the directory installer artifacts are downloaded into.
func (d Dirs) DownloadDir() string {
	return filepath.Join(d.CacheDir, "downloads")
}

// LockDir returns the directory holding workspace and install lock files.
func (d Dirs) LockDir() string {
	return filepath.Join(d.CacheDir, "locks")
}

// ResolveDirs computes the config and cache directories for the running OS.
//
// Resolution order for the config directory:
//  1. GEMKIT_CONFIG_DIR
//  2. windows: %APPDATA%\gemkit
//  3. macOS: ~/Library/Preferences/gemkit
//  4. $XDG_CONFIG_HOME/gemkit
//  5. ~/.config/gemkit
//
// Resolution order for the cache directory:
//  1. GEMKIT_CACHE_DIR
//  2. windows: %LOCALAPPDATA%\gemkit\cache
//  3. macOS: ~/Library/Caches/gemkit
//  4. $XDG_CACHE_HOME/gemkit
//  5. ~/.cache/gemkit
//
// Nothing is created on disk. ~ inside env vars is treated as literal.
func ResolveDirs(env Env, homeDir string) Dirs {
	return ResolveDirsForOS(env, homeDir, runtime.GOOS)
}

// ResolveDirsForOS is like ResolveDirs but takes the GOOS value explicitly.
func ResolveDirsForOS(env Env, homeDir, goos string) Dirs {
	return Dirs{
		ConfigDir: resolveConfigDir(env, homeDir, goos),
		CacheDir:  resolveCacheDir(env, homeDir, goos),
	}
}

func resolveConfigDir(env Env, homeDir, goos string) string {
	if v := env.Get("GEMKIT_CONFIG_DIR"); v != "" {
		return v
	}
	switch goos {
	case "windows":
		if v := env.Get("APPDATA"); v != "" {
			return filepath.Join(v, "gemkit")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "gemkit")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Preferences", "gemkit")
	}
	if v := env.Get("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "gemkit")
	}
	return filepath.Join(homeDir, ".config", "gemkit")
}

func resolveCacheDir(env Env, homeDir, goos string) string {
	if v := env.Get("GEMKIT_CACHE_DIR"); v != "" {
		return v
	}
	switch goos {
	case "windows":
		if v := env.Get("LOCALAPPDATA"); v != "" {
			return filepath.Join(v, "gemkit", "cache")
		}
		return filepath.Join(homeDir, "AppData", "Local", "gemkit", "cache")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "gemkit")
	}
	if v := env.Get("XDG_CACHE_HOME"); v != "" {
		return filepath.Join(v, "gemkit")
	}
	return filepath.Join(homeDir, ".cache", "gemkit")
}
