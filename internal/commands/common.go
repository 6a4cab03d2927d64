// Package commands implements the gemkit subcommands.
package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/NielsdaWheelz/gemkit/internal/config"
	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/lock"
	"github.com/NielsdaWheelz/gemkit/internal/paths"
	"github.com/NielsdaWheelz/gemkit/internal/pipeline"
)

// OSEnv implements paths.Env using os.Getenv.
type OSEnv struct{}

func (OSEnv) Get(key string) string {
	return os.Getenv(key)
}

// ResolveDirs resolves the per-user directories for the current user.
func ResolveDirs() (paths.Dirs, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return paths.Dirs{}, errors.Wrap(errors.EInternal, "failed to get home directory", err)
	}
	return paths.ResolveDirs(OSEnv{}, homeDir), nil
}

// loadConfig layers defaults, the global config file, then each extra
// file (project file, --config) in order.
func loadConfig(fsys fs.FS, dirs paths.Dirs, extra ...string) (config.Config, error) {
	files := append([]string{dirs.ConfigFile()}, extra...)
	return config.Load(fsys, files...)
}

// acquireLock takes key in the lock dir. A competing live run is
// E_LOCKED; anything else is E_FS.
func acquireLock(dirs paths.Dirs, key, target, cmd string) (func() error, error) {
	unlock, err := lock.New(dirs.LockDir()).Lock(key, target, cmd)
	if err != nil {
		var locked *lock.ErrLocked
		if stderrors.As(err, &locked) {
			return nil, errors.WrapWithDetails(errors.ELocked, "another gemkit run is in progress", err,
				map[string]string{"lock": locked.Path})
		}
		return nil, errors.WrapWithDetails(errors.EFS, "failed to acquire lock", err,
			map[string]string{"path": dirs.LockDir()})
	}
	return unlock, nil
}

// releaseLock runs unlock and logs a failure; a lock file left behind
// only delays the next run until it goes stale.
func releaseLock(unlock func() error, logger *slog.Logger) {
	if err := unlock(); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to release lock", "error", err.Error())
	}
}

func writeWarnings(w io.Writer, warnings []pipeline.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warn.Code, warn.Message)
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
