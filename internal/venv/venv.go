// Package venv drives an isolated Python package environment through the
// interpreter's own venv and pip modules.
package venv

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/exec"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/manifest"
)

// stderrLines is how much subprocess stderr goes into error details.
const stderrLines = 5

// Env is a created environment.
type Env struct {
	Dir    string // environment root
	Python string // interpreter inside Dir
}

// InterpreterPath returns the interpreter location inside an environment.
func InterpreterPath(dir, goos string) string {
	if goos == "windows" {
		return filepath.Join(dir, "Scripts", "python.exe")
	}
	return filepath.Join(dir, "bin", "python")
}

// Manager runs venv and pip.
type Manager struct {
	Runner  exec.CommandRunner
	FS      fs.FS
	Python  string        // bootstrap interpreter, e.g. python3
	Timeout time.Duration // per subprocess; zero is unbounded
	Logger  *slog.Logger
	GOOS    string // defaults to runtime.GOOS
}

func (m *Manager) goos() string {
	if m.GOOS != "" {
		return m.GOOS
	}
	return runtime.GOOS
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Ensure creates the environment at dir unless dir already exists.
// An existing dir is never recreated. The interpreter must exist afterwards.
func (m *Manager) Ensure(ctx context.Context, dir string) (env Env, created bool, err error) {
	env = Env{Dir: dir, Python: InterpreterPath(dir, m.goos())}

	exists, err := fs.Exists(m.FS, dir)
	if err != nil {
		return env, false, errors.WrapWithDetails(errors.EFS, "failed to stat environment directory", err, map[string]string{"path": dir})
	}
	if !exists {
		args := []string{"-m", "venv", dir}
		if err := m.run(ctx, errors.EEnvCreate, "failed to create environment", m.Python, args, nil); err != nil {
			return env, false, err
		}
		created = true
	} else {
		m.logger().Info("environment exists; not recreating", "path", dir)
	}

	ok, err := fs.Exists(m.FS, env.Python)
	if err != nil || !ok {
		return env, created, errors.WrapWithDetails(errors.EEnvCreate,
			"environment interpreter not found", err, map[string]string{"path": env.Python})
	}
	return env, created, nil
}

// UpgradePip runs `pip install --upgrade pip` inside env.
func (m *Manager) UpgradePip(ctx context.Context, env Env) error {
	args := []string{"-m", "pip", "install", "--upgrade", "pip"}
	return m.run(ctx, errors.EPackageInstall, "failed to upgrade pip", env.Python, args,
		map[string]string{"package": "pip"})
}

// Install installs pkgs one at a time in order and stops at the first
// failure; the error names the package. Returns how many succeeded.
func (m *Manager) Install(ctx context.Context, env Env, pkgs []string) (int, error) {
	for i, pkg := range pkgs {
		args := []string{"-m", "pip", "install", pkg}
		msg := fmt.Sprintf("failed to install package %s", pkg)
		if err := m.run(ctx, errors.EPackageInstall, msg, env.Python, args, map[string]string{"package": pkg}); err != nil {
			return i, err
		}
		m.logger().Info("package installed", "package", pkg)
	}
	return len(pkgs), nil
}

// List returns the installed packages as reported by `pip list`.
func (m *Manager) List(ctx context.Context, env Env) (manifest.Manifest, error) {
	args := []string{"-m", "pip", "list", "--format=json"}
	res, err := m.exec(ctx, env.Python, args)
	if err != nil {
		return manifest.Manifest{}, errors.WrapWithDetails(errors.EManifest, "failed to list installed packages", err,
			map[string]string{"command": exec.FormatCommand(env.Python, args)})
	}
	if res.ExitCode != 0 {
		return manifest.Manifest{}, errors.NewWithDetails(errors.EManifest, "failed to list installed packages",
			failureDetails(env.Python, args, res, nil))
	}
	list, err := manifest.FromPipJSON([]byte(res.Stdout))
	if err != nil {
		return manifest.Manifest{}, errors.Wrap(errors.EManifest, "unreadable pip list output", err)
	}
	return list, nil
}

func (m *Manager) exec(ctx context.Context, name string, args []string) (exec.CmdResult, error) {
	m.logger().Debug("running", "cmd", exec.FormatCommand(name, args))
	return m.Runner.Run(ctx, name, args, exec.RunOpts{Timeout: m.Timeout})
}

func (m *Manager) run(ctx context.Context, code errors.Code, msg, name string, args []string, extra map[string]string) error {
	res, err := m.exec(ctx, name, args)
	if err != nil {
		details := map[string]string{"command": exec.FormatCommand(name, args)}
		for k, v := range extra {
			details[k] = v
		}
		return errors.WrapWithDetails(code, msg, err, details)
	}
	if res.ExitCode != 0 {
		return errors.NewWithDetails(code, msg, failureDetails(name, args, res, extra))
	}
	return nil
}

func failureDetails(name string, args []string, res exec.CmdResult, extra map[string]string) map[string]string {
	details := map[string]string{
		"command":   exec.FormatCommand(name, args),
		"exit_code": fmt.Sprintf("%d", res.ExitCode),
	}
	if tail := exec.Tail(res.Stderr, stderrLines); tail != "" {
		details["stderr"] = tail
	}
	for k, v := range extra {
		details[k] = v
	}
	return details
}
