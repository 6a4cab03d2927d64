package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/NielsdaWheelz/gemkit/internal/bootstrap"
	"github.com/NielsdaWheelz/gemkit/internal/config"
	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/exec"
	"github.com/NielsdaWheelz/gemkit/internal/fetch"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/lock"
	"github.com/NielsdaWheelz/gemkit/internal/paths"
	"github.com/NielsdaWheelz/gemkit/internal/scaffold"
	"github.com/NielsdaWheelz/gemkit/internal/secret"
)

// InitDeps are the collaborators of the init command.
type InitDeps struct {
	Runner   exec.CommandRunner
	FS       fs.FS
	Dirs     paths.Dirs
	Fetcher  scaffold.Fetcher // defaults to an HTTP client bounded by fetch_timeout
	Prompter secret.Prompter
	Logger   *slog.Logger
	Now      func() time.Time
	GOOS     string
}

// InitOpts holds options for the init command.
type InitOpts struct {
	EnvironmentName string
	Packages        []string
	PromptSecret    bool
	ConfigFile      string
}

// Init implements `gemkit init [dir]`: layer the config, then hand
// everything to the bootstrapper.
func Init(ctx context.Context, deps InitDeps, dir string, opts InitOpts, stdout io.Writer) error {
	cfg, err := loadConfig(deps.FS, deps.Dirs, config.ProjectFile(dir), opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.EnvironmentName != "" {
		cfg.EnvironmentName = opts.EnvironmentName
	}
	cfg.ExtraPackages = append(cfg.ExtraPackages, opts.Packages...)
	if cfg, err = config.Validate(cfg); err != nil {
		return err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.WrapWithDetails(errors.EFS, "invalid target directory", err, map[string]string{"path": dir})
	}
	unlock, err := acquireLock(deps.Dirs, lock.WorkspaceKey(root), root, "init")
	if err != nil {
		return err
	}
	defer releaseLock(unlock, deps.Logger)

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = fetch.New(cfg.FetchTimeout.Std())
	}

	b := &bootstrap.Bootstrapper{
		Config:   cfg,
		Runner:   deps.Runner,
		FS:       deps.FS,
		Fetcher:  fetcher,
		Prompter: deps.Prompter,
		Logger:   deps.Logger,
		Now:      deps.Now,
		GOOS:     deps.GOOS,
	}

	result, err := b.Run(ctx, root, bootstrap.Options{PromptForSecret: opts.PromptSecret})
	writeWarnings(stdout, result.Warnings)
	if err != nil {
		return err
	}
	writeInitOutput(stdout, result)
	return nil
}

// writeInitOutput writes the stable key: value output for init.
func writeInitOutput(w io.Writer, r bootstrap.Result) {
	fmt.Fprintf(w, "workspace: %s\n", r.TargetDir)
	fmt.Fprintf(w, "environment: %s (%s)\n", r.Environment, r.EnvironmentDir)
	fmt.Fprintf(w, "packages_installed: %d\n", r.PackagesInstalled)
	fmt.Fprintf(w, "manifest: %s (%d packages)\n", r.Manifest, r.ManifestEntries)
	fmt.Fprintf(w, "gitignore: %s\n", r.Gitignore)
	fmt.Fprintf(w, "env_file: %s (%s)\n", r.Secrets, r.SecretMode)
	fmt.Fprintf(w, "notes: %s\n", r.Notes)
	fmt.Fprintf(w, "readme: %s\n", r.Readme)
	if r.LicenseKind != "" {
		fmt.Fprintf(w, "license: %s (%s)\n", r.License, r.LicenseKind)
	} else {
		fmt.Fprintf(w, "license: %s\n", r.License)
	}
	fmt.Fprintf(w, "memory: %s\n", r.Memory)
	fmt.Fprintf(w, "opinions: %s\n", r.Opinions)
	fmt.Fprintf(w, "opinions_seeded: %s\n", orNone(strings.Join(r.SeededOpinions, ", ")))
	for _, c := range r.Commands {
		fmt.Fprintf(w, "command: %s %s\n", c.Name, c.State)
	}
}

func invalidFlag(flag string, err error) error {
	return errors.WrapWithDetails(errors.EUsage, "invalid --"+flag+": "+err.Error(), err, map[string]string{"flag": flag})
}
