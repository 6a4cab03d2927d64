package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/NielsdaWheelz/gemkit/internal/exec"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/installer"
	"github.com/NielsdaWheelz/gemkit/internal/lock"
	"github.com/NielsdaWheelz/gemkit/internal/pathenv"
	"github.com/NielsdaWheelz/gemkit/internal/paths"
	"github.com/NielsdaWheelz/gemkit/internal/privilege"
	"github.com/NielsdaWheelz/gemkit/internal/version"
)

// InstallDeps are the collaborators of the install command.
type InstallDeps struct {
	Runner         exec.CommandRunner
	FS             fs.FS
	Dirs           paths.Dirs
	Downloader     installer.Downloader
	CheckPrivilege privilege.Checker
	RefreshPath    pathenv.Refresher
	Logger         *slog.Logger

	GOOS, GOARCH string // default to the running platform
}

// InstallOpts holds options for the install command.
type InstallOpts struct {
	ConfigFile string
	MinVersion string // overrides runtime_min_version
}

// Install implements `gemkit install`.
func Install(ctx context.Context, deps InstallDeps, opts InstallOpts, stdout io.Writer) error {
	// Privilege comes before anything else, config and lock dir included;
	// Ensure checks again as its first step.
	if err := privilege.Require(deps.CheckPrivilege); err != nil {
		return err
	}

	cfg, err := loadConfig(deps.FS, deps.Dirs, opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.MinVersion != "" {
		cfg.RuntimeMinVersion = opts.MinVersion
	}
	required, err := version.Parse(cfg.RuntimeMinVersion)
	if err != nil {
		return invalidFlag("min-version", err)
	}

	goos, goarch := deps.GOOS, deps.GOARCH
	if goos == "" {
		goos, goarch = runtime.GOOS, runtime.GOARCH
	}

	in := &installer.Installer{
		Runner:         deps.Runner,
		FS:             deps.FS,
		Downloader:     deps.Downloader,
		CheckPrivilege: deps.CheckPrivilege,
		RefreshPath:    deps.RefreshPath,
		Platform:       installer.PlatformFor(goos, goarch),
		DownloadDir:    deps.Dirs.DownloadDir(),
		CLIPackage:     cfg.CLIPackage,
		CLICommand:     cfg.CLICommand,
		Timeout:        cfg.CommandTimeout.Std(),
		Logger:         deps.Logger,
	}

	unlock, err := acquireLock(deps.Dirs, lock.InstallKey, "runtime install", "install")
	if err != nil {
		return err
	}
	defer releaseLock(unlock, deps.Logger)

	out, err := in.Ensure(ctx, required)
	writeWarnings(stdout, out.Warnings)
	if err != nil {
		return err
	}
	writeInstallOutput(stdout, out, cfg.CLIPackage)
	return nil
}

// writeInstallOutput writes the stable key: value output for install.
func writeInstallOutput(w io.Writer, o installer.Outcome, pkg string) {
	fmt.Fprintf(w, "previous_version: %s\n", o.PreviousVersion)
	fmt.Fprintf(w, "required_version: %s\n", o.RequiredVersion)
	fmt.Fprintf(w, "current_version: %s\n", o.CurrentVersion)
	fmt.Fprintf(w, "upgraded: %s\n", boolStr(o.Upgraded))
	fmt.Fprintf(w, "method: %s\n", o.Method)
	fmt.Fprintf(w, "path_added: %s\n", orNone(strings.Join(o.PathAdded, ", ")))
	fmt.Fprintf(w, "cli_package: %s\n", pkg)
	fmt.Fprintf(w, "cli_version: %s\n", o.ToolVersion)
}
