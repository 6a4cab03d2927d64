// Package installer ensures the Node.js runtime meets a minimum version,
// brings npm up to date, and installs the Gemini CLI globally.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/exec"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/pathenv"
	"github.com/NielsdaWheelz/gemkit/internal/pipeline"
	"github.com/NielsdaWheelz/gemkit/internal/privilege"
	"github.com/NielsdaWheelz/gemkit/internal/version"
)

// Step names, in execution order.
const (
	StepPrivilege   = "privilege"
	StepDetect      = "detect-runtime"
	StepUpgrade     = "upgrade-runtime"
	StepRefreshPath = "refresh-path"
	StepUpdateNPM   = "update-npm"
	StepInstallCLI  = "install-cli"
	StepVerify      = "verify-cli"
)

// Upgrade methods reported in Outcome.Method.
const (
	MethodSkipped   = "skipped"
	MethodInstaller = "installer"
)

const stderrLines = 5

// Downloader stores a remote artifact in a local temp file.
type Downloader interface {
	Download(ctx context.Context, fsys fs.FS, url, dir, pattern string) (string, error)
}

// Installer holds the collaborators for one Ensure run.
type Installer struct {
	Runner         exec.CommandRunner
	FS             fs.FS
	Downloader     Downloader
	CheckPrivilege privilege.Checker
	RefreshPath    pathenv.Refresher
	Platform       Platform

	DistURL     string // defaults to DefaultDistURL
	DownloadDir string
	CLIPackage  string
	CLICommand  string
	Timeout     time.Duration // per subprocess; zero is unbounded
	Logger      *slog.Logger
}

// Outcome reports what Ensure did.
type Outcome struct {
	PreviousVersion version.Runtime
	RequiredVersion version.Runtime
	CurrentVersion  version.Runtime
	Upgraded        bool
	Method          string
	PathAdded       []string
	ToolVersion     string
	Warnings        []pipeline.Warning
}

// Ensure runs the install sequence. The privilege check runs first; when
// it fails nothing else is executed.
func (in *Installer) Ensure(ctx context.Context, required version.Runtime) (Outcome, error) {
	logger := in.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	run := &installRun{in: in, logger: logger, warnings: pipeline.NewWarnings(logger)}
	run.out.RequiredVersion = required

	p := pipeline.New(logger,
		pipeline.Step{Name: StepPrivilege, Run: run.privilege},
		pipeline.Step{Name: StepDetect, Run: run.detect},
		pipeline.Step{Name: StepUpgrade, Run: run.upgrade},
		pipeline.Step{Name: StepRefreshPath, Run: run.refreshPath},
		pipeline.Step{Name: StepUpdateNPM, Run: run.updateNPM},
		pipeline.Step{Name: StepInstallCLI, Run: run.installCLI},
		pipeline.Step{Name: StepVerify, Run: run.verify},
	)
	err := p.Run(ctx)
	run.out.Warnings = run.warnings.List()
	return run.out, err
}

type installRun struct {
	in       *Installer
	logger   *slog.Logger
	warnings *pipeline.Warnings
	out      Outcome
}

func (r *installRun) privilege(ctx context.Context) error {
	return privilege.Require(r.in.CheckPrivilege)
}

func (r *installRun) detect(ctx context.Context) error {
	r.out.PreviousVersion = r.nodeVersion(ctx)
	r.out.CurrentVersion = r.out.PreviousVersion
	r.logger.Info("runtime detected", "version", r.out.PreviousVersion.String(), "required", r.out.RequiredVersion.String())
	return nil
}

// nodeVersion returns the installed runtime version. A missing or failing
// binary is 0.0.0; unparseable output is 0.0.0 plus a warning.
func (r *installRun) nodeVersion(ctx context.Context) version.Runtime {
	res, err := r.in.Runner.Run(ctx, "node", []string{"--version"}, exec.RunOpts{Timeout: r.in.Timeout})
	if err != nil || res.ExitCode != 0 {
		return version.Zero
	}
	v, err := version.Parse(res.Stdout)
	if err != nil {
		r.warnings.Add(errors.ERuntimeInstall, fmt.Sprintf("unrecognized runtime version %q; treating as 0.0.0", strings.TrimSpace(res.Stdout)), err)
		return version.Zero
	}
	return v
}

func (r *installRun) upgrade(ctx context.Context) error {
	if r.out.PreviousVersion.AtLeast(r.out.RequiredVersion) {
		r.out.Method = MethodSkipped
		r.logger.Info("runtime is current; skipping upgrade")
		return nil
	}

	for _, pm := range r.in.Platform.PackageManagers {
		if _, err := r.in.Runner.LookPath(pm.Name); err != nil {
			continue
		}
		present := !r.out.PreviousVersion.IsZero()
		r.logger.Info("upgrading runtime", "method", "package-manager", "manager", pm.Name, "present", present)
		if pm.Refresh != nil {
			if err := r.runChecked(ctx, errors.ERuntimeInstall, "package index refresh failed", pm.Name, pm.Refresh); err != nil {
				return err
			}
		}
		if err := r.runChecked(ctx, errors.ERuntimeInstall, "runtime upgrade failed", pm.Name, pm.ArgsFor(present)); err != nil {
			return err
		}
		r.out.Method = "package-manager:" + pm.Name
		r.out.Upgraded = true
		return nil
	}

	return r.upgradeFromInstaller(ctx)
}

// upgradeFromInstaller downloads the official installer and runs it. The
// artifact is removed on every path out of this function.
func (r *installRun) upgradeFromInstaller(ctx context.Context) error {
	required := r.out.RequiredVersion
	name, ok := r.in.Platform.ArtifactName(required)
	if !ok {
		return errors.NewWithDetails(errors.ERuntimeInstall, "no package manager found and no installer published for this platform",
			map[string]string{"platform": r.in.Platform.GOOS + "/" + r.in.Platform.GOARCH})
	}

	base := r.in.DistURL
	if base == "" {
		base = DefaultDistURL
	}
	url := ArtifactURL(base, required, name)

	r.logger.Info("upgrading runtime", "method", MethodInstaller, "url", url)
	artifact, err := r.in.Downloader.Download(ctx, r.in.FS, url, r.in.DownloadDir, TempPattern(name))
	if err != nil {
		return errors.WrapWithDetails(errors.ERuntimeInstall, "failed to download runtime installer", err, map[string]string{"url": url})
	}
	defer func() {
		if err := r.in.FS.Remove(artifact); err != nil {
			r.warnings.Add(errors.EFS, "failed to remove installer artifact "+filepath.Base(artifact), err)
			return
		}
		r.logger.Debug("installer artifact removed", "path", artifact)
	}()

	cmd, args := r.in.Platform.InstallCommand(artifact)
	if err := r.runChecked(ctx, errors.ERuntimeInstall, "runtime installer failed", cmd, args); err != nil {
		return err
	}
	r.out.Method = MethodInstaller
	r.out.Upgraded = true
	return nil
}

func (r *installRun) refreshPath(ctx context.Context) error {
	added, err := r.in.RefreshPath()
	if err != nil {
		r.warnings.Add(errors.EFS, "failed to refresh PATH; a new shell may be needed", err)
	}
	r.out.PathAdded = added
	if len(added) > 0 {
		r.logger.Info("PATH refreshed", "added", strings.Join(added, ","))
	}

	if r.out.Upgraded {
		r.out.CurrentVersion = r.nodeVersion(ctx)
		if !r.out.CurrentVersion.AtLeast(r.out.RequiredVersion) {
			r.warnings.Add(errors.ERuntimeInstall, fmt.Sprintf("runtime reports %s after upgrade; %s required",
				r.out.CurrentVersion, r.out.RequiredVersion), nil)
		}
	}
	return nil
}

func (r *installRun) updateNPM(ctx context.Context) error {
	return r.runChecked(ctx, errors.ERuntimeInstall, "failed to update npm", "npm", []string{"install", "-g", "npm@latest"})
}

func (r *installRun) installCLI(ctx context.Context) error {
	return r.runChecked(ctx, errors.ERuntimeInstall, "failed to install "+r.in.CLIPackage,
		"npm", []string{"install", "-g", r.in.CLIPackage})
}

func (r *installRun) verify(ctx context.Context) error {
	args := []string{"--version"}
	res, err := r.in.Runner.Run(ctx, r.in.CLICommand, args, exec.RunOpts{Timeout: r.in.Timeout})
	if err != nil || res.ExitCode != 0 {
		details := map[string]string{"command": exec.FormatCommand(r.in.CLICommand, args)}
		if err == nil {
			details["exit_code"] = fmt.Sprintf("%d", res.ExitCode)
		}
		msg := fmt.Sprintf("%s is not callable after install; ensure the npm global install location is on PATH", r.in.CLICommand)
		return errors.WrapWithDetails(errors.EVerify, msg, err, details)
	}
	r.out.ToolVersion = strings.TrimSpace(res.Stdout)
	r.logger.Info("cli verified", "command", r.in.CLICommand, "version", r.out.ToolVersion)
	return nil
}

func (r *installRun) runChecked(ctx context.Context, code errors.Code, msg, name string, args []string) error {
	command := exec.FormatCommand(name, args)
	r.logger.Debug("running", "cmd", command)
	res, err := r.in.Runner.Run(ctx, name, args, exec.RunOpts{Timeout: r.in.Timeout})
	if err != nil {
		return errors.WrapWithDetails(code, msg, err, map[string]string{"command": command})
	}
	if res.ExitCode != 0 {
		details := map[string]string{"command": command, "exit_code": fmt.Sprintf("%d", res.ExitCode)}
		if tail := exec.Tail(res.Stderr, stderrLines); tail != "" {
			details["stderr"] = tail
		}
		return errors.NewWithDetails(code, msg, details)
	}
	return nil
}
