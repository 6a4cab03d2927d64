// Package bootstrap prepares a project directory for the Gemini CLI: a
// Python environment with the default packages, a package manifest, the
// scaffold files and the .env credential file. Every step is gated on
// what already exists, so a second run changes nothing but the manifest.
package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/NielsdaWheelz/gemkit/internal/config"
	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/exec"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/manifest"
	"github.com/NielsdaWheelz/gemkit/internal/pipeline"
	"github.com/NielsdaWheelz/gemkit/internal/scaffold"
	"github.com/NielsdaWheelz/gemkit/internal/secret"
	"github.com/NielsdaWheelz/gemkit/internal/venv"
)

// Step names, in execution order.
const (
	StepWorkspace   = "workspace"
	StepEnvironment = "create-environment"
	StepUpgradePip  = "upgrade-pip"
	StepPackages    = "install-packages"
	StepManifest    = "write-manifest"
	StepGitignore   = "gitignore"
	StepSecrets     = "secrets"
	StepNotes       = "notes"
	StepReadme      = "readme"
	StepLicense     = "license"
	StepDirs        = "workspace-dirs"
	StepCommands    = "gemini-commands"
)

// Secret modes reported in Result.SecretMode.
const (
	SecretPrompted    = "prompted"
	SecretPlaceholder = "placeholder"
	SecretUntouched   = "untouched"
)

// Options are the per-run choices; zero values fall back to Config.
type Options struct {
	EnvironmentName string
	ExtraPackages   []string
	PromptForSecret bool
}

// Bootstrapper holds the collaborators for Run.
type Bootstrapper struct {
	Config   config.Config
	Runner   exec.CommandRunner
	FS       fs.FS
	Fetcher  scaffold.Fetcher
	Prompter secret.Prompter
	Logger   *slog.Logger
	Now      func() time.Time // defaults to time.Now
	GOOS     string           // defaults to runtime.GOOS
}

// Result reports the state of every artifact after Run.
type Result struct {
	TargetDir         string
	EnvironmentDir    string
	Environment       scaffold.State
	PackagesInstalled int
	Manifest          scaffold.State
	ManifestEntries   int
	Gitignore         scaffold.State
	Secrets           scaffold.State
	SecretMode        string
	Notes             scaffold.State
	Readme            scaffold.State
	License           scaffold.State
	LicenseKind       string // empty when LICENSE already existed
	Memory            scaffold.State
	Opinions          scaffold.State
	SeededOpinions    []string
	Commands          []CommandState
	Warnings          []pipeline.Warning
}

// CommandState is the state of one .gemini/commands file.
type CommandState struct {
	Name  string
	State scaffold.State
}

// Run executes the bootstrap steps against targetDir in order, stopping at
// the first fatal error. Network problems degrade to warnings.
func (b *Bootstrapper) Run(ctx context.Context, targetDir string, opts Options) (Result, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	root, err := filepath.Abs(targetDir)
	if err != nil {
		return Result{}, errors.WrapWithDetails(errors.EFS, "invalid target directory", err, map[string]string{"path": targetDir})
	}

	cfg := b.Config
	if opts.EnvironmentName != "" {
		cfg.EnvironmentName = opts.EnvironmentName
	}
	cfg.ExtraPackages = append(append([]string{}, cfg.ExtraPackages...), opts.ExtraPackages...)

	run := &bootstrapRun{
		b:        b,
		cfg:      cfg,
		opts:     opts,
		root:     root,
		logger:   logger,
		warnings: pipeline.NewWarnings(logger),
		venv: &venv.Manager{
			Runner:  b.Runner,
			FS:      b.FS,
			Python:  cfg.Python,
			Timeout: cfg.CommandTimeout.Std(),
			Logger:  logger,
			GOOS:    b.goos(),
		},
	}
	run.result.TargetDir = root
	run.result.EnvironmentDir = filepath.Join(root, cfg.EnvironmentName)

	p := pipeline.New(logger,
		pipeline.Step{Name: StepWorkspace, Run: run.workspace},
		pipeline.Step{Name: StepEnvironment, Run: run.environment},
		pipeline.Step{Name: StepUpgradePip, Run: run.upgradePip},
		pipeline.Step{Name: StepPackages, Run: run.packages},
		pipeline.Step{Name: StepManifest, Run: run.writeManifest},
		pipeline.Step{Name: StepGitignore, Run: run.gitignore},
		pipeline.Step{Name: StepSecrets, Run: run.secrets},
		pipeline.Step{Name: StepNotes, Run: run.notes},
		pipeline.Step{Name: StepReadme, Run: run.readme},
		pipeline.Step{Name: StepLicense, Run: run.license},
		pipeline.Step{Name: StepDirs, Run: run.dirs},
		pipeline.Step{Name: StepCommands, Run: run.commands},
	)
	err = p.Run(ctx)
	run.result.Warnings = run.warnings.List()
	return run.result, err
}

func (b *Bootstrapper) goos() string {
	if b.GOOS != "" {
		return b.GOOS
	}
	return runtime.GOOS
}

func (b *Bootstrapper) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

type bootstrapRun struct {
	b        *Bootstrapper
	cfg      config.Config
	opts     Options
	root     string
	logger   *slog.Logger
	warnings *pipeline.Warnings
	venv     *venv.Manager
	env      venv.Env
	result   Result
}

func (r *bootstrapRun) path(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

func fsError(msg, path string, err error) error {
	return errors.WrapWithDetails(errors.EFS, msg, err, map[string]string{"path": path})
}

// failedPath returns the path an *os.PathError names, or fallback.
func failedPath(err error, fallback string) string {
	var pe *os.PathError
	if stderrors.As(err, &pe) && pe.Path != "" {
		return pe.Path
	}
	return fallback
}

// logState records a scaffold outcome; existing artifacts log as skipped.
func (r *bootstrapRun) logState(artifact string, state scaffold.State) {
	if state == scaffold.StateExists {
		r.logger.Info("skipped", "artifact", artifact, "reason", "exists")
		return
	}
	r.logger.Info(string(state), "artifact", artifact)
}

func (r *bootstrapRun) workspace(ctx context.Context) error {
	if _, err := fs.EnsureDir(r.b.FS, r.root, 0755); err != nil {
		return fsError("failed to create target directory", r.root, err)
	}
	return nil
}

func (r *bootstrapRun) environment(ctx context.Context) error {
	env, created, err := r.venv.Ensure(ctx, r.result.EnvironmentDir)
	if err != nil {
		return err
	}
	r.env = env
	r.result.Environment = scaffold.StateOf(created)
	r.logState(r.cfg.EnvironmentName, r.result.Environment)
	return nil
}

func (r *bootstrapRun) upgradePip(ctx context.Context) error {
	return r.venv.UpgradePip(ctx, r.env)
}

func (r *bootstrapRun) packages(ctx context.Context) error {
	n, err := r.venv.Install(ctx, r.env, r.cfg.Packages())
	r.result.PackagesInstalled = n
	return err
}

func (r *bootstrapRun) writeManifest(ctx context.Context) error {
	list, err := r.venv.List(ctx, r.env)
	if err != nil {
		return err
	}
	data, err := manifest.Marshal(list)
	if err != nil {
		return errors.Wrap(errors.EManifest, "failed to encode manifest", err)
	}
	path := r.path(manifest.FileName)
	if err := fs.WriteFileAtomic(r.b.FS, path, data, 0644); err != nil {
		return fsError("failed to write manifest", path, err)
	}
	r.result.Manifest = scaffold.StateRegenerated
	r.result.ManifestEntries = list.Len()
	r.logger.Info("manifest regenerated", "packages", list.Len())
	return nil
}

func (r *bootstrapRun) gitignore(ctx context.Context) error {
	state, err := r.writeScaffold(scaffold.GitignoreFile, []byte(scaffold.GitignoreTemplate))
	r.result.Gitignore = state
	return err
}

func (r *bootstrapRun) notes(ctx context.Context) error {
	state, err := r.writeScaffold(scaffold.NotesFile, []byte(scaffold.NotesTemplate))
	r.result.Notes = state
	return err
}

func (r *bootstrapRun) readme(ctx context.Context) error {
	content := scaffold.RenderReadme(scaffold.ReadmeData{
		Project:      filepath.Base(r.root),
		Environment:  r.cfg.EnvironmentName,
		Model:        r.cfg.Model,
		OutputFormat: r.cfg.OutputFormat,
	})
	state, err := r.writeScaffold(scaffold.ReadmeFile, []byte(content))
	r.result.Readme = state
	return err
}

// license never fetches when LICENSE exists.
func (r *bootstrapRun) license(ctx context.Context) error {
	path := r.path(scaffold.LicenseFile)
	exists, err := fs.Exists(r.b.FS, path)
	if err != nil {
		return fsError("failed to stat license", path, err)
	}
	if exists {
		r.result.License = scaffold.StateExists
		r.logState(scaffold.LicenseFile, scaffold.StateExists)
		return nil
	}

	producer, fetchErr := scaffold.SelectLicense(ctx, r.b.Fetcher, r.cfg.LicenseURL, r.cfg.LicenseID)
	if fetchErr != nil {
		r.warnings.Add(errors.ENetworkFetch,
			fmt.Sprintf("license text unavailable; wrote %s identifier header instead", r.cfg.LicenseID), fetchErr)
	}
	state, err := r.writeScaffold(scaffold.LicenseFile, producer.Render(r.b.now().Year()))
	r.result.License = state
	r.result.LicenseKind = producer.Kind()
	return err
}

func (r *bootstrapRun) dirs(ctx context.Context) error {
	res, err := scaffold.EnsureWorkspaceDirs(r.b.FS, r.root)
	if err != nil {
		return fsError("failed to create workspace directories", failedPath(err, r.root), err)
	}
	r.result.Memory = res.Memory
	r.result.Opinions = res.Opinions
	r.result.SeededOpinions = res.Seeded
	r.logState(scaffold.MemoryDir, res.Memory)
	r.logState(scaffold.OpinionsDir, res.Opinions)
	return nil
}

func (r *bootstrapRun) commands(ctx context.Context) error {
	for _, c := range scaffold.CommandTemplates() {
		rel := scaffold.CommandsDir + "/" + c.Name
		state, err := r.writeScaffold(rel, []byte(c.Content))
		if err != nil {
			return err
		}
		r.result.Commands = append(r.result.Commands, CommandState{Name: rel, State: state})
	}
	return nil
}

func (r *bootstrapRun) writeScaffold(rel string, content []byte) (scaffold.State, error) {
	state, err := scaffold.WriteFile(r.b.FS, r.root, rel, content)
	if err != nil {
		return "", fsError("failed to write "+rel, failedPath(err, r.path(rel)), err)
	}
	r.logState(rel, state)
	return state, nil
}
