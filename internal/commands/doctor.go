package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/NielsdaWheelz/gemkit/internal/config"
	"github.com/NielsdaWheelz/gemkit/internal/dotenv"
	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/exec"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/gemini"
	"github.com/NielsdaWheelz/gemkit/internal/manifest"
	"github.com/NielsdaWheelz/gemkit/internal/paths"
	"github.com/NielsdaWheelz/gemkit/internal/render"
	"github.com/NielsdaWheelz/gemkit/internal/scaffold"
	"github.com/NielsdaWheelz/gemkit/internal/venv"
	"github.com/NielsdaWheelz/gemkit/internal/version"
)

// DoctorDeps are the collaborators of the doctor command.
type DoctorDeps struct {
	Runner   exec.CommandRunner
	FS       fs.FS
	Dirs     paths.Dirs
	Verifier gemini.KeyVerifier // defaults to the Gemini API bounded by fetch_timeout
	Logger   *slog.Logger
	GOOS     string
}

// DoctorOpts holds options for the doctor command.
type DoctorOpts struct {
	VerifyKey  bool
	ConfigFile string
	JSON       bool
}

// DoctorReport holds all the data for doctor output.
type DoctorReport struct {
	Workspace  string
	ConfigFile string
	CacheDir   string

	// Tooling
	NodeVersion   string
	NPMVersion    string
	CLIVersion    string
	PythonVersion string

	// Workspace
	Environment     string
	ManifestEntries int
	PackageVersions []PackageVersion // configured packages found in the manifest
	MissingPackages []string
	Files           []FileCheck
	SecretKey       string
	SecretState     dotenv.KeyState
	KeyVerified     string // "skipped", "true" or "false"

	Problems []Problem
}

// FileCheck is the presence of one scaffolded artifact.
type FileCheck struct {
	Name    string
	Present bool
}

// PackageVersion is a configured package and its pinned version.
type PackageVersion struct {
	Name    string
	Version string
}

// Problem is one failed check.
type Problem struct {
	Code    errors.Code
	Message string
}

// Doctor implements `gemkit doctor [dir]`. It never writes. Every check
// runs; the first problem's code is returned after the full report is
// printed.
func Doctor(ctx context.Context, deps DoctorDeps, dir string, opts DoctorOpts, stdout io.Writer) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.WrapWithDetails(errors.EFS, "invalid workspace directory", err, map[string]string{"path": dir})
	}

	cfg, err := loadConfig(deps.FS, deps.Dirs, config.ProjectFile(root), opts.ConfigFile)
	if err != nil {
		return err
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Verifier == nil {
		deps.Verifier = &gemini.Verifier{Timeout: cfg.FetchTimeout.Std()}
	}

	d := &doctorRun{deps: deps, cfg: cfg, root: root}
	r := &d.report
	r.Workspace = root
	r.ConfigFile = deps.Dirs.ConfigFile()
	r.CacheDir = deps.Dirs.CacheDir

	d.checkTools(ctx)
	d.checkEnvironment(ctx)
	d.checkFiles()
	d.checkSecret(ctx, opts.VerifyKey)

	if opts.JSON {
		if err := render.WriteDoctorJSON(stdout, doctorJSON(d.report)); err != nil {
			return errors.Wrap(errors.EInternal, "failed to write JSON output", err)
		}
	} else {
		writeDoctorOutput(stdout, d.report)
	}

	if len(r.Problems) > 0 {
		first := r.Problems[0]
		return errors.NewWithDetails(first.Code, fmt.Sprintf("%d problem(s) found; first: %s", len(r.Problems), first.Message),
			map[string]string{"workspace": root})
	}
	return nil
}

type doctorRun struct {
	deps   DoctorDeps
	cfg    config.Config
	root   string
	report DoctorReport
}

func (d *doctorRun) problem(code errors.Code, msg string) {
	d.deps.Logger.Debug("check failed", "code", string(code), "problem", msg)
	d.report.Problems = append(d.report.Problems, Problem{Code: code, Message: msg})
}

// toolVersion returns the first line of `name args...`, or "" if the
// command is missing or fails.
func (d *doctorRun) toolVersion(ctx context.Context, name string, args ...string) string {
	res, err := d.deps.Runner.Run(ctx, name, args, exec.RunOpts{Timeout: d.cfg.CommandTimeout.Std()})
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		out = strings.TrimSpace(res.Stderr) // python 2 prints its version on stderr
	}
	first, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(first)
}

func (d *doctorRun) checkTools(ctx context.Context) {
	r := &d.report

	r.NodeVersion = d.toolVersion(ctx, "node", "--version")
	switch v, err := version.Parse(r.NodeVersion); {
	case r.NodeVersion == "":
		d.problem(errors.EToolNotFound, "node is not installed or not on PATH; run 'gemkit install'")
	case err != nil:
		d.problem(errors.EToolNotFound, fmt.Sprintf("unrecognized node version %q", r.NodeVersion))
	case !v.AtLeast(version.MustParse(d.cfg.RuntimeMinVersion)):
		d.problem(errors.EToolNotFound, fmt.Sprintf("node %s is older than %s; run 'gemkit install'", v, d.cfg.RuntimeMinVersion))
	}

	r.NPMVersion = d.toolVersion(ctx, "npm", "--version")
	if r.NPMVersion == "" {
		d.problem(errors.EToolNotFound, "npm is not installed or not on PATH")
	}

	r.CLIVersion = d.toolVersion(ctx, d.cfg.CLICommand, "--version")
	if r.CLIVersion == "" {
		d.problem(errors.EVerify, d.cfg.CLICommand+" is not callable; ensure the npm global install location is on PATH")
	}

	r.PythonVersion = d.toolVersion(ctx, d.cfg.Python, "--version")
	if r.PythonVersion == "" {
		d.problem(errors.EToolNotFound, d.cfg.Python+" is not installed or not on PATH")
	}
}

func (d *doctorRun) checkEnvironment(ctx context.Context) {
	r := &d.report
	envDir := filepath.Join(d.root, d.cfg.EnvironmentName)
	goos := d.deps.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	interp := venv.InterpreterPath(envDir, goos)
	ok, err := fs.Exists(d.deps.FS, interp)
	switch {
	case err != nil:
		r.Environment = "missing"
		d.problem(errors.EFS, "cannot check "+interp+": "+err.Error())
	case ok:
		r.Environment = envDir
	default:
		r.Environment = "missing"
		d.problem(errors.EEnvCreate, "environment "+d.cfg.EnvironmentName+" is missing or broken; run 'gemkit init'")
	}

	data, err := d.deps.FS.ReadFile(filepath.Join(d.root, manifest.FileName))
	if err != nil {
		if !os.IsNotExist(err) {
			d.problem(errors.EManifest, "cannot read "+manifest.FileName+": "+err.Error())
		} else {
			d.problem(errors.EManifest, manifest.FileName+" is missing; run 'gemkit init'")
		}
		return
	}
	m, err := manifest.Parse(data)
	if err != nil {
		d.problem(errors.EManifest, err.Error())
		return
	}
	r.ManifestEntries = m.Len()
	for _, pkg := range d.cfg.Packages() {
		v, ok := m.Version(pkg)
		if !ok {
			r.MissingPackages = append(r.MissingPackages, pkg)
			continue
		}
		r.PackageVersions = append(r.PackageVersions, PackageVersion{Name: pkg, Version: v})
	}
	if len(r.MissingPackages) > 0 {
		d.problem(errors.EPackageInstall, "manifest is missing "+strings.Join(r.MissingPackages, ", "))
	}
}

func (d *doctorRun) checkFiles() {
	names := []string{
		scaffold.GitignoreFile,
		scaffold.SecretsFile,
		scaffold.NotesFile,
		scaffold.ReadmeFile,
		scaffold.LicenseFile,
		scaffold.MemoryDir,
		scaffold.OpinionsDir,
	}
	for _, c := range scaffold.CommandTemplates() {
		names = append(names, scaffold.CommandsDir+"/"+c.Name)
	}

	var missing []string
	for _, name := range names {
		path := filepath.Join(d.root, filepath.FromSlash(name))
		ok, err := fs.Exists(d.deps.FS, path)
		d.report.Files = append(d.report.Files, FileCheck{Name: name, Present: ok})
		if err != nil {
			// Unreadable is not missing; init would fail on it too.
			d.problem(errors.EFS, "cannot check "+path+": "+err.Error())
			continue
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		d.problem(errors.EFS, "missing "+strings.Join(missing, ", ")+"; run 'gemkit init'")
	}
}

func (d *doctorRun) checkSecret(ctx context.Context, verify bool) {
	r := &d.report
	r.SecretKey = d.cfg.SecretKey
	r.KeyVerified = "skipped"

	path := filepath.Join(d.root, scaffold.SecretsFile)
	state, err := dotenv.Lookup(d.deps.FS, path, d.cfg.SecretKey, config.SecretPlaceholder)
	if err != nil {
		d.problem(errors.ESecret, "cannot parse .env: "+err.Error())
		return
	}
	r.SecretState = state
	if state != dotenv.KeySet {
		d.problem(errors.ESecret, d.cfg.SecretKey+" is "+string(state)+" in .env; run 'gemkit init --prompt-secret'")
		return
	}
	if !verify {
		return
	}

	key, _, err := dotenv.Value(d.deps.FS, path, d.cfg.SecretKey)
	if err == nil {
		err = d.deps.Verifier.VerifyKey(ctx, key, d.cfg.Model)
	}
	if err != nil {
		r.KeyVerified = "false"
		d.problem(errors.EKeyVerifyFailed, "API key rejected: "+err.Error())
		return
	}
	r.KeyVerified = "true"
}

// writeDoctorOutput writes the stable key: value output.
func writeDoctorOutput(w io.Writer, r DoctorReport) {
	fmt.Fprintf(w, "workspace: %s\n", r.Workspace)
	fmt.Fprintf(w, "config_file: %s\n", r.ConfigFile)
	fmt.Fprintf(w, "cache_dir: %s\n", r.CacheDir)

	fmt.Fprintf(w, "node_version: %s\n", orMissing(r.NodeVersion))
	fmt.Fprintf(w, "npm_version: %s\n", orMissing(r.NPMVersion))
	fmt.Fprintf(w, "cli_version: %s\n", orMissing(r.CLIVersion))
	fmt.Fprintf(w, "python_version: %s\n", orMissing(r.PythonVersion))

	fmt.Fprintf(w, "environment: %s\n", r.Environment)
	fmt.Fprintf(w, "manifest_packages: %d\n", r.ManifestEntries)
	for _, p := range r.PackageVersions {
		fmt.Fprintf(w, "package: %s %s\n", p.Name, p.Version)
	}
	fmt.Fprintf(w, "manifest_missing: %s\n", orNone(strings.Join(r.MissingPackages, ", ")))
	for _, f := range r.Files {
		fmt.Fprintf(w, "file: %s %s\n", f.Name, presence(f.Present))
	}
	fmt.Fprintf(w, "secret: %s %s\n", r.SecretKey, orMissing(string(r.SecretState)))
	fmt.Fprintf(w, "key_verified: %s\n", r.KeyVerified)

	for _, p := range r.Problems {
		fmt.Fprintf(w, "problem: %s: %s\n", p.Code, p.Message)
	}
	if len(r.Problems) == 0 {
		fmt.Fprintln(w, "status: ok")
	} else {
		fmt.Fprintln(w, "status: problems")
	}
}

// doctorJSON converts the report to its JSON contract.
func doctorJSON(r DoctorReport) *render.DoctorJSON {
	out := &render.DoctorJSON{
		Workspace:  r.Workspace,
		ConfigFile: r.ConfigFile,
		CacheDir:   r.CacheDir,
		Tools: render.ToolsJSON{
			Node:   render.NullableString(r.NodeVersion),
			NPM:    render.NullableString(r.NPMVersion),
			CLI:    render.NullableString(r.CLIVersion),
			Python: render.NullableString(r.PythonVersion),
		},
		Manifest: render.ManifestJSON{
			Packages: r.ManifestEntries,
			Versions: make(map[string]string, len(r.PackageVersions)),
			Missing:  r.MissingPackages,
		},
		Files: make(map[string]bool, len(r.Files)),
		Secret: render.SecretJSON{
			Key:   r.SecretKey,
			State: orMissing(string(r.SecretState)),
		},
		OK: len(r.Problems) == 0,
	}
	if r.Environment != "missing" {
		out.Environment = render.NullableString(r.Environment)
	}
	for _, p := range r.PackageVersions {
		out.Manifest.Versions[p.Name] = p.Version
	}
	for _, f := range r.Files {
		out.Files[f.Name] = f.Present
	}
	if r.KeyVerified != "skipped" {
		verified := r.KeyVerified == "true"
		out.Secret.Verified = &verified
	}
	for _, p := range r.Problems {
		out.Problems = append(out.Problems, render.ProblemJSON{Code: string(p.Code), Message: p.Message})
	}
	return out
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}

func orMissing(s string) string {
	if s == "" {
		return "missing"
	}
	return s
}
