package commands

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/lock"
)

func initDeps(t *testing.T, r *stubRunner, f *stubFetcher) InitDeps {
	return InitDeps{
		Runner:  r,
		FS:      fs.NewRealFS(),
		Dirs:    testDirs(t),
		Fetcher: f,
		Now:     func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) },
		GOOS:    "linux",
	}
}

func TestInit_Demo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	r := newStubRunner(t)
	var stdout bytes.Buffer

	if err := Init(context.Background(), initDeps(t, r, &stubFetcher{body: "MIT License"}), dir, InitOpts{}, &stdout); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"workspace: " + dir + "\n",
		"environment: created (" + filepath.Join(dir, ".venv") + ")\n",
		"packages_installed: 3\n",
		"manifest: regenerated (3 packages)\n",
		"gitignore: created\n",
		"env_file: created (placeholder)\n",
		"license: created (full-text)\n",
		"opinions: created\n",
		"opinions_seeded: strengths.md, concerns.md, open_questions.md\n",
		"command: .gemini/commands/remember.toml created\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil || !strings.Contains(string(readme), "demo") {
		t.Errorf("README.md should name demo: %v", err)
	}
}

func TestInit_RerunReportsExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	deps := initDeps(t, newStubRunner(t), &stubFetcher{body: "MIT License"})
	var first, second bytes.Buffer

	if err := Init(context.Background(), deps, dir, InitOpts{}, &first); err != nil {
		t.Fatalf("first Init() error = %v", err)
	}
	if err := Init(context.Background(), deps, dir, InitOpts{}, &second); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}

	out := second.String()
	for _, want := range []string{
		"environment: exists",
		"gitignore: exists\n",
		"env_file: exists (untouched)\n",
		"license: exists\n",
		"opinions: exists\n",
		"opinions_seeded: none\n",
		"manifest: regenerated",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("second run output missing %q:\n%s", want, out)
		}
	}
}

func TestInit_OfflineLicenseWarns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	deps := initDeps(t, newStubRunner(t), &stubFetcher{err: stderrors.New("network is unreachable")})
	var stdout bytes.Buffer

	if err := Init(context.Background(), deps, dir, InitOpts{}, &stdout); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "warning: E_NETWORK_FETCH: ") {
		t.Errorf("missing network warning:\n%s", out)
	}
	if !strings.Contains(out, "license: created (minimal-header)\n") {
		t.Errorf("missing fallback license state:\n%s", out)
	}
}

func TestInit_ProjectConfigAndFlags(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	project := "environment_name: pyenv\nextra_packages: [rich]\nmodel: gemini-2.5-flash\n"
	if err := os.WriteFile(filepath.Join(dir, "gemkit.yaml"), []byte(project), 0644); err != nil {
		t.Fatal(err)
	}
	r := newStubRunner(t)
	var stdout bytes.Buffer

	opts := InitOpts{Packages: []string{"httpx"}}
	if err := Init(context.Background(), initDeps(t, r, &stubFetcher{body: "x"}), dir, opts, &stdout); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !r.ran("python3 -m venv " + filepath.Join(dir, "pyenv")) {
		t.Errorf("project environment_name ignored: %v", r.calls)
	}
	py := filepath.Join(dir, "pyenv", "bin", "python")
	for _, pkg := range []string{"rich", "httpx"} {
		if !r.ran(py + " -m pip install " + pkg) {
			t.Errorf("%s not installed: %v", pkg, r.calls)
		}
	}
	readme, _ := os.ReadFile(filepath.Join(dir, "README.md"))
	if !strings.Contains(string(readme), "gemini-2.5-flash") {
		t.Error("README.md does not use the configured model")
	}
}

func TestInit_InvalidProjectConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gemkit.yaml"), []byte("nonsense_key: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r := newStubRunner(t)
	var stdout bytes.Buffer

	err := Init(context.Background(), initDeps(t, r, &stubFetcher{}), dir, InitOpts{}, &stdout)
	if errors.GetCode(err) != errors.EInvalidConfig {
		t.Fatalf("err = %v, want E_INVALID_CONFIG", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("nothing may run with invalid config: %v", r.calls)
	}
}

func TestInit_InvalidPackageFlag(t *testing.T) {
	var stdout bytes.Buffer
	err := Init(context.Background(), initDeps(t, newStubRunner(t), &stubFetcher{}), t.TempDir(),
		InitOpts{Packages: []string{"two words"}}, &stdout)
	if errors.GetCode(err) != errors.EInvalidConfig {
		t.Fatalf("err = %v, want E_INVALID_CONFIG", err)
	}
}

func TestInit_PythonMissing(t *testing.T) {
	r := newStubRunner(t)
	r.missing["python3"] = true
	var stdout bytes.Buffer

	err := Init(context.Background(), initDeps(t, r, &stubFetcher{}), t.TempDir(), InitOpts{}, &stdout)
	ge, ok := errors.AsGemkitError(err)
	if !ok || ge.Code != errors.EEnvCreate {
		t.Fatalf("err = %v, want E_ENV_CREATE", err)
	}
	if ge.Details["step"] != "create-environment" {
		t.Errorf("step = %q", ge.Details["step"])
	}
}

func TestInit_WorkspaceLocked(t *testing.T) {
	dir := t.TempDir()
	deps := initDeps(t, newStubRunner(t), &stubFetcher{body: "x"})

	unlock, err := lock.New(deps.Dirs.LockDir()).Lock(lock.WorkspaceKey(dir), dir, "init")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	var stdout bytes.Buffer
	err = Init(context.Background(), deps, dir, InitOpts{}, &stdout)
	if errors.GetCode(err) != errors.ELocked {
		t.Fatalf("err = %v, want E_LOCKED", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("locked init wrote into the workspace: %v", entries)
	}
}
