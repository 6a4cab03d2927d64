package commands

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NielsdaWheelz/gemkit/internal/exec"
	"github.com/NielsdaWheelz/gemkit/internal/paths"
	"github.com/NielsdaWheelz/gemkit/internal/venv"
)

// stubRunner answers known command lines and simulates venv and pip.
type stubRunner struct {
	t       *testing.T
	results map[string]exec.CmdResult
	missing map[string]bool
	calls   []string
}

func newStubRunner(t *testing.T) *stubRunner {
	return &stubRunner{t: t, results: map[string]exec.CmdResult{}, missing: map[string]bool{}}
}

func (s *stubRunner) Run(ctx context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	s.calls = append(s.calls, line)
	if s.missing[name] {
		return exec.CmdResult{ExitCode: -1}, stderrors.New("executable file not found in $PATH")
	}
	if res, ok := s.results[line]; ok {
		return res, nil
	}
	switch {
	case len(args) == 3 && args[1] == "venv":
		py := venv.InterpreterPath(args[2], "linux")
		if err := os.MkdirAll(filepath.Dir(py), 0755); err != nil {
			s.t.Fatal(err)
		}
		if err := os.WriteFile(py, nil, 0755); err != nil {
			s.t.Fatal(err)
		}
	case strings.HasSuffix(line, "pip list --format=json"):
		return exec.CmdResult{Stdout: `[{"name":"google-genai","version":"1.0.0"},{"name":"python-dotenv","version":"1.0.1"},{"name":"PyYAML","version":"6.0.2"}]`}, nil
	}
	return exec.CmdResult{}, nil
}

func (s *stubRunner) LookPath(name string) (string, error) {
	return "", stderrors.New("not found")
}

func (s *stubRunner) ran(prefix string) bool {
	for _, c := range s.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

type stubFetcher struct {
	body string
	err  error
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return []byte(f.body), f.err
}

// testDirs points the global config and cache into a temp dir.
func testDirs(t *testing.T) paths.Dirs {
	t.Helper()
	base := t.TempDir()
	return paths.Dirs{ConfigDir: filepath.Join(base, "config"), CacheDir: filepath.Join(base, "cache")}
}
