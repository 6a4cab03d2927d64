package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NielsdaWheelz/gemkit/internal/fs"
)

type stubFetcher struct {
	body []byte
	err  error
	urls []string
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	s.urls = append(s.urls, url)
	return s.body, s.err
}

func TestSelectLicense_FullText(t *testing.T) {
	f := &stubFetcher{body: []byte("MIT License\n\nPermission is hereby granted...\n")}
	producer, err := SelectLicense(context.Background(), f, "https://example.test/MIT.txt", "MIT")
	if err != nil {
		t.Fatalf("SelectLicense() error = %v", err)
	}
	if producer.Kind() != "full-text" {
		t.Errorf("Kind() = %q, want full-text", producer.Kind())
	}
	got := string(producer.Render(2026))
	if !strings.HasPrefix(got, "Copyright (c) 2026 The Project Authors\n\n") {
		t.Errorf("missing copyright header: %q", got)
	}
	if !strings.Contains(got, "Permission is hereby granted") {
		t.Errorf("missing license body: %q", got)
	}
	if len(f.urls) != 1 || f.urls[0] != "https://example.test/MIT.txt" {
		t.Errorf("fetched %v", f.urls)
	}
}

func TestSelectLicense_FallbackOnError(t *testing.T) {
	f := &stubFetcher{err: errors.New("dial tcp: no route to host")}
	producer, err := SelectLicense(context.Background(), f, "https://example.test/MIT.txt", "MIT")
	if err == nil {
		t.Fatal("expected the fetch error to be reported")
	}
	if producer == nil || producer.Kind() != "minimal-header" {
		t.Fatalf("producer = %v, want minimal-header", producer)
	}
	want := "Copyright (c) 2026 The Project Authors\n\nSPDX-License-Identifier: MIT\n"
	if got := string(producer.Render(2026)); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestSelectLicense_FallbackOnEmptyBody(t *testing.T) {
	f := &stubFetcher{body: []byte("  \n")}
	producer, err := SelectLicense(context.Background(), f, "https://example.test/MIT.txt", "Apache-2.0")
	if err == nil {
		t.Fatal("expected an error for an empty body")
	}
	if !strings.Contains(string(producer.Render(2026)), "SPDX-License-Identifier: Apache-2.0") {
		t.Errorf("fallback should carry the configured identifier")
	}
}

func TestRenderReadme(t *testing.T) {
	got := RenderReadme(ReadmeData{Project: "demo", Environment: ".venv", Model: "gemini-2.5-pro", OutputFormat: "json"})
	for _, want := range []string{"# demo\n", "source .venv/bin/activate", "gemini -m gemini-2.5-pro --output-format json"} {
		if !strings.Contains(got, want) {
			t.Errorf("README missing %q", want)
		}
	}
	if strings.Contains(got, "{{") {
		t.Errorf("README has unrendered placeholders:\n%s", got)
	}
}

func TestCommandTemplates_TakeArgs(t *testing.T) {
	for _, c := range CommandTemplates() {
		if !strings.HasSuffix(c.Name, ".toml") {
			t.Errorf("%s: want .toml name", c.Name)
		}
		if !strings.Contains(c.Content, "{{args}}") || !strings.HasPrefix(c.Content, "description = ") {
			t.Errorf("%s: malformed command file", c.Name)
		}
	}
}

func TestWriteFile_OnlyIfAbsent(t *testing.T) {
	root := t.TempDir()
	fsys := fs.NewRealFS()

	state, err := WriteFile(fsys, root, ".gemini/commands/remember.toml", []byte("a"))
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if state != StateCreated {
		t.Errorf("state = %q, want created", state)
	}

	state, err = WriteFile(fsys, root, ".gemini/commands/remember.toml", []byte("b"))
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if state != StateExists {
		t.Errorf("state = %q, want exists", state)
	}
	got, _ := os.ReadFile(filepath.Join(root, ".gemini", "commands", "remember.toml"))
	if string(got) != "a" {
		t.Errorf("existing file was modified: %q", got)
	}
}

func TestEnsureWorkspaceDirs_SeedsOnFirstCreation(t *testing.T) {
	root := t.TempDir()
	fsys := fs.NewRealFS()

	result, err := EnsureWorkspaceDirs(fsys, root)
	if err != nil {
		t.Fatalf("EnsureWorkspaceDirs() error = %v", err)
	}
	if result.Memory != StateCreated || result.Opinions != StateCreated {
		t.Errorf("result = %+v, want both created", result)
	}
	entries, err := os.ReadDir(filepath.Join(root, OpinionsDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("opinions/ has %d entries, want 3", len(entries))
	}
	for _, name := range OpinionFiles {
		info, err := os.Stat(filepath.Join(root, OpinionsDir, name))
		if err != nil {
			t.Errorf("%s missing: %v", name, err)
			continue
		}
		if info.Size() != 0 {
			t.Errorf("%s should be empty, size %d", name, info.Size())
		}
	}
}

func TestEnsureWorkspaceDirs_LeavesExistingOpinionsAlone(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"empty dir", nil},
		{"user file", map[string]string{"mine.md": "keep me"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			opinions := filepath.Join(root, OpinionsDir)
			if err := os.Mkdir(opinions, 0755); err != nil {
				t.Fatal(err)
			}
			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(opinions, name), []byte(content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			result, err := EnsureWorkspaceDirs(fs.NewRealFS(), root)
			if err != nil {
				t.Fatalf("EnsureWorkspaceDirs() error = %v", err)
			}
			if result.Opinions != StateExists || len(result.Seeded) != 0 {
				t.Errorf("result = %+v, want exists and nothing seeded", result)
			}
			entries, _ := os.ReadDir(opinions)
			if len(entries) != len(tt.files) {
				t.Errorf("opinions/ has %d entries, want %d", len(entries), len(tt.files))
			}
		})
	}
}

func TestEnsureWorkspaceDirs_FileInTheWay(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, MemoryDir), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureWorkspaceDirs(fs.NewRealFS(), root); err == nil {
		t.Fatal("expected an error when memory is a regular file")
	}
}
