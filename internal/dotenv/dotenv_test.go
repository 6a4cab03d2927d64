package dotenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/secret"
)

const (
	testKey         = "GEMINI_API_KEY"
	testPlaceholder = "your_api_key_here"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func readEnv(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func newBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buf, err := secret.NewFromBytes([]byte(value))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { buf.Close() })
	return buf
}

func TestEnsureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	fsys := fs.NewRealFS()

	created, err := EnsureFile(fsys, path)
	if err != nil || !created {
		t.Fatalf("EnsureFile = %v, %v; want true, nil", created, err)
	}
	if got := readEnv(t, path); got != "" {
		t.Errorf("new file content = %q, want empty", got)
	}

	created, err = EnsureFile(fsys, path)
	if err != nil || created {
		t.Errorf("second EnsureFile = %v, %v; want false, nil", created, err)
	}
}

func TestWritePlaceholder_EmptyFile(t *testing.T) {
	path := writeEnv(t, "")

	written, err := WritePlaceholder(fs.NewRealFS(), path, testKey, testPlaceholder)
	if err != nil || !written {
		t.Fatalf("WritePlaceholder = %v, %v", written, err)
	}
	if got, want := readEnv(t, path), "GEMINI_API_KEY=your_api_key_here\n"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestWritePlaceholder_NeverTouchesNonEmpty(t *testing.T) {
	original := "GEMINI_API_KEY=abc123\n"
	path := writeEnv(t, original)

	written, err := WritePlaceholder(fs.NewRealFS(), path, testKey, testPlaceholder)
	if err != nil {
		t.Fatal(err)
	}
	if written {
		t.Error("placeholder written into non-empty file")
	}
	if got := readEnv(t, path); got != original {
		t.Errorf("content changed: %q", got)
	}
}

func TestUpsertKey(t *testing.T) {
	tests := []struct {
		name         string
		initial      string
		want         string
		wantReplaced bool
	}{
		{
			name:    "empty file",
			initial: "",
			want:    "GEMINI_API_KEY=new-key\n",
		},
		{
			name:         "replaces placeholder and keeps others",
			initial:      "OTHER=1\nGEMINI_API_KEY=your_api_key_here\n# comment\n",
			want:         "OTHER=1\n# comment\nGEMINI_API_KEY=new-key\n",
			wantReplaced: true,
		},
		{
			name:         "drops duplicates and export form",
			initial:      "GEMINI_API_KEY=a\nexport GEMINI_API_KEY=b\nX=y",
			want:         "X=y\nGEMINI_API_KEY=new-key\n",
			wantReplaced: true,
		},
		{
			name:    "similar key names are kept",
			initial: "GEMINI_API_KEY_OLD=z\n",
			want:    "GEMINI_API_KEY_OLD=z\nGEMINI_API_KEY=new-key\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeEnv(t, tt.initial)
			replaced, err := UpsertKey(fs.NewRealFS(), path, testKey, newBuffer(t, "new-key"))
			if err != nil {
				t.Fatalf("UpsertKey failed: %v", err)
			}
			if replaced != tt.wantReplaced {
				t.Errorf("replaced = %v, want %v", replaced, tt.wantReplaced)
			}
			if got := readEnv(t, path); got != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpsertKey_FileMode(t *testing.T) {
	path := writeEnv(t, "")
	if _, err := UpsertKey(fs.NewRealFS(), path, testKey, newBuffer(t, "k")); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != FileMode {
		t.Errorf("mode = %o, want %o", info.Mode().Perm(), FileMode)
	}
}

func TestLookup(t *testing.T) {
	fsys := fs.NewRealFS()
	tests := []struct {
		name    string
		content *string
		want    KeyState
	}{
		{"missing file", nil, KeyMissing},
		{"empty file", strPtr(""), KeyMissing},
		{"placeholder", strPtr("GEMINI_API_KEY=your_api_key_here\n"), KeyPlaceholder},
		{"set", strPtr("GEMINI_API_KEY=abc123\n"), KeySet},
		{"quoted", strPtr("GEMINI_API_KEY=\"abc 123\"\n"), KeySet},
		{"other keys only", strPtr("FOO=bar\n"), KeyMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0600); err != nil {
					t.Fatal(err)
				}
			}
			got, err := Lookup(fsys, path, testKey, testPlaceholder)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Lookup = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue(t *testing.T) {
	path := writeEnv(t, "GEMINI_API_KEY=\"abc 123\"\n")
	v, ok, err := Value(fs.NewRealFS(), path, testKey)
	if err != nil || !ok || v != "abc 123" {
		t.Errorf("Value = %q, %v, %v", v, ok, err)
	}
}

func strPtr(s string) *string { return &s }

func TestWithKey_NeverReallocates(t *testing.T) {
	tests := []string{
		"",
		"X=y",
		"X=y\n",
		"GEMINI_API_KEY=old\r\nOTHER=1\r\n",
		"\n\n\n",
		"# only a comment without newline",
	}
	value := []byte("a-rather-long-api-key-value-0123456789")
	for _, content := range tests {
		data, _ := withKey([]byte(content), testKey, value)
		if want := withKeySize([]byte(content), testKey, len(value)); cap(data) != want {
			t.Errorf("withKey(%q): cap = %d, want %d (buffer was reallocated)", content, cap(data), want)
		}
	}
}
