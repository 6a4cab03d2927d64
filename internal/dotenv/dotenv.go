// Package dotenv maintains the project's .env file: the newline-delimited
// KEY=value credential channel the Gemini CLI reads.
package dotenv

import (
	"bytes"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/secret"
)

// FileMode is the permission used when gemkit creates or rewrites .env.
const FileMode os.FileMode = 0600

// KeyState describes what a .env file holds for one key.
type KeyState string

const (
	KeyMissing     KeyState = "missing"
	KeyPlaceholder KeyState = "placeholder"
	KeySet         KeyState = "set"
)

// EnsureFile creates an empty file at path if nothing exists there.
func EnsureFile(fsys fs.FS, path string) (created bool, err error) {
	return fs.WriteFileIfAbsent(fsys, path, nil, FileMode)
}

// WritePlaceholder writes "key=placeholder" only when the file is empty.
// A file with any content is left byte-for-byte untouched.
func WritePlaceholder(fsys fs.FS, path, key, placeholder string) (written bool, err error) {
	content, err := fsys.ReadFile(path)
	if err != nil {
		return false, err
	}
	if len(content) > 0 {
		return false, nil
	}
	line := key + "=" + placeholder + "\n"
	if err := fsys.WriteFile(path, []byte(line), FileMode); err != nil {
		return false, err
	}
	return true, nil
}

// UpsertKey rewrites the file keeping every line except those assigning
// key, then appends "key=<value>". value is read from the secret buffer
// and the assembled file content is zeroed after it is written.
// Returns true if an existing assignment was replaced.
func UpsertKey(fsys fs.FS, path, key string, value *secret.Buffer) (replaced bool, err error) {
	content, err := fsys.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	data, replaced := withKey(content, key, value.Bytes())
	defer secret.Zero(data)

	if err := fs.WriteFileAtomic(fsys, path, data, FileMode); err != nil {
		return false, err
	}
	return replaced, nil
}

// Lookup parses the file with godotenv and reports the state of key.
// A missing file reports KeyMissing without error.
func Lookup(fsys fs.FS, path, key, placeholder string) (KeyState, error) {
	content, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return KeyMissing, nil
		}
		return "", err
	}

	values, err := godotenv.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	switch {
	case !ok || strings.TrimSpace(v) == "":
		return KeyMissing, nil
	case v == placeholder:
		return KeyPlaceholder, nil
	default:
		return KeySet, nil
	}
}

// Value returns the value assigned to key, parsed with godotenv.
func Value(fsys fs.FS, path, key string) (string, bool, error) {
	content, err := fsys.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	values, err := godotenv.Parse(bytes.NewReader(content))
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// withKey assembles the rewritten file. The result is allocated once at
// its final size so the value is never left behind in a discarded
// backing array that Zero cannot reach.
func withKey(content []byte, key string, value []byte) (data []byte, replaced bool) {
	data = make([]byte, 0, withKeySize(content, key, len(value)))
	for _, line := range splitLines(content) {
		if assignsKey(line, key) {
			replaced = true
			continue
		}
		data = append(data, line...)
		data = append(data, '\n')
	}
	data = append(data, key...)
	data = append(data, '=')
	data = append(data, value...)
	data = append(data, '\n')
	return data, replaced
}

// withKeySize bounds the output of withKey: every kept line plus a
// possibly missing final newline, then "key=value\n".
func withKeySize(content []byte, key string, valueLen int) int {
	return len(content) + 1 + len(key) + 1 + valueLen + 1
}

func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	text := strings.TrimSuffix(string(content), "\n")
	return strings.Split(text, "\n")
}

// assignsKey reports whether line sets key, with or without "export ".
func assignsKey(line, key string) bool {
	trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	trimmed = strings.TrimPrefix(trimmed, "export ")
	name, _, found := strings.Cut(trimmed, "=")
	return found && strings.TrimSpace(name) == key
}
