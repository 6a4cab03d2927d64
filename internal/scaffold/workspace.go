package scaffold

import (
	"os"
	"path/filepath"

	"github.com/NielsdaWheelz/gemkit/internal/fs"
)

// State is what happened to one scaffolded artifact.
type State string

const (
	StateCreated     State = "created"
	StateExists      State = "exists"
	StateUpdated     State = "updated"
	StateRegenerated State = "regenerated"
)

// StateOf maps a created flag to StateCreated or StateExists.
func StateOf(created bool) State {
	if created {
		return StateCreated
	}
	return StateExists
}

// WriteFile writes content to root/rel only if absent, creating parent
// directories as needed.
func WriteFile(fsys fs.FS, root, rel string, content []byte) (State, error) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	if dir := filepath.Dir(path); dir != root {
		if _, err := fs.EnsureDir(fsys, dir, 0755); err != nil {
			return "", err
		}
	}
	created, err := fs.WriteFileIfAbsent(fsys, path, content, 0644)
	if err != nil {
		return "", err
	}
	return StateOf(created), nil
}

// DirsResult reports the workspace directories.
type DirsResult struct {
	Memory   State
	Opinions State
	Seeded   []string // opinion files written by this call
}

// EnsureWorkspaceDirs creates memory/ and opinions/ if absent. The
// opinion files are seeded only in the call that created opinions/; an
// existing opinions/ is never read or modified, even if it is empty.
func EnsureWorkspaceDirs(fsys fs.FS, root string) (DirsResult, error) {
	var result DirsResult

	created, err := fs.EnsureDir(fsys, filepath.Join(root, MemoryDir), 0755)
	if err != nil {
		return result, err
	}
	result.Memory = StateOf(created)

	opinions := filepath.Join(root, OpinionsDir)
	created, err = fs.EnsureDir(fsys, opinions, 0755)
	if err != nil {
		return result, err
	}
	result.Opinions = StateOf(created)
	if !created {
		return result, nil
	}

	for _, name := range OpinionFiles {
		if err := fsys.WriteFile(filepath.Join(opinions, name), nil, 0644); err != nil {
			return result, &os.PathError{Op: "seed", Path: filepath.Join(opinions, name), Err: err}
		}
		result.Seeded = append(result.Seeded, name)
	}
	return result, nil
}
