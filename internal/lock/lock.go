// Package lock serializes gemkit runs that mutate the same workspace, or
// the machine-wide runtime install, across processes.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// InstallKey is the lock key for `gemkit install`.
const InstallKey = "install"

// Info contains the metadata stored in a lock file.
type Info struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
	Cmd       string    `json:"cmd,omitempty"`
	Target    string    `json:"target,omitempty"`
}

// ErrLocked indicates a non-stale lock is held by someone else.
type ErrLocked struct {
	Target string
	Info   *Info // nil if lock file is unreadable
	Path   string
}

func (e *ErrLocked) Error() string {
	if e.Info != nil {
		return fmt.Sprintf("%s is locked by pid %d (%s) since %s (lock file: %s)",
			e.Target, e.Info.PID, e.Info.Cmd, e.Info.CreatedAt.Format(time.RFC3339), e.Path)
	}
	return fmt.Sprintf("%s is locked (lock file: %s)", e.Target, e.Path)
}

// Locker hands out advisory lock files under Dir.
type Locker struct {
	Dir        string
	StaleAfter time.Duration
	Now        func() time.Time
	IsPIDAlive func(pid int) bool
}

// New returns a Locker keeping lock files in dir with defaults:
// stale after 2h, time.Now, and the platform pid liveness check.
func New(dir string) Locker {
	return Locker{
		Dir:        dir,
		StaleAfter: 2 * time.Hour,
		Now:        time.Now,
		IsPIDAlive: isPIDAlive,
	}
}

// WorkspaceKey derives a lock key from an absolute workspace path, so the
// lock lives outside the workspace itself.
func WorkspaceKey(absPath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absPath)))
	return "ws-" + hex.EncodeToString(sum[:8])
}

func (l Locker) path(key string) string {
	return filepath.Join(l.Dir, key+".lock")
}

// Lock acquires key and returns an unlock function. target and cmd are
// recorded for the error a competing process sees. A lock whose owner is
// gone or that is older than StaleAfter is taken over.
func (l Locker) Lock(key, target, cmd string) (unlock func() error, err error) {
	lockPath := l.path(key)
	const maxRetries = 3

	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			info := Info{PID: os.Getpid(), CreatedAt: l.Now(), Cmd: cmd, Target: target}
			data, _ := json.Marshal(info)
			if _, writeErr := f.Write(data); writeErr != nil {
				f.Close()
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to write lock file: %w", writeErr)
			}
			if closeErr := f.Close(); closeErr != nil {
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to close lock file: %w", closeErr)
			}
			return func() error {
				if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
					return err
				}
				return nil
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		info, readErr := readInfo(lockPath)
		if readErr != nil {
			// Unreadable: judge by mtime, conservatively.
			stat, statErr := os.Stat(lockPath)
			if statErr != nil || l.Now().Sub(stat.ModTime()) <= l.StaleAfter {
				return nil, &ErrLocked{Target: target, Path: lockPath}
			}
		} else if !l.isStale(info) {
			return nil, &ErrLocked{Target: target, Info: info, Path: lockPath}
		}

		if removeErr := os.Remove(lockPath); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, &ErrLocked{Target: target, Info: info, Path: lockPath}
		}
	}

	return nil, &ErrLocked{Target: target, Path: lockPath}
}

func readInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (l Locker) isStale(info *Info) bool {
	return !l.IsPIDAlive(info.PID) || l.Now().Sub(info.CreatedAt) > l.StaleAfter
}
