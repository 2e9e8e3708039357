package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is an advisory, cross-process exclusive lock guarding one index
// run against the project's .codelibrarian directory. Repurposed from the
// teacher's embedding-model-download FileLock: the resource being
// protected here is the single SQLite database file, which this store
// requires to have exactly one writer at a time.
type RunLock struct {
	path string
	lock *flock.Flock
}

// NewRunLock creates a lock file at <configDir>/.index.lock.
func NewRunLock(configDir string) *RunLock {
	path := filepath.Join(configDir, ".index.lock")
	return &RunLock{path: path, lock: flock.New(path)}
}

// TryLock attempts to acquire the lock without blocking. ok is false if
// another process already holds it.
func (l *RunLock) TryLock() (ok bool, err error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("creating lock directory: %w", err)
	}
	acquired, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquiring index lock: %w", err)
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call even if TryLock never succeeded.
func (l *RunLock) Unlock() error {
	if !l.lock.Locked() {
		return nil
	}
	return l.lock.Unlock()
}
