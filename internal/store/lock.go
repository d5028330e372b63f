package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Aman-CERP/hitpager/internal/errors"
)

// LockFileName is the lock file created in a data directory.
const LockFileName = ".hitpager.lock"

// DirLock is a cross-process lock on a data directory. Writers hold it
// exclusively while they rebuild the index and record store.
type DirLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewDirLock creates a lock for dir. Nothing is acquired yet.
func NewDirLock(dir string) *DirLock {
	path := filepath.Join(dir, LockFileName)
	return &DirLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.path
}

// TryLock acquires the lock without blocking. It fails with
// errors.ErrCodeIndexLocked when another process holds it.
func (l *DirLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return errors.New(errors.ErrCodeIndexLocked,
			fmt.Sprintf("data directory is locked by another process (%s)", l.path), nil).
			WithSuggestion("wait for the other indexer to finish")
	}

	l.locked = true
	return nil
}

// Unlock releases the lock. It is safe to call on an unlocked DirLock.
func (l *DirLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
