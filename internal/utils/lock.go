package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// ArchiveLock manages a file-based lock for the SQLite archive. Exactly one
// sync run may be active against a given archive; a second process blocks
// here until the first finishes.
type ArchiveLock struct {
	lock *flock.Flock
	path string
}

// NewArchiveLock creates a new lock for the given archive path.
func NewArchiveLock(dbPath string) (*ArchiveLock, error) {
	absPath, err := GetAbsArchivePath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute archive path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &ArchiveLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the archive lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *ArchiveLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another podium process is writing to the archive, waiting for it to finish...\n")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the archive lock.
func (l *ArchiveLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// GetAbsArchivePath resolves the archive path.
func GetAbsArchivePath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "podium", "podium.sqlite"), nil
	}
	return filepath.Abs(dbPath)
}
