// Package store provides durable config stores for the Live Connect client:
// a JSON file guarded by an advisory lock and an entry in the OS keyring.
// Both treat the config as opaque text.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// FilePerms restricts config files to owner-only read/write. The config
// carries the client secret and the refresh token.
const FilePerms = 0o600

// DirPerms is used when creating the config directory.
const DirPerms = 0o700

// LockTimeout bounds how long a read or write waits for the lock file.
const LockTimeout = 2 * time.Second

const lockRetryDelay = 10 * time.Millisecond

// ErrNoConfig is returned by ReadConfig when the file does not exist yet.
var ErrNoConfig = errors.New("store: no config")

// ErrLocked is returned by WriteConfig when another process holds the lock
// past LockTimeout.
var ErrLocked = errors.New("store: config file is locked by another process")

// FileStore keeps the config JSON in a single file. Writes go to a temp
// file in the same directory and are renamed into place under an exclusive
// flock on path+".lock".
type FileStore struct {
	path        string
	logger      *slog.Logger
	lockTimeout time.Duration
}

// NewFileStore returns a store for path. Nothing is touched until the first
// read or write.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &FileStore{path: path, logger: logger, lockTimeout: LockTimeout}
}

// Path returns the config file path.
func (s *FileStore) Path() string {
	return s.path
}

// Exists reports whether the config file is present.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)

	return err == nil
}

// ReadConfig returns the file contents. A missing file yields ErrNoConfig.
// If the shared lock cannot be taken in time the read proceeds unlocked;
// writers rename atomically, so a reader never sees a partial file.
func (s *FileStore) ReadConfig() (string, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w at %s", ErrNoConfig, s.path)
	}

	fl := flock.New(s.lockPath())

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	locked, err := fl.TryRLockContext(ctx, lockRetryDelay)
	if err != nil && ctx.Err() == nil {
		return "", fmt.Errorf("store: locking %s: %w", s.lockPath(), err)
	}

	if locked {
		defer func() { _ = fl.Unlock() }()
	} else {
		s.logger.Warn("reading config without lock", slog.String("path", s.path))
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("store: reading %s: %w", s.path, err)
	}

	return string(data), nil
}

// WriteConfig replaces the file with text.
func (s *FileStore) WriteConfig(text string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirPerms); err != nil {
		return fmt.Errorf("store: creating directory %s: %w", dir, err)
	}

	fl := flock.New(s.lockPath())

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("store: locking %s: %w", s.lockPath(), err)
	}

	if !locked {
		return ErrLocked
	}
	defer func() { _ = fl.Unlock() }()

	if err := writeAtomic(s.path, []byte(text)); err != nil {
		return err
	}

	s.logger.Debug("wrote config", slog.String("path", s.path))

	return nil
}

func (s *FileStore) lockPath() string {
	return s.path + ".lock"
}

// writeAtomic writes data to a temp file beside path, syncs it, and renames
// it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("store: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: writing: %w", err)
	}

	// Sync before rename so a crash cannot leave an empty file at path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("store: renaming: %w", err)
	}

	success = true

	return nil
}
