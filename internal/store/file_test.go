package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_ReadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "config.json"), nil)

	_, err := s.ReadConfig()
	require.ErrorIs(t, err, ErrNoConfig)
	assert.False(t, s.Exists())
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	s := NewFileStore(path, nil)

	require.NoError(t, s.WriteConfig(`{"client_id":"a"}`))
	require.NoError(t, s.WriteConfig(`{"client_id":"b"}`))

	text, err := s.ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, `{"client_id":"b"}`, text)
	assert.True(t, s.Exists())
	assert.Equal(t, path, s.Path())
}

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, NewFileStore(path, nil).WriteConfig("{}"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewFileStore(filepath.Join(dir, "config.json"), nil).WriteConfig("{}"))

	matches, err := filepath.Glob(filepath.Join(dir, ".config-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStore_WriteWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewFileStore(path, nil)
	s.lockTimeout = 50 * time.Millisecond
	require.NoError(t, s.WriteConfig("old"))

	holder := flock.New(path + ".lock")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = holder.Unlock() })

	err = s.WriteConfig("new")
	require.ErrorIs(t, err, ErrLocked)

	// Readers fall back to an unlocked read and still see the old file.
	text, err := s.ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, "old", text)
}
