package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "panorama_result.jpg")

	require.NoError(t, fs.WriteFile(path, []byte("first")))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestFileSystem_WriteFileOverwrites(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jpg")

	require.NoError(t, fs.WriteFile(path, []byte("a much longer first payload")))
	require.NoError(t, fs.WriteFile(path, []byte("second")))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.txt")

	require.NoError(t, fs.WriteFile(path, []byte("test")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test", string(data))
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fs.MkdirAll(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileSystem_ReadFileMissing(t *testing.T) {
	_, err := New().ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileSystem_WriteFileFailsWhenParentIsAFile(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := fs.WriteFile(filepath.Join(blocker, "out.jpg"), []byte("data"))
	assert.Error(t, err)
}
