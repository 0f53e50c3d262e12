package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewCreatesDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "uploads")
	s, err := New(root)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(s.Root(), "thumbnails"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGenerateFilename(t *testing.T) {
	a := GenerateFilename("Holiday Photo.JPG")
	b := GenerateFilename("Holiday Photo.JPG")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"), a)
	assert.Len(t, strings.TrimSuffix(a, ".jpg"), 36)

	assert.Len(t, GenerateFilename("README"), 36)
}

func TestSave(t *testing.T) {
	s := newStore(t)

	saved, err := s.Save(strings.NewReader("hello"), "greeting.txt", 10)
	require.NoError(t, err)

	assert.Equal(t, int64(5), saved.Size)
	assert.True(t, strings.HasSuffix(saved.Filename, ".txt"))
	assert.Equal(t, "/uploads/"+saved.Filename, saved.URL)
	assert.Equal(t, s.Path(saved.Filename), saved.Path)

	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSaveTooLarge(t *testing.T) {
	s := newStore(t)

	_, err := s.Save(strings.NewReader("0123456789A"), "big.bin", 10)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.IsDir(), "left behind %s", e.Name())
	}

	// exactly at the limit is fine
	_, err = s.Save(strings.NewReader("0123456789"), "ok.bin", 10)
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	saved, err := s.Save(strings.NewReader("x"), "a.png", 0)
	require.NoError(t, err)

	require.NoError(t, s.Delete(saved.Path))
	_, err = os.Stat(saved.Path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(saved.Path), "deleting twice is fine")
	assert.NoError(t, s.Delete(""))
}

func TestDeleteOutsideRoot(t *testing.T) {
	s := newStore(t)
	outside := filepath.Join(t.TempDir(), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	assert.ErrorIs(t, s.Delete(outside), ErrOutsideRoot)
	assert.ErrorIs(t, s.Delete(s.Root()), ErrOutsideRoot)

	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestThumbnailPaths(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, filepath.Join(s.Root(), "thumbnails", "t.jpg"), s.ThumbnailPath("t.jpg"))
	assert.Equal(t, "/uploads/thumbnails/t.jpg", s.ThumbnailURL("../t.jpg"))
}
