package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	_, err := s.Get("abc", "regions")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put("abc", "regions", []byte{1, 2, 3}))
	require.NoError(t, s.Put("abc", "flags", []byte{9}))
	data, err := s.Get("abc", "regions")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	require.NoError(t, s.Put("abc", "regions", []byte{4}))
	data, err = s.Get("abc", "regions")
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, data)

	_, err = s.Get("abd", "regions")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	testStore(t, s)
	_, err = os.Stat(filepath.Join(dir, "cache", "abc_regions.bin"))
	assert.NoError(t, err)
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	testStore(t, s)
}

func TestHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.bin")
	require.NoError(t, os.WriteFile(path, []byte("terrain"), 0o644))
	h, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("terrain")), h)
	assert.Len(t, h, 64)
	assert.NotEqual(t, HashBytes([]byte("terrain2")), h)
}
