package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore writes every blob to <dir>/<hash>_<name>.bin.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(hash, name string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s.bin", hash, name))
}

func (s *FileStore) Get(hash, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(hash, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put writes to a temporary file first so a crash never leaves a torn blob.
func (s *FileStore) Put(hash, name string, data []byte) error {
	dst := s.path(hash, name)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
