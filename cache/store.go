// Package cache persists analysis blobs keyed by a content hash of the map
// they were computed from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("cache: blob not found")

// Store keeps named blobs per map hash. Put overwrites.
type Store interface {
	Get(hash, name string) ([]byte, error)
	Put(hash, name string, data []byte) error
}

// HashBytes returns the hex encoded sha256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile hashes the contents of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
