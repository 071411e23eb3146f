package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStore implements BlobStore using the local file system.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Fetch opens a blob for reading.
func (s *LocalStore) Fetch(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		return nil, err
	}
	return f, nil
}
