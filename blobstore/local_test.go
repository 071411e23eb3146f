package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.csv"), []byte("a,b\n1,2\n"), 0o600))

	s := NewLocalStore(dir)

	rc, err := s.Fetch(context.Background(), "catalog.csv")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	_, err = s.Fetch(context.Background(), "missing.csv")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "x", []byte("payload")))

	rc, err := s.Fetch(ctx, "x")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	require.NoError(t, rc.Close())

	_, err = s.Fetch(ctx, "y")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreCopiesData(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	src := []byte("abc")
	require.NoError(t, s.Put(ctx, "x", src))
	src[0] = 'z'

	rc, err := s.Fetch(ctx, "x")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "abc", string(data))
}
