// Package blobstore abstracts where catalog files live. The matching engine
// itself never touches I/O; loaders use a BlobStore to fetch the raw catalog
// bytes from the local filesystem, memory, or object storage.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading immutable catalog blobs.
type BlobStore interface {
	// Fetch opens the named blob for sequential reading.
	// The caller owns the returned reader and must close it.
	Fetch(ctx context.Context, name string) (io.ReadCloser, error)
}
