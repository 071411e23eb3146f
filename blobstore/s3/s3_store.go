// Package s3 provides a BlobStore backed by Amazon S3.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/covermatch/covermatch/blobstore"
)

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client     *s3.Client
	downloader *manager.Downloader
	bucket     string
	prefix     string
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "catalogs/").
func NewStore(client *s3.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		prefix:     rootPrefix,
	}
}

// NewStoreFromDefaultConfig creates a Store using the ambient AWS
// configuration (environment, shared config files, instance roles).
func NewStoreFromDefaultConfig(ctx context.Context, bucket, rootPrefix string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewStore(s3.NewFromConfig(cfg), bucket, rootPrefix), nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Fetch downloads a blob into memory and returns a reader over it.
// Catalog files are small enough that buffering beats range reads here.
func (s *Store) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, blobstore.ErrNotFound
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	size := int64(0)
	if head.ContentLength != nil {
		size = *head.ContentLength
	}
	buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
	if _, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}
