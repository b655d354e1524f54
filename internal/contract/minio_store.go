package contract

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

const (
	minStreamPartSize = 5 << 20 // smallest part S3 accepts
	maxUploadParts    = 10000
)

// MinIOStore adapts a MinIO bucket to BlobStore. Public read access comes
// from the bucket policy installed by storage.EnsureBucket.
type MinIOStore struct {
	client   minioAPI
	bucket   string
	urls     urlMapper
	partSize uint64
}

// NewMinIOStore constructs an adapter. publicBase is the URL prefix of objects
// in bucket; maxObjectSize sizes the part buffer used for bodies of unknown length.
func NewMinIOStore(client *minio.Client, bucket, publicBase string, maxObjectSize int64) *MinIOStore {
	return &MinIOStore{
		client:   client,
		bucket:   bucket,
		urls:     newURLMapper(publicBase),
		partSize: streamPartSize(maxObjectSize),
	}
}

// streamPartSize is the smallest valid part size that still fits maxObjectSize
// into the multipart part limit.
func streamPartSize(maxObjectSize int64) uint64 {
	part := uint64(minStreamPartSize)
	if maxObjectSize > 0 {
		if need := uint64((maxObjectSize + maxUploadParts - 1) / maxUploadParts); need > part {
			part = need
		}
	}
	return part
}

// Put uploads body. A body of unknown size streams in parts of s.partSize.
func (s *MinIOStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (BlobInfo, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if size < 0 {
		opts.PartSize = s.partSize
		if opts.PartSize == 0 {
			opts.PartSize = minStreamPartSize
		}
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, opts)
	if err != nil {
		return BlobInfo{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return BlobInfo{Key: key, URL: s.urls.urlFor(key), Size: info.Size}, nil
}

func (s *MinIOStore) Open(ctx context.Context, blobURL string) (io.ReadCloser, error) {
	key, err := s.urls.keyFor(blobURL)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return obj, nil
}

func (s *MinIOStore) Delete(ctx context.Context, blobURL string) error {
	key, err := s.urls.keyFor(blobURL)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *MinIOStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}
