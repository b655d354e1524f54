package contract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store adapts an S3 bucket to BlobStore. Objects are written with the
// public-read canned ACL.
type S3Store struct {
	client s3API
	bucket string
	urls   urlMapper
}

// NewS3Store constructs an adapter. publicBase is the URL prefix of objects in bucket.
func NewS3Store(client *s3.Client, bucket, publicBase string) *S3Store {
	return &S3Store{client: client, bucket: bucket, urls: newURLMapper(publicBase)}
}

func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (BlobInfo, error) {
	// PutObject needs a seekable body to sign the payload
	data, err := io.ReadAll(body)
	if err != nil {
		return BlobInfo{}, fmt.Errorf("read upload body: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return BlobInfo{}, fmt.Errorf("put object %s: %w", key, err)
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return BlobInfo{}, fmt.Errorf("head object %s: %w", key, err)
	}

	return BlobInfo{Key: key, URL: s.urls.urlFor(key), Size: aws.ToInt64(head.ContentLength)}, nil
}

func (s *S3Store) Open(ctx context.Context, blobURL string) (io.ReadCloser, error) {
	key, err := s.urls.keyFor(blobURL)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, blobURL string) error {
	key, err := s.urls.keyFor(blobURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
