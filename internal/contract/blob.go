package contract

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// BlobStore is the object storage side of the gateway. Blobs are addressed by
// the public URL handed out at write time.
type BlobStore interface {
	// Put writes body under key with public read access. size is -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (BlobInfo, error)
	Open(ctx context.Context, blobURL string) (io.ReadCloser, error)
	Delete(ctx context.Context, blobURL string) error
	Ping(ctx context.Context) error
}

// urlMapper converts between object keys and public URLs under one base.
type urlMapper struct {
	base string
}

func newURLMapper(base string) urlMapper {
	return urlMapper{base: strings.TrimRight(base, "/")}
}

func (m urlMapper) urlFor(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return m.base + "/" + strings.Join(segments, "/")
}

func (m urlMapper) keyFor(blobURL string) (string, error) {
	rest, ok := strings.CutPrefix(blobURL, m.base+"/")
	if !ok || rest == "" {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, blobURL)
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, blobURL)
	}
	return key, nil
}
