package contract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// s3Server answers the subset of the S3 API that minio-go uses for uploads,
// downloads and deletes. Uploaded payloads are drained, not stored; objects
// served on GET are seeded by the test.
type s3Server struct {
	mu         sync.Mutex
	objects    map[string][]byte
	singlePuts int
	multiparts int
	parts      int
	deletes    int
}

func newS3Server(t *testing.T) (*s3Server, *minio.Client) {
	t.Helper()
	s := &s3Server{objects: map[string][]byte{}}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("portal", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	return s, client
}

func (s *s3Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	key := strings.TrimPrefix(r.URL.Path, "/contracts/")
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && q.Has("uploads"):
		s.multiparts++
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<InitiateMultipartUploadResult><Bucket>contracts</Bucket><Key>%s</Key><UploadId>upload-1</UploadId></InitiateMultipartUploadResult>`, key)
	case r.Method == http.MethodPut && q.Has("uploadId"):
		s.parts++
		w.Header().Set("ETag", `"part-etag"`)
	case r.Method == http.MethodPost && q.Has("uploadId"):
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<CompleteMultipartUploadResult><Location>/contracts/%s</Location><Bucket>contracts</Bucket><Key>%s</Key><ETag>"done"</ETag></CompleteMultipartUploadResult>`, key, key)
	case r.Method == http.MethodPut:
		s.singlePuts++
		w.Header().Set("ETag", `"object-etag"`)
	case r.Method == http.MethodHead || r.Method == http.MethodGet:
		data, ok := s.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				fmt.Fprint(w, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("ETag", `"object-etag"`)
		w.Header().Set("Last-Modified", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat))
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case r.Method == http.MethodDelete:
		s.deletes++
		delete(s.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (s *s3Server) counts() (single, multipart, parts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.singlePuts, s.multiparts, s.parts
}

func allocatedDuring(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

const stubBase = "http://localhost:9000/contracts"

func TestCreateWithDeclaredSizeUsesSinglePut(t *testing.T) {
	stub, client := newS3Server(t)
	svc := NewService(NewMemoryRepository(), NewMinIOStore(client, "contracts", stubBase, defaultMaxFileSize))

	var result CreateResult
	var err error
	allocated := allocatedDuring(func() {
		result, err = svc.Create(context.Background(), UploadInput{
			Filename: "contract.zip",
			Size:     10,
			Body:     strings.NewReader("0123456789"),
		})
	})
	require.NoError(t, err)

	assert.Equal(t, CreateSucceeded, result.Outcome)
	assert.Equal(t, int64(10), result.Contract.Size)
	single, multipart, _ := stub.counts()
	assert.Equal(t, 1, single)
	assert.Zero(t, multipart)
	assert.Less(t, allocated, uint64(4<<20), "allocated %d bytes", allocated)
}

func TestCreateWithUnknownSizeStreamsSmallParts(t *testing.T) {
	stub, client := newS3Server(t)
	svc := NewService(NewMemoryRepository(), NewMinIOStore(client, "contracts", stubBase, defaultMaxFileSize))

	var result CreateResult
	var err error
	allocated := allocatedDuring(func() {
		result, err = svc.Create(context.Background(), UploadInput{
			Filename: "contract.zip",
			Size:     -1,
			Body:     strings.NewReader("0123456789"),
		})
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.Contract.Size)
	_, multipart, parts := stub.counts()
	assert.Equal(t, 1, multipart)
	assert.Equal(t, 1, parts)
	assert.Less(t, allocated, uint64(32<<20), "allocated %d bytes", allocated)
}

func TestMinIOStoreOpenReadsObject(t *testing.T) {
	stub, client := newS3Server(t)
	stub.objects["id-1/deal.zip"] = []byte("zip-bytes")
	store := NewMinIOStore(client, "contracts", stubBase, defaultMaxFileSize)

	rc, err := store.Open(context.Background(), stubBase+"/id-1/deal.zip")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "zip-bytes", string(data))
}

func TestMinIOStoreOpenMissingObjectFailsBeforeRead(t *testing.T) {
	_, client := newS3Server(t)
	store := NewMinIOStore(client, "contracts", stubBase, defaultMaxFileSize)

	_, err := store.Open(context.Background(), stubBase+"/id-1/missing.zip")
	var s3Err minio.ErrorResponse
	require.ErrorAs(t, err, &s3Err)
	assert.Equal(t, "NoSuchKey", s3Err.Code)

	_, err = store.Open(context.Background(), "http://elsewhere/contracts/id-1/deal.zip")
	assert.ErrorIs(t, err, ErrForeignURL)
}

func TestMinIOStoreDeleteRemovesObject(t *testing.T) {
	stub, client := newS3Server(t)
	stub.objects["id-1/deal.zip"] = []byte("zip-bytes")
	store := NewMinIOStore(client, "contracts", stubBase, defaultMaxFileSize)

	require.NoError(t, store.Delete(context.Background(), stubBase+"/id-1/deal.zip"))
	assert.Empty(t, stub.objects)
	assert.Equal(t, 1, stub.deletes)
}
