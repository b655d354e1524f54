package contract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps records in process memory. It backs the "memory"
// database driver and the gateway tests.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	seq     int
	now     func() time.Time
}

type memoryRecord struct {
	Contract
	seq int
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (r *MemoryRepository) List(ctx context.Context) ([]Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := make([]memoryRecord, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].UploadedAt.Equal(recs[j].UploadedAt) {
			return recs[i].UploadedAt.After(recs[j].UploadedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	list := make([]Contract, len(recs))
	for i, rec := range recs {
		list[i] = rec.Contract
	}
	return list, nil
}

func (r *MemoryRepository) Create(ctx context.Context, in NewContract) (Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.URL == in.URL {
			return Contract{}, fmt.Errorf("create contract: duplicate url %s", in.URL)
		}
	}

	r.seq++
	c := Contract{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Size:       in.Size,
		URL:        in.URL,
		UploadedAt: r.now().UTC(),
	}
	r.records[c.ID] = memoryRecord{Contract: c, seq: r.seq}
	return c, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Contract{}, ErrContractNotFound
	}
	return rec.Contract, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Contract{}, ErrContractNotFound
	}
	delete(r.records, id)
	return rec.Contract, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// MemoryBlobStore keeps blobs in process memory under a fake public base URL.
// Deleting a missing key succeeds, as it does on S3 and MinIO.
type MemoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	urls  urlMapper
}

// NewMemoryBlobStore returns an empty store whose URLs start with base.
func NewMemoryBlobStore(base string) *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs: make(map[string][]byte),
		urls:  newURLMapper(base),
	}
}

func (s *MemoryBlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (BlobInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return BlobInfo{}, fmt.Errorf("read upload body: %w", err)
	}

	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()

	return BlobInfo{Key: key, URL: s.urls.urlFor(key), Size: int64(len(data))}, nil
}

func (s *MemoryBlobStore) Open(ctx context.Context, blobURL string) (io.ReadCloser, error) {
	key, err := s.urls.keyFor(blobURL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, ok := s.blobs[key]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryBlobStore) Delete(ctx context.Context, blobURL string) error {
	key, err := s.urls.keyFor(blobURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryBlobStore) Ping(ctx context.Context) error {
	return nil
}

// Has reports whether a blob exists at blobURL.
func (s *MemoryBlobStore) Has(blobURL string) bool {
	key, err := s.urls.keyFor(blobURL)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok
}

// Len returns the number of stored blobs.
func (s *MemoryBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
