package contract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/contractportal/portal/internal/logger"
	"github.com/contractportal/portal/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	defaultContentType = "application/zip"
	fallbackFilename   = "contract.zip"
)

// Service mediates between the HTTP surface and the two stores.
type Service struct {
	repo        Repository
	blobs       BlobStore
	maxFileSize int64
	newKey      func(name string) string
}

// Option customizes a Service.
type Option func(*Service)

// WithMaxFileSize caps the number of bytes accepted per upload.
func WithMaxFileSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// NewService constructs a contract service.
func NewService(repo Repository, blobs BlobStore, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		blobs:       blobs,
		maxFileSize: defaultMaxFileSize,
		newKey: func(name string) string {
			return uuid.NewString() + "/" + name
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all contracts, newest first.
func (s *Service) List(ctx context.Context) ([]Contract, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	if list == nil {
		list = []Contract{}
	}
	return list, nil
}

// Get returns one contract.
func (s *Service) Get(ctx context.Context, id string) (Contract, error) {
	if strings.TrimSpace(id) == "" {
		return Contract{}, ErrMissingID
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrContractNotFound) {
			return Contract{}, err
		}
		return Contract{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return c, nil
}

// Open returns the record and a reader over its blob. The caller closes the reader.
func (s *Service) Open(ctx context.Context, id string) (Contract, io.ReadCloser, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contract{}, nil, err
	}
	rc, err := s.blobs.Open(ctx, c.URL)
	if err != nil {
		return Contract{}, nil, fmt.Errorf("%w: %w", ErrBlobStore, err)
	}
	return c, rc, nil
}

// Create writes the blob, then inserts the record. When the insert fails the
// blob is removed again; if that removal fails too the result reports
// CreateFailedOrphan and only the insert error is returned. A declared size
// over the limit is rejected before anything is written.
func (s *Service) Create(ctx context.Context, in UploadInput) (CreateResult, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return CreateResult{Outcome: CreateFailed}, ErrMissingFilename
	}
	if in.Body == nil {
		return CreateResult{Outcome: CreateFailed}, ErrMissingBody
	}
	if in.Size > s.maxFileSize {
		return CreateResult{Outcome: CreateFailed}, ErrFileTooLarge
	}

	body := bufio.NewReader(in.Body)
	if _, err := body.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return CreateResult{Outcome: CreateFailed}, ErrMissingBody
		}
		return CreateResult{Outcome: CreateFailed}, fmt.Errorf("read upload body: %w", err)
	}

	name := SanitizeFilename(in.Filename)
	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	log := logger.FromContext(ctx).With(zap.String("name", name))

	key := s.newKey(name)
	size := int64(-1)
	var limited io.Reader = io.LimitReader(body, s.maxFileSize+1)
	if in.Size > 0 {
		size = in.Size
		limited = io.LimitReader(body, size)
	}
	info, err := s.blobs.Put(ctx, key, limited, size, contentType)
	if err != nil {
		return CreateResult{Outcome: CreateFailed}, fmt.Errorf("%w: %w", ErrBlobStore, err)
	}

	if info.Size > s.maxFileSize {
		outcome := s.compensate(ctx, log, info.URL)
		return CreateResult{Outcome: outcome}, ErrFileTooLarge
	}

	stored, err := s.repo.Create(ctx, NewContract{Name: name, Size: info.Size, URL: info.URL})
	if err != nil {
		log.Error("insert contract record", zap.String("url", info.URL), zap.Error(err))
		outcome := s.compensate(ctx, log, info.URL)
		return CreateResult{Outcome: outcome}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	metrics.ContractUploaded(stored.Size)
	log.Info("contract uploaded", zap.String("id", stored.ID), zap.Int64("size", stored.Size))
	return CreateResult{Contract: stored, Outcome: CreateSucceeded}, nil
}

// compensate removes a blob written by a failed Create.
func (s *Service) compensate(ctx context.Context, log *zap.Logger, blobURL string) CreateOutcome {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), blobURL); err != nil {
		metrics.OrphanBlob("create")
		log.Warn("orphan blob left after failed create", zap.String("url", blobURL), zap.Error(err))
		return CreateFailedOrphan
	}
	return CreateFailed
}

// Delete removes the blob, then the record. There is no rollback: a record
// delete failure after the blob is gone reports DeleteFailedDangling.
func (s *Service) Delete(ctx context.Context, id, blobURL string) (DeleteResult, error) {
	if strings.TrimSpace(id) == "" {
		return DeleteResult{Outcome: DeleteFailed}, ErrMissingID
	}
	if strings.TrimSpace(blobURL) == "" {
		return DeleteResult{Outcome: DeleteFailed}, ErrMissingURL
	}

	log := logger.FromContext(ctx).With(zap.String("id", id), zap.String("url", blobURL))

	if err := s.blobs.Delete(ctx, blobURL); err != nil {
		return DeleteResult{Outcome: DeleteFailed}, fmt.Errorf("%w: %w", ErrBlobStore, err)
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrContractNotFound) {
			return DeleteResult{Outcome: DeleteFailed}, err
		}
		metrics.DanglingRecord()
		log.Warn("record left pointing at deleted blob", zap.Error(err))
		return DeleteResult{Outcome: DeleteFailedDangling}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	metrics.ContractDeleted()
	log.Info("contract deleted")
	return DeleteResult{Outcome: DeleteSucceeded}, nil
}

// SanitizeFilename drops any directory components from name. An empty result
// becomes "contract.zip".
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return fallbackFilename
	}
	return name
}
