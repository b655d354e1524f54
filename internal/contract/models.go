package contract

import (
	"io"
	"time"
)

// Contract is the metadata record of one uploaded contract file.
type Contract struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewContract carries the fields supplied on insert; id and timestamp are
// assigned by the repository.
type NewContract struct {
	Name string
	Size int64
	URL  string
}

// UploadInput describes an incoming upload. Size is the declared body length;
// zero or negative means unknown.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BlobInfo is what the blob store reports about a written object.
type BlobInfo struct {
	Key  string
	URL  string
	Size int64
}

// CreateOutcome tells what state the two stores were left in by Create.
type CreateOutcome int

const (
	// CreateSucceeded: blob written and record inserted.
	CreateSucceeded CreateOutcome = iota
	// CreateFailed: nothing was left behind in either store.
	CreateFailed
	// CreateFailedOrphan: the record insert failed and the blob could not be
	// removed, so an orphan blob remains.
	CreateFailedOrphan
)

func (o CreateOutcome) String() string {
	switch o {
	case CreateSucceeded:
		return "created"
	case CreateFailed:
		return "failed"
	case CreateFailedOrphan:
		return "failed_orphan_blob"
	default:
		return "unknown"
	}
}

// CreateResult is returned by Service.Create.
type CreateResult struct {
	Contract Contract
	Outcome  CreateOutcome
}

// DeleteOutcome tells what state the two stores were left in by Delete.
type DeleteOutcome int

const (
	// DeleteSucceeded: blob and record removed.
	DeleteSucceeded DeleteOutcome = iota
	// DeleteFailed: the blob step failed or there was no record to remove.
	DeleteFailed
	// DeleteFailedDangling: the blob is gone but the record could not be
	// removed and now points at nothing.
	DeleteFailedDangling
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteSucceeded:
		return "deleted"
	case DeleteFailed:
		return "failed"
	case DeleteFailedDangling:
		return "failed_dangling_record"
	default:
		return "unknown"
	}
}

// DeleteResult is returned by Service.Delete.
type DeleteResult struct {
	Outcome DeleteOutcome
}
