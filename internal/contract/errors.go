package contract

import "errors"

var (
	// ErrMissingFilename is returned when an upload has no target filename.
	ErrMissingFilename = errors.New("filename is required")
	// ErrMissingBody is returned when an upload carries no bytes.
	ErrMissingBody = errors.New("request body is required")
	// ErrMissingID is returned when a delete names no record.
	ErrMissingID = errors.New("id is required")
	// ErrMissingURL is returned when a delete names no blob.
	ErrMissingURL = errors.New("url is required")
	// ErrContractNotFound signals that the record could not be located.
	ErrContractNotFound = errors.New("contract not found")
	// ErrFileTooLarge signals that the upload exceeds configured limits.
	ErrFileTooLarge = errors.New("file too large")
	// ErrBlobStore wraps failures of the blob store.
	ErrBlobStore = errors.New("blob store error")
	// ErrDatabase wraps failures of the metadata store.
	ErrDatabase = errors.New("database error")
	// ErrForeignURL is returned for blob URLs outside the configured store.
	ErrForeignURL = errors.New("url does not belong to the blob store")
)

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingFilename) ||
		errors.Is(err, ErrMissingBody) ||
		errors.Is(err, ErrMissingID) ||
		errors.Is(err, ErrMissingURL)
}
