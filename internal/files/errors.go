package files

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("file not found")
	ErrForbidden           = errors.New("file access forbidden")
	ErrNoFilesProvided     = errors.New("no files provided")
	ErrMissingCategory     = errors.New("category is required")
	ErrInvalidCategory     = errors.New("unknown category")
	ErrInvalidFileName     = errors.New("invalid file name")
	ErrUnauthenticated     = errors.New("owner could not be resolved")
	ErrBackingBytesMissing = errors.New("stored bytes missing for file record")
	ErrStoreUnavailable    = errors.New("file store unavailable")
)

// UploadFailure describes one payload of a batch that was not stored.
type UploadFailure struct {
	Index    int
	FileName string
	Err      error
}

// BatchError reports the payloads of a Store batch that failed. Payloads not
// listed were stored and recorded.
type BatchError struct {
	Failures []UploadFailure
}

func (e *BatchError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.FileName)
	}
	return fmt.Sprintf("%d file(s) failed to upload: %s", len(e.Failures), strings.Join(names, ", "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
