package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"portal-backend/internal/shared/auth"
	"portal-backend/internal/shared/metrics"
	"portal-backend/internal/shared/storage/object"
	"portal-backend/internal/shared/telemetry"
	"portal-backend/internal/shared/util"
)

// Service owns the file record lifecycle. Bytes go to Objects, metadata to Repo.
type Service struct {
	Objects object.ObjectStore
	Repo    Repo
	now     func() time.Time
}

func NewService(objects object.ObjectStore, repo Repo) *Service {
	return &Service{Objects: objects, Repo: repo, now: time.Now}
}

// WithClock overrides the time source used for createdAt.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Store persists each upload's bytes and then its record. A failed payload
// does not undo earlier ones: the returned slice holds every stored record and
// a *BatchError lists the rest.
func (s *Service) Store(ctx context.Context, ownerID, category, description string, uploads []Upload) ([]File, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrUnauthenticated
	}
	if len(uploads) == 0 {
		return nil, ErrNoFilesProvided
	}
	cat, err := ParseCategory(category)
	if err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)

	var (
		stored   []File
		failures []UploadFailure
	)
	for i, up := range uploads {
		f, err := s.storeOne(ctx, ownerID, cat, description, up)
		if err != nil {
			metrics.IncUploadFailure()
			telemetry.Warn("files.upload_failed", map[string]any{
				"user_id":   ownerID,
				"file_name": up.FileName,
				"index":     i,
				"err":       err.Error(),
			})
			failures = append(failures, UploadFailure{Index: i, FileName: up.FileName, Err: err})
			continue
		}
		metrics.IncFilesStored()
		stored = append(stored, f)
	}

	if len(failures) > 0 {
		return stored, &BatchError{Failures: failures}
	}
	return stored, nil
}

func (s *Service) storeOne(ctx context.Context, ownerID string, cat Category, description string, up Upload) (File, error) {
	name, err := util.SanitizeFileName(up.FileName)
	if err != nil || up.Body == nil {
		return File{}, ErrInvalidFileName
	}

	key, size, mimeType, err := s.Objects.Save(ctx, ownerID, name, up.Body)
	if err != nil {
		return File{}, storeErr(err)
	}

	f := File{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		FileName:    name,
		StorageKey:  key,
		MimeType:    mimeType,
		SizeBytes:   size,
		Category:    cat,
		Description: description,
		Status:      StatusUploaded,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, f); err != nil {
		// The bytes have no record pointing at them; drop them.
		if delErr := s.Objects.Delete(ctx, key); delErr != nil {
			telemetry.Warn("files.unreferenced_object", map[string]any{
				"storage_key": key,
				"err":         delErr.Error(),
			})
		}
		return File{}, storeErr(err)
	}
	return f, nil
}

// ListOwned returns ownerID's records, newest first.
func (s *Service) ListOwned(ctx context.Context, ownerID string) ([]File, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrUnauthenticated
	}
	out, err := s.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// Read opens a file's bytes. Admins may read any file; everyone else only
// their own. The caller must close the reader.
func (s *Service) Read(ctx context.Context, fileID string, requester auth.Principal) (io.ReadCloser, File, error) {
	if requester.ID == "" {
		return nil, File{}, ErrUnauthenticated
	}
	f, err := s.Repo.GetByID(ctx, fileID)
	if err != nil {
		metrics.IncDownload("not_found")
		return nil, File{}, storeErr(err)
	}
	if !requester.IsAdmin() && f.OwnerID != requester.ID {
		metrics.IncDownload("forbidden")
		return nil, File{}, ErrForbidden
	}

	rc, err := s.Objects.Open(ctx, f.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrObjectNotFound) {
			metrics.IncDownload("bytes_missing")
			metrics.IncOrphanedRecord()
			telemetry.Error("files.orphaned_record", map[string]any{
				"file_id":     f.ID,
				"storage_key": f.StorageKey,
			})
			return nil, File{}, ErrBackingBytesMissing
		}
		metrics.IncDownload("error")
		return nil, File{}, storeErr(err)
	}
	metrics.IncDownload("ok")
	return rc, f, nil
}

// Delete removes a file. Only the owner may delete, admins included; any
// other requester gets ErrNotFound. Missing bytes are logged, not fatal.
func (s *Service) Delete(ctx context.Context, fileID string, requester auth.Principal) error {
	if requester.ID == "" {
		return ErrUnauthenticated
	}
	f, err := s.Repo.GetByID(ctx, fileID)
	if err != nil {
		return storeErr(err)
	}
	if f.OwnerID != requester.ID {
		return ErrNotFound
	}

	if err := s.Objects.Delete(ctx, f.StorageKey); err != nil {
		if errors.Is(err, object.ErrObjectNotFound) {
			metrics.IncOrphanedRecord()
			telemetry.Warn("files.orphaned_record", map[string]any{
				"file_id":     f.ID,
				"storage_key": f.StorageKey,
			})
		} else {
			telemetry.Warn("files.object_delete_failed", map[string]any{
				"file_id":     f.ID,
				"storage_key": f.StorageKey,
				"err":         err.Error(),
			})
		}
	}

	if err := s.Repo.DeleteOwned(ctx, f.ID, requester.ID); err != nil {
		return storeErr(err)
	}
	metrics.IncFilesDeleted()
	return nil
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
