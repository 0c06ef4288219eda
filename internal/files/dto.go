package files

import (
	"errors"
	"time"
)

// FileResponse is the outward-facing representation of a file record.
type FileResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"filename"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type failureResponse struct {
	FileName string `json:"filename"`
	Error    string `json:"error"`
}

func toResponse(f File) FileResponse {
	return FileResponse{
		ID:          f.ID,
		FileName:    f.FileName,
		MimeType:    f.MimeType,
		SizeBytes:   f.SizeBytes,
		Category:    string(f.Category),
		Description: f.Description,
		Status:      string(f.Status),
		OwnerID:     f.OwnerID,
		CreatedAt:   f.CreatedAt,
	}
}

func toResponses(list []File) []FileResponse {
	out := make([]FileResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toResponse(f))
	}
	return out
}

// failureMessage keeps raw store errors out of responses.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFileName):
		return "invalid file name"
	case errors.Is(err, ErrStoreUnavailable):
		return "storage unavailable"
	default:
		return "upload failed"
	}
}
