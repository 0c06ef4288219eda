package files

import (
	"context"
	"time"
)

// Repo persists file records.
type Repo interface {
	Create(ctx context.Context, f File) error
	GetByID(ctx context.Context, id string) (File, error)
	// ListByOwner returns the owner's records newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]File, error)
	// DeleteOwned removes the record only if ownerID owns it, in one statement.
	// It returns ErrNotFound when nothing was removed.
	DeleteOwned(ctx context.Context, id, ownerID string) error
	// LatestPerOwner returns, per owner and category, the newest record created
	// at or before until. A zero until means no upper bound; an empty category
	// means all categories.
	LatestPerOwner(ctx context.Context, category Category, until time.Time) ([]Latest, error)
	// CountSince counts records created at or after since. An empty ownerID counts everyone's.
	CountSince(ctx context.Context, ownerID string, since time.Time) (int, error)
	Recent(ctx context.Context, ownerID string, limit int) ([]File, error)
	CountByCategory(ctx context.Context, ownerID string) ([]CategoryCount, error)
}
