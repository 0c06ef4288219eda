package users

import "context"

// Repo persists identities. Emails are unique case-insensitively; Create and
// Update report ErrEmailTaken on conflict.
type Repo interface {
	Create(ctx context.Context, user Identity) error
	GetByID(ctx context.Context, userID string) (Identity, error)
	GetByEmail(ctx context.Context, email string) (Identity, error)
	List(ctx context.Context, filter Filter) ([]Identity, error)
	Update(ctx context.Context, user Identity) error
	CountActive(ctx context.Context) (int, error)
}
