package users

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo keeps identities in process memory, for dev and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]Identity
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]Identity)}
}

func (r *MemoryRepo) Create(ctx context.Context, user Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTakenLocked(user.Email, "") {
		return ErrEmailTaken
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.JoinDate.IsZero() {
		user.JoinDate = user.CreatedAt
	}
	user.UpdatedAt = now
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := normalizeEmail(email)
	for _, u := range r.users {
		if normalizeEmail(u.Email) == want {
			return u, nil
		}
	}
	return Identity{}, ErrNotFound
}

// List returns matching identities ordered by username, then id.
func (r *MemoryRepo) List(ctx context.Context, filter Filter) ([]Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Identity, 0, len(r.users))
	for _, u := range r.users {
		if filter.matches(u) {
			out = append(out, u)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, user Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if r.emailTakenLocked(user.Email, user.ID) {
		return ErrEmailTaken
	}
	user.CreatedAt = existing.CreatedAt
	user.JoinDate = existing.JoinDate
	user.PasswordHash = existing.PasswordHash
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) CountActive(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, u := range r.users {
		if u.Status == StatusActive {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) emailTakenLocked(email, exceptID string) bool {
	want := normalizeEmail(email)
	for id, u := range r.users {
		if id != exceptID && normalizeEmail(u.Email) == want {
			return true
		}
	}
	return false
}

var _ Repo = (*MemoryRepo)(nil)
