package files

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]File
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]File)}
}

func (r *MemoryRepo) Create(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[f.ID] = f
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.data[id]
	if !ok {
		return File{}, ErrNotFound
	}
	return f, nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.newestFirst(ownerID), nil
}

func (r *MemoryRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.data[id]
	if !ok || f.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) LatestPerOwner(ctx context.Context, category Category, until time.Time) ([]Latest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type key struct {
		owner    string
		category Category
	}
	latest := make(map[key]time.Time)
	r.mu.RLock()
	for _, f := range r.data {
		if category != "" && f.Category != category {
			continue
		}
		if !until.IsZero() && f.CreatedAt.After(until) {
			continue
		}
		k := key{f.OwnerID, f.Category}
		if at, ok := latest[k]; !ok || f.CreatedAt.After(at) {
			latest[k] = f.CreatedAt
		}
	}
	r.mu.RUnlock()

	out := make([]Latest, 0, len(latest))
	for k, at := range latest {
		out = append(out, Latest{OwnerID: k.owner, Category: k.category, At: at})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *MemoryRepo) CountSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, f := range r.data {
		if ownerID != "" && f.OwnerID != ownerID {
			continue
		}
		if !f.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Recent(ctx context.Context, ownerID string, limit int) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := r.newestFirst(ownerID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByCategory returns counts ordered by count descending, then category.
func (r *MemoryRepo) CountByCategory(ctx context.Context, ownerID string) ([]CategoryCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[Category]int)
	r.mu.RLock()
	for _, f := range r.data {
		if ownerID != "" && f.OwnerID != ownerID {
			continue
		}
		counts[f.Category]++
	}
	r.mu.RUnlock()

	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// newestFirst returns ownerID's records (everyone's when empty) by created_at
// descending, ties broken by id.
func (r *MemoryRepo) newestFirst(ownerID string) []File {
	r.mu.RLock()
	out := make([]File, 0)
	for _, f := range r.data {
		if ownerID == "" || f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

var _ Repo = (*MemoryRepo)(nil)
