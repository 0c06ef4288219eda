package files

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectFile = `
SELECT id, user_id, filename, storage_key, mime_type, size_bytes, category, description, status, created_at
FROM files`

func (r *PGRepo) Create(ctx context.Context, f File) error {
	const query = `
INSERT INTO files (
    id,
    user_id,
    filename,
    storage_key,
    mime_type,
    size_bytes,
    category,
    description,
    status,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		f.ID,
		f.OwnerID,
		f.FileName,
		f.StorageKey,
		f.MimeType,
		f.SizeBytes,
		string(f.Category),
		nullableString(f.Description),
		string(f.Status),
		f.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (File, error) {
	if !validID(id) {
		return File{}, ErrNotFound
	}
	const query = selectFile + `
WHERE id = $1
LIMIT 1`
	f, err := scanFile(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, err
	}
	return f, nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]File, error) {
	const query = selectFile + `
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PGRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	if !validID(id) || !validID(ownerID) {
		return ErrNotFound
	}
	const query = `DELETE FROM files WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) LatestPerOwner(ctx context.Context, category Category, until time.Time) ([]Latest, error) {
	const query = `
SELECT user_id, category, MAX(created_at)
FROM files
WHERE ($1 = '' OR category = $1)
  AND ($2::timestamptz IS NULL OR created_at <= $2)
GROUP BY user_id, category
ORDER BY user_id, category`
	var bound any
	if !until.IsZero() {
		bound = until
	}
	rows, err := r.DB.QueryContext(ctx, query, string(category), bound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Latest
	for rows.Next() {
		var (
			l   Latest
			cat string
		)
		if err := rows.Scan(&l.OwnerID, &cat, &l.At); err != nil {
			return nil, err
		}
		l.Category = Category(cat)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM files
WHERE ($1 = '' OR user_id::text = $1)
  AND created_at >= $2`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, ownerID, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PGRepo) Recent(ctx context.Context, ownerID string, limit int) ([]File, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = selectFile + `
WHERE ($1 = '' OR user_id::text = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2`
	return r.list(ctx, query, ownerID, limit)
}

func (r *PGRepo) CountByCategory(ctx context.Context, ownerID string) ([]CategoryCount, error) {
	const query = `
SELECT category, COUNT(*) AS count
FROM files
WHERE ($1 = '' OR user_id::text = $1)
GROUP BY category
ORDER BY count DESC, category ASC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var (
			cc  CategoryCount
			cat string
		)
		if err := rows.Scan(&cat, &cc.Count); err != nil {
			return nil, err
		}
		cc.Category = Category(cat)
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *PGRepo) list(ctx context.Context, query string, args ...any) ([]File, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (File, error) {
	var (
		f           File
		category    string
		status      string
		description sql.NullString
	)
	if err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.FileName,
		&f.StorageKey,
		&f.MimeType,
		&f.SizeBytes,
		&category,
		&description,
		&status,
		&f.CreatedAt,
	); err != nil {
		return File{}, err
	}
	f.Category = Category(category)
	f.Status = Status(status)
	if description.Valid {
		f.Description = description.String
	}
	return f, nil
}

// validID guards uuid columns so malformed ids read as missing, not as store errors.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
