package users

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"portal-backend/internal/shared/auth"
)

const uniqueViolation = "23505"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectIdentity = `
SELECT id, username, email, password_hash, role, user_status, department, join_date, created_at, updated_at
FROM users`

func (r *PGRepo) Create(ctx context.Context, user Identity) error {
	const query = `
INSERT INTO users (id, username, email, password_hash, role, user_status, department, join_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.Department,
		nullableTime(user.JoinDate),
	)
	return mapWriteErr(err)
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (Identity, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return Identity{}, ErrNotFound
	}
	return r.getOne(ctx, selectIdentity+`
WHERE id = $1
LIMIT 1`, userID)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (Identity, error) {
	return r.getOne(ctx, selectIdentity+`
WHERE lower(email) = $1
LIMIT 1`, normalizeEmail(email))
}

// List returns matching identities ordered by username, then id.
func (r *PGRepo) List(ctx context.Context, filter Filter) ([]Identity, error) {
	var (
		where []string
		args  []any
	)
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		where = append(where, "role = $"+strconv.Itoa(len(args)))
	}
	if filter.Department != "" {
		args = append(args, strings.ToLower(filter.Department))
		where = append(where, "lower(department) = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "user_status = $"+strconv.Itoa(len(args)))
	}
	query := selectIdentity
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY username ASC, id ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		u, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, user Identity) error {
	if _, err := uuid.Parse(user.ID); err != nil {
		return ErrNotFound
	}
	const query = `
UPDATE users
SET username = $1, email = $2, role = $3, user_status = $4, department = $5, updated_at = now()
WHERE id = $6`
	res, err := r.DB.ExecContext(ctx, query,
		user.Username,
		user.Email,
		string(user.Role),
		string(user.Status),
		user.Department,
		user.ID,
	)
	if err != nil {
		return mapWriteErr(err)
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

func (r *PGRepo) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE user_status = 'active'`
	var n int
	if err := r.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg any) (Identity, error) {
	u, err := scanIdentity(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (Identity, error) {
	var (
		u      Identity
		role   string
		status string
	)
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&role,
		&status,
		&u.Department,
		&u.JoinDate,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return Identity{}, err
	}
	u.Role = auth.Role(role)
	u.Status = Status(status)
	return u, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ Repo = (*PGRepo)(nil)
