package users

import (
	"strings"
	"time"

	"portal-backend/internal/shared/auth"
)

// Status is the account state. Identities are deactivated, never deleted.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known account status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// ParseStatus normalizes raw and rejects values outside the closed set.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// Identity is a registered account.
type Identity struct {
	ID           string
	Username     string
	Email        string
	Role         auth.Role
	Status       Status
	Department   string
	PasswordHash string
	JoinDate     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal returns the token-facing view of the identity.
func (i Identity) Principal() auth.Principal {
	return auth.Principal{
		ID:       i.ID,
		Username: i.Username,
		Email:    i.Email,
		Role:     i.Role,
	}
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Role       auth.Role
	Department string
	Status     Status
}

func (f Filter) matches(u Identity) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Department != "" && !strings.EqualFold(u.Department, f.Department) {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
