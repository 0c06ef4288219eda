package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"portal-backend/internal/shared/auth"
	"portal-backend/internal/shared/telemetry"
)

// Session is what a successful register or login hands back to the caller.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      Identity
}

// RegisterInput carries self-service signup fields.
type RegisterInput struct {
	Username   string `validate:"required"`
	Email      string `validate:"required,email"`
	Password   string `validate:"required,min=8"`
	Role       string
	Department string
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// ProfileInput carries an admin edit. Empty fields keep their current value.
type ProfileInput struct {
	Username   string
	Email      string
	Department string
	Role       string
	Status     string
}

type Service struct {
	Repo             Repo
	Hasher           auth.PasswordHasher
	Tokens           *auth.TokenCodec
	Guard            *auth.Guard
	AllowAdminSignup bool
}

func NewService(repo Repo, tokens *auth.TokenCodec, guard *auth.Guard) *Service {
	return &Service{Repo: repo, Tokens: tokens, Guard: guard}
}

// Register creates an account and issues a session for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	role, ok := auth.ParseRole(in.Role)
	if !ok {
		return Session{}, fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
	if role == auth.RoleAdmin && !s.AllowAdminSignup {
		return Session{}, fmt.Errorf("%w: admin accounts cannot self-register", ErrInvalidInput)
	}
	user, err := s.create(ctx, in, role)
	if err != nil {
		return Session{}, err
	}
	return s.issue(user)
}

// CreateUser provisions an account without issuing a session. Any role is allowed.
func (s *Service) CreateUser(ctx context.Context, in RegisterInput) (Identity, error) {
	role, ok := auth.ParseRole(in.Role)
	if !ok {
		return Identity{}, fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
	return s.create(ctx, in, role)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role auth.Role) (Identity, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.TrimSpace(in.Department)
	if err := validate.Struct(in); err != nil {
		return Identity{}, invalidInput(err, in)
	}
	username, email, department := in.Username, in.Email, in.Department
	if role == auth.RoleEmployee && department == "" {
		return Identity{}, fmt.Errorf("%w: department is required for employees", ErrInvalidInput)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return Identity{}, err
	}
	now := time.Now().UTC()
	user := Identity{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Role:         role,
		Status:       StatusActive,
		Department:   department,
		PasswordHash: hash,
		JoinDate:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return Identity{}, storeErr(err)
	}
	telemetry.Info("users.created", map[string]any{"user_id": user.ID, "role": string(user.Role)})
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	creds := loginInput{Email: strings.TrimSpace(email), Password: password}
	if err := validate.Struct(creds); err != nil {
		return Session{}, invalidInput(err, creds)
	}
	user, err := s.Repo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, storeErr(err)
	}
	if err := s.Hasher.Compare(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if user.Status != StatusActive {
		return Session{}, ErrAccountInactive
	}
	return s.issue(user)
}

// Logout revokes the session token when a denylist is configured. Without
// one the token stays valid until it expires.
func (s *Service) Logout(ctx context.Context, rawToken string) (revoked bool, err error) {
	if s.Guard == nil || !s.Guard.CanRevoke() {
		return false, nil
	}
	claims, err := s.Guard.Verify(ctx, rawToken)
	if err != nil {
		return false, err
	}
	if err := s.Guard.Revoke(ctx, claims); err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return true, nil
}

func (s *Service) Get(ctx context.Context, userID string) (Identity, error) {
	if strings.TrimSpace(userID) == "" {
		return Identity{}, ErrNotFound
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return Identity{}, storeErr(err)
	}
	return user, nil
}

func (s *Service) ListEmployees(ctx context.Context, filter Filter) ([]Identity, error) {
	out, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *Service) UpdateStatus(ctx context.Context, userID, rawStatus string) (Identity, error) {
	status, ok := ParseStatus(rawStatus)
	if !ok {
		return Identity{}, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	user.Status = status
	if err := s.Repo.Update(ctx, user); err != nil {
		return Identity{}, storeErr(err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (Identity, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	if v := strings.TrimSpace(in.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		if err := validate.Var(v, "required,email"); err != nil {
			return Identity{}, fmt.Errorf("%w: email must be a valid email address", ErrInvalidInput)
		}
		user.Email = v
	}
	if v := strings.TrimSpace(in.Department); v != "" {
		user.Department = v
	}
	if in.Role != "" {
		role, ok := auth.ParseRole(in.Role)
		if !ok {
			return Identity{}, fmt.Errorf("%w: invalid role", ErrInvalidInput)
		}
		user.Role = role
	}
	if in.Status != "" {
		status, ok := ParseStatus(in.Status)
		if !ok {
			return Identity{}, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		user.Status = status
	}
	if err := s.Repo.Update(ctx, user); err != nil {
		return Identity{}, storeErr(err)
	}
	return user, nil
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	n, err := s.Repo.CountActive(ctx)
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

func (s *Service) issue(user Identity) (Session, error) {
	token, expiresAt, err := s.Tokens.Issue(user.Principal())
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmailTaken):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
