package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"portal-backend/internal/files"
	"portal-backend/internal/shared/auth"
)

const recentLimit = 5

// FileStats is the read side of the file store the summary needs. An empty
// ownerID means every owner.
type FileStats interface {
	CountSince(ctx context.Context, ownerID string, since time.Time) (int, error)
	Recent(ctx context.Context, ownerID string, limit int) ([]files.File, error)
	CountByCategory(ctx context.Context, ownerID string) ([]files.CategoryCount, error)
}

// ActiveCounter counts active accounts.
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type Activity struct {
	ID        string    `json:"id"`
	FileName  string    `json:"filename"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Summary struct {
	FilesUploaded  int                   `json:"filesUploaded"`
	TotalEmployees int                   `json:"totalEmployees"`
	RecentActivity []Activity            `json:"recentActivity"`
	Categories     []files.CategoryCount `json:"categories"`
}

type Service struct {
	Files FileStats
	Users ActiveCounter
	now   func() time.Time
}

func NewService(fileStats FileStats, users ActiveCounter) *Service {
	return &Service{Files: fileStats, Users: users, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Summary builds the landing page numbers. Admins see everyone's files,
// employees only their own.
func (s *Service) Summary(ctx context.Context, p auth.Principal) (Summary, error) {
	owner := p.ID
	if p.IsAdmin() {
		owner = ""
	}
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		out    Summary
		recent []files.File
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.Files.CountSince(gctx, owner, monthStart)
		out.FilesUploaded = n
		return err
	})
	g.Go(func() error {
		n, err := s.Users.CountActive(gctx)
		out.TotalEmployees = n
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.Files.Recent(gctx, owner, recentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		out.Categories, err = s.Files.CountByCategory(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("build summary: %w", err)
	}

	out.RecentActivity = make([]Activity, 0, len(recent))
	for _, f := range recent {
		out.RecentActivity = append(out.RecentActivity, Activity{
			ID:        f.ID,
			FileName:  f.FileName,
			Category:  string(f.Category),
			Status:    string(f.Status),
			CreatedAt: f.CreatedAt,
		})
	}
	if out.Categories == nil {
		out.Categories = []files.CategoryCount{}
	}
	return out, nil
}
