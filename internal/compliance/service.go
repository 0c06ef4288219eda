package compliance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"portal-backend/internal/files"
	"portal-backend/internal/shared/metrics"
)

// EmployeeSource lists the identities a report covers.
type EmployeeSource interface {
	Employees(ctx context.Context, department string) ([]Employee, error)
}

// SubmissionSource yields each owner's newest record per category.
type SubmissionSource interface {
	LatestPerOwner(ctx context.Context, category files.Category, until time.Time) ([]files.Latest, error)
}

type Service struct {
	Employees   EmployeeSource
	Submissions SubmissionSource
	GracePeriod time.Duration
	now         func() time.Time
}

func NewService(employees EmployeeSource, submissions SubmissionSource, grace time.Duration) *Service {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Service{Employees: employees, Submissions: submissions, GracePeriod: grace, now: time.Now}
}

// WithClock overrides the reference time used for all-time reports.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type ownerCategory struct {
	owner    string
	category files.Category
}

// Compute derives one row per (employee, category), ordered by employee name,
// then category, then id.
//
// With a window: uploaded if a record falls inside it; overdue if the newest
// earlier record precedes the window start by more than the grace period;
// pending otherwise. Without a window: uploaded if the newest record is within
// the grace period of now, overdue if older, missing if there is none.
// DaysOverdue counts whole days from the record to the window start, or to now.
func (s *Service) Compute(ctx context.Context, q Query) ([]Row, error) {
	start := time.Now()
	defer func() { metrics.ObserveComplianceDuration(time.Since(start)) }()

	categories := files.Categories
	var categoryFilter files.Category
	if !isAll(q.Category) {
		c, err := files.ParseCategory(q.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		categoryFilter = c
		categories = []files.Category{c}
	}
	department := ""
	if !isAll(q.Department) {
		department = strings.TrimSpace(q.Department)
	}
	if q.Window != nil && q.Window.End.Before(q.Window.Start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidWindow)
	}

	employees, err := s.Employees.Employees(ctx, department)
	if err != nil {
		return nil, storeErr(err)
	}

	var until time.Time
	if q.Window != nil {
		until = q.Window.End
	}
	latest, err := s.Submissions.LatestPerOwner(ctx, categoryFilter, until)
	if err != nil {
		return nil, storeErr(err)
	}
	last := make(map[ownerCategory]time.Time, len(latest))
	for _, l := range latest {
		last[ownerCategory{l.OwnerID, l.Category}] = l.At
	}

	now := s.now().UTC()
	rows := make([]Row, 0, len(employees)*len(categories))
	for _, e := range employees {
		for _, c := range categories {
			at, ok := last[ownerCategory{e.ID, c}]
			row := Row{
				EmployeeID:   e.ID,
				EmployeeName: e.Name,
				Department:   e.Department,
				Category:     string(c),
			}
			if ok {
				t := at.UTC()
				row.LastUpload = &t
			}
			if q.Window != nil {
				row.Status, row.DaysOverdue = s.windowStatus(*q.Window, at, ok)
			} else {
				row.Status, row.DaysOverdue = s.allTimeStatus(now, at, ok)
			}
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.EmployeeName != b.EmployeeName {
			return a.EmployeeName < b.EmployeeName
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.EmployeeID < b.EmployeeID
	})
	return rows, nil
}

func (s *Service) windowStatus(w Window, last time.Time, ok bool) (Status, *int) {
	switch {
	case ok && w.Contains(last):
		return StatusUploaded, nil
	case ok && last.Before(w.Start) && w.Start.Sub(last) > s.GracePeriod:
		return StatusOverdue, wholeDays(w.Start.Sub(last))
	default:
		return StatusPending, nil
	}
}

func (s *Service) allTimeStatus(now, last time.Time, ok bool) (Status, *int) {
	switch {
	case !ok:
		return StatusMissing, nil
	case now.Sub(last) <= s.GracePeriod:
		return StatusUploaded, nil
	default:
		return StatusOverdue, wholeDays(now.Sub(last))
	}
}

func wholeDays(d time.Duration) *int {
	n := int(d / (24 * time.Hour))
	return &n
}

func storeErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
