package compliance

import (
	"fmt"
	"strings"
	"time"
)

// Status is the submission state of one employee in one category.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusPending  Status = "pending"
	StatusOverdue  Status = "overdue"
	StatusMissing  Status = "missing"
)

// DefaultGracePeriod is how old a submission may get before it is overdue.
const DefaultGracePeriod = 30 * 24 * time.Hour

// Window is an inclusive reporting interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ParseMonth turns "YYYY-MM" into the whole calendar month in UTC.
func ParseMonth(raw string) (Window, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(raw))
	if err != nil {
		return Window{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidWindow)
	}
	start = start.UTC()
	return Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}, nil
}

// Query selects what a report covers. A nil Window means all time. Empty or
// "all" filters match everything.
type Query struct {
	Window     *Window
	Category   string
	Department string
}

// Employee is the slice of an identity the report needs.
type Employee struct {
	ID         string
	Name       string
	Department string
}

// Row is one employee's status in one category. It is derived per request
// and never stored.
type Row struct {
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	Department   string     `json:"department"`
	Category     string     `json:"category"`
	LastUpload   *time.Time `json:"lastUpload"`
	Status       Status     `json:"status"`
	DaysOverdue  *int       `json:"daysOverdue"`
}

// Summary counts rows per status.
type Summary struct {
	Total    int `json:"total"`
	Uploaded int `json:"uploaded"`
	Pending  int `json:"pending"`
	Overdue  int `json:"overdue"`
	Missing  int `json:"missing"`
}

// Summarize tallies rows by status.
func Summarize(rows []Row) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case StatusUploaded:
			s.Uploaded++
		case StatusPending:
			s.Pending++
		case StatusOverdue:
			s.Overdue++
		case StatusMissing:
			s.Missing++
		}
	}
	return s
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}
