package files

import (
	"io"
	"strings"
	"time"
)

// Category is the bucket a file is filed under. The set is closed.
type Category string

const (
	CategoryHRDocuments          Category = "HR Documents"
	CategoryTaxForms             Category = "Tax Forms"
	CategoryContracts            Category = "Contracts"
	CategoryPerformanceReviews   Category = "Performance Reviews"
	CategoryTrainingCertificates Category = "Training Certificates"
	CategoryMedicalRecords       Category = "Medical Records"
	CategoryOther                Category = "Other"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryHRDocuments,
	CategoryTaxForms,
	CategoryContracts,
	CategoryPerformanceReviews,
	CategoryTrainingCertificates,
	CategoryMedicalRecords,
	CategoryOther,
}

// ParseCategory matches raw against the closed list, ignoring case and
// surrounding whitespace.
func ParseCategory(raw string) (Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingCategory
	}
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// Status of a file record. Records only exist while uploaded; deletion removes them.
type Status string

const StatusUploaded Status = "uploaded"

// File is the metadata of one stored document.
type File struct {
	ID          string
	OwnerID     string
	FileName    string
	StorageKey  string
	MimeType    string
	SizeBytes   int64
	Category    Category
	Description string
	Status      Status
	CreatedAt   time.Time
}

// Upload is one payload of a Store batch.
type Upload struct {
	FileName string
	Body     io.Reader
}

// Latest is the newest record an owner has in a category.
type Latest struct {
	OwnerID  string
	Category Category
	At       time.Time
}

// CategoryCount is the number of records in one category.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}
