package contracts

import (
	"time"

	"contract-backend/internal/fields"
)

// Status is the lifecycle state of a contract's processing run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return st, true
	}
	return "", false
}

// Terminal reports whether s ends a run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo encodes the run state machine. Any state may start a new
// run; a run in progress may only end as completed or failed.
func (s Status) CanTransitionTo(next Status) bool {
	switch next {
	case StatusProcessing:
		return true
	case StatusCompleted, StatusFailed:
		return s == StatusProcessing
	default:
		return false
	}
}

// allowedFrom lists the states from which next can be reached.
func allowedFrom(next Status) []Status {
	var out []Status
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// Contract is an uploaded contract document and the outcome of its latest run.
type Contract struct {
	ID           string        `json:"id"`
	FileName     string        `json:"file_name"`
	StorageKey   string        `json:"-"`
	MimeType     string        `json:"mime_type"`
	SizeBytes    int64         `json:"size_bytes"`
	Status       Status        `json:"status"`
	Score        int           `json:"score"`
	ErrorMessage string        `json:"error,omitempty"`
	RawText      string        `json:"raw_text,omitempty"`
	Fields       fields.Fields `json:"fields"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Update is a partial update of one contract. Nil pointers leave the column unchanged.
type Update struct {
	Status       *Status
	Score        *int
	ErrorMessage *string
	RawText      *string
	Fields       *fields.Fields
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.Status == nil && u.Score == nil && u.ErrorMessage == nil && u.RawText == nil && u.Fields == nil
}

// Sort columns accepted by List.
const (
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
	SortScore     = "score"
	SortStatus    = "status"
	SortFileName  = "file_name"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListFilter selects and orders contracts for List.
type ListFilter struct {
	Page     int
	Limit    int
	Status   Status
	MinScore *int
	MaxScore *int
	Search   string
	SortBy   string
	SortDesc bool
}

// Normalize fills defaults and clamps paging.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	switch f.SortBy {
	case SortCreatedAt, SortUpdatedAt, SortScore, SortStatus, SortFileName:
	default:
		f.SortBy = SortCreatedAt
		f.SortDesc = true
	}
	return f
}

// Offset returns the number of rows skipped for the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Page is one page of List results.
type Page struct {
	Contracts  []Contract
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

func newPage(items []Contract, total int, f ListFilter) Page {
	pages := 0
	if total > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	if items == nil {
		items = []Contract{}
	}
	return Page{Contracts: items, Total: total, Page: f.Page, Limit: f.Limit, TotalPages: pages}
}
