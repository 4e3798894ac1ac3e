package contracts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo stores contracts in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Contract
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Contract),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores the contract.
func (r *MemoryRepo) Create(ctx context.Context, c Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[c.ID]; exists {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidInput, c.ID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	r.byID[c.ID] = c
	return nil
}

// GetByID returns a contract by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Contract, error) {
	if err := ctx.Err(); err != nil {
		return Contract{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return Contract{}, ErrNotFound
	}
	return c, nil
}

// UpdateFields applies u to the stored contract under the write lock.
func (r *MemoryRepo) UpdateFields(ctx context.Context, id string, u Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if u.Status != nil {
		if !c.Status.CanTransitionTo(*u.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, *u.Status)
		}
		c.Status = *u.Status
	}
	if u.Score != nil {
		c.Score = *u.Score
	}
	if u.ErrorMessage != nil {
		c.ErrorMessage = *u.ErrorMessage
	}
	if u.RawText != nil {
		c.RawText = *u.RawText
	}
	if u.Fields != nil {
		c.Fields = *u.Fields
	}
	c.UpdatedAt = r.now()
	r.byID[id] = c
	return nil
}

// List filters, sorts and pages contracts the same way PGRepo does.
func (r *MemoryRepo) List(ctx context.Context, f ListFilter) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	f = f.Normalize()
	search := strings.ToLower(strings.TrimSpace(f.Search))

	r.mu.RLock()
	matched := make([]Contract, 0, len(r.byID))
	for _, c := range r.byID {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.MinScore != nil && c.Score < *f.MinScore {
			continue
		}
		if f.MaxScore != nil && c.Score > *f.MaxScore {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.FileName), search) && !strings.Contains(strings.ToLower(c.ID), search) {
			continue
		}
		c.RawText = ""
		matched = append(matched, c)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		cmp := compareBy(f.SortBy, a, b)
		if cmp == 0 {
			return a.ID < b.ID
		}
		if f.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})

	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return newPage(matched[start:end], total, f), nil
}

func compareBy(col string, a, b Contract) int {
	switch col {
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortScore:
		return a.Score - b.Score
	case SortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case SortFileName:
		return strings.Compare(a.FileName, b.FileName)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

var _ Repo = (*MemoryRepo)(nil)
