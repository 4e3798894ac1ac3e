package contracts

import "context"

// Repo persists contracts. UpdateFields is an atomic partial update keyed by id;
// when it carries a Status, the stored status must be allowed to transition to it.
type Repo interface {
	Create(ctx context.Context, c Contract) error
	GetByID(ctx context.Context, id string) (Contract, error)
	UpdateFields(ctx context.Context, id string, u Update) error
	List(ctx context.Context, f ListFilter) (Page, error)
}
