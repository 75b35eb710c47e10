package medical

import "context"

type Repository interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	// ListByPet ordena por occurred_at desc.
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Record, error)
	Void(ctx context.Context, id string) error
	DeleteByPet(ctx context.Context, petID string) error
}
