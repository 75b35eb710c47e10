package photos

import "context"

type Repository interface {
	Create(ctx context.Context, p Photo) error
	GetByID(ctx context.Context, id string) (Photo, error)
	// ListByPet ordena por created_at asc.
	ListByPet(ctx context.Context, petID string) ([]Photo, error)
	CountByPet(ctx context.Context, petID string) (int, error)
	Delete(ctx context.Context, id string) error
}
