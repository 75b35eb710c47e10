package reviews

import "context"

type Repository interface {
	Create(ctx context.Context, r Review) error
	GetByID(ctx context.Context, id string) (Review, error)
	// ListByStatus ordena por created_at desc.
	ListByStatus(ctx context.Context, status Status, limit int) ([]Review, error)
	// Moderate cambia el status solo si la review sigue pending.
	// Devuelve ErrBadState si ya fue moderada.
	Moderate(ctx context.Context, r Review) error
}
