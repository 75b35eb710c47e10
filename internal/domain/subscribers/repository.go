package subscribers

import "context"

type Repository interface {
	GetByEmail(ctx context.Context, email string) (Subscriber, error)
	// Upsert inserta o actualiza por email.
	Upsert(ctx context.Context, s Subscriber) error
	List(ctx context.Context) ([]Subscriber, error)
}
