package care

import "context"

type Repository interface {
	// Get devuelve ErrNotFound si la mascota nunca tuvo instrucciones.
	Get(ctx context.Context, petID string) (Instructions, error)
	Put(ctx context.Context, in Instructions) error
	Delete(ctx context.Context, petID string) error
}
