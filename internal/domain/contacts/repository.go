package contacts

import "context"

type Repository interface {
	ListByPet(ctx context.Context, petID string) ([]Contact, error)
	GetByType(ctx context.Context, petID string, t Type) (Contact, error)
	// Upsert inserta o reemplaza el contacto del slot (pet_id, type).
	Upsert(ctx context.Context, c Contact) error
	Delete(ctx context.Context, petID string, t Type) error
	DeleteByPet(ctx context.Context, petID string) error
}
