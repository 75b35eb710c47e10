package entitlements

import "context"

// Resolver responde cuántas mascotas puede tener un usuario.
// Lo implementa subscribers.Service; pets lo consume sin importar ese paquete.
type Resolver interface {
	PetSlots(ctx context.Context, email string) (int, error)
}
