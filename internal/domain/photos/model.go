package photos

import "time"

// Photo es una imagen de la galería de la mascota. El binario vive en el media store.
type Photo struct {
	ID       string
	PetID    string
	URL      string
	PublicID string
	Caption  string

	CreatedAt time.Time
}
