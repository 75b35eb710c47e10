package contacts

import "time"

// Type es el slot del contacto. Hay a lo sumo un contacto por (mascota, slot).
// @Enum emergency, secondary_emergency, veterinary, caretaker
type Type string

const (
	TypeEmergency          Type = "emergency"
	TypeSecondaryEmergency Type = "secondary_emergency"
	TypeVeterinary         Type = "veterinary"
	TypeCaretaker          Type = "caretaker"
)

// Order es el orden fijo de los cuatro slots.
var Order = []Type{TypeEmergency, TypeSecondaryEmergency, TypeVeterinary, TypeCaretaker}

func (t Type) Valid() bool {
	return t.rank() >= 0
}

func (t Type) rank() int {
	for i, o := range Order {
		if o == t {
			return i
		}
	}
	return -1
}

type Contact struct {
	ID    string
	PetID string
	Type  Type

	Name  string
	Phone string
	Email string
	Notes string

	// Legacy: parseado del texto libre, no existe como fila.
	Legacy bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
