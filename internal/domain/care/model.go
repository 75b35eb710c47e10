package care

import "time"

// Instructions es el documento de cuidados de una mascota (uno por mascota).
type Instructions struct {
	PetID string

	Feeding    string
	Medication string
	Exercise   string
	Behavior   string
	Grooming   string
	Other      string

	UpdatedBy string
	UpdatedAt time.Time
}

// Empty: sin ningún texto cargado.
func (i Instructions) Empty() bool {
	return i.Feeding == "" && i.Medication == "" && i.Exercise == "" &&
		i.Behavior == "" && i.Grooming == "" && i.Other == ""
}
