package medical

import "time"

// RecordType es la categoría de la ficha médica.
// @Enum vaccination, medication, condition, allergy, visit, procedure, note
type RecordType string

const (
	TypeVaccination RecordType = "vaccination"
	TypeMedication  RecordType = "medication"
	TypeCondition   RecordType = "condition"
	TypeAllergy     RecordType = "allergy"
	TypeVisit       RecordType = "visit"
	TypeProcedure   RecordType = "procedure"
	TypeNote        RecordType = "note"
)

func (t RecordType) Valid() bool {
	switch t {
	case TypeVaccination, TypeMedication, TypeCondition, TypeAllergy, TypeVisit, TypeProcedure, TypeNote:
		return true
	}
	return false
}

type Status string

const (
	StatusActive Status = "active"
	StatusVoided Status = "voided"
)

// Record es una entrada del historial médico. No se borra: se anula (voided).
type Record struct {
	ID    string
	PetID string

	Type  RecordType
	Title string
	Notes string

	OccurredAt time.Time
	// DueAt: próxima dosis / control (opcional).
	DueAt      *time.Time
	RecordedAt time.Time
	RecordedBy string

	Status Status
}

type ListFilter struct {
	Types         []RecordType
	From          *time.Time
	To            *time.Time
	Query         string
	Limit         int
	IncludeVoided bool
}
