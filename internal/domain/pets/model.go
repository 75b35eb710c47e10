package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesOther:
		return true
	}
	return false
}

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexUnknown:
		return true
	}
	return false
}

// AlertFlags son las alertas médicas que se muestran en el perfil público.
type AlertFlags struct {
	HasAllergies    bool `json:"has_allergies"`
	NeedsMedication bool `json:"needs_medication"`
	SpecialNeeds    bool `json:"special_needs"`
}

// LostStatus: reporte de mascota perdida.
type LostStatus struct {
	IsLost       bool
	LostSince    *time.Time
	LostLocation string
	LostMessage  string
}

// Pet es el perfil de una mascota.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time
	// Age y Weight son texto libre ("3 años", "12 kg").
	Age       string
	Weight    string
	Microchip string

	Bio   string
	Notes string
	// LegacyContacts: contactos cargados como texto libre antes de los slots.
	LegacyContacts string

	IsPublic bool
	Alerts   AlertFlags
	Lost     LostStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Visible: el perfil público solo existe si la mascota es pública o está perdida.
func (p Pet) Visible() bool {
	return p.IsPublic || p.Lost.IsLost
}

// PublicContact es la vista de un contacto en el perfil público.
type PublicContact struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// PublicProfile es lo que ve quien escanea el QR o abre el link compartido.
type PublicProfile struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Species      Species         `json:"species"`
	Breed        string          `json:"breed,omitempty"`
	Sex          Sex             `json:"sex,omitempty"`
	Age          string          `json:"age,omitempty"`
	Weight       string          `json:"weight,omitempty"`
	Bio          string          `json:"bio,omitempty"`
	Alerts       AlertFlags      `json:"alerts"`
	IsLost       bool            `json:"is_lost"`
	LostSince    *time.Time      `json:"lost_since,omitempty"`
	LostLocation string          `json:"lost_location,omitempty"`
	LostMessage  string          `json:"lost_message,omitempty"`
	Contacts     []PublicContact `json:"contacts"`
}
