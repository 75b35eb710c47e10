package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petport/internal/platform/logger"
	"petport/internal/ports/entitlements"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
	ErrForbidden    = errors.New("forbidden")
	ErrPetLimit     = errors.New("pet limit reached")
)

const dateLayout = "2006-01-02"

// DeleteHook borra lo que cuelga de una mascota (contactos, fichas, fotos...).
type DeleteHook func(ctx context.Context, petID string) error

// ContactLister resuelve los contactos públicos de una mascota; lo implementa contacts.
type ContactLister interface {
	PublicContacts(ctx context.Context, p Pet) ([]PublicContact, error)
}

type Service struct {
	repo     Repository
	slots    entitlements.Resolver
	contacts ContactLister
	hooks    []DeleteHook
	log      logger.Logger
	now      func() time.Time
}

// NewService: slots nil => sin límite de mascotas (dev).
func NewService(repo Repository, slots entitlements.Resolver, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		slots: slots,
		log:   log,
		now:   time.Now,
	}
}

func (s *Service) SetContactLister(c ContactLister) {
	s.contacts = c
}

// AddDeleteHook registra un borrado en cascada. Se ejecutan en orden de registro.
func (s *Service) AddDeleteHook(h DeleteHook) {
	s.hooks = append(s.hooks, h)
}

type CreateInput struct {
	Name           string
	Species        string
	Breed          string
	Sex            string
	BirthDate      *time.Time
	Age            string
	Weight         string
	Microchip      string
	Bio            string
	Notes          string
	LegacyContacts string
	IsPublic       bool
	Alerts         AlertFlags
}

func (s *Service) Create(ctx context.Context, ownerUserID, ownerEmail string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}
	species := Species(strings.ToLower(strings.TrimSpace(in.Species)))
	if !species.Valid() {
		return Pet{}, ErrInvalidInput
	}
	sex := Sex(strings.ToLower(strings.TrimSpace(in.Sex)))
	if sex == "" {
		sex = SexUnknown
	}
	if !sex.Valid() {
		return Pet{}, ErrInvalidInput
	}

	if err := s.checkSlots(ctx, ownerUserID, ownerEmail); err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := Pet{
		ID:             uuid.NewString(),
		OwnerUserID:    ownerUserID,
		Name:           strings.TrimSpace(in.Name),
		Species:        species,
		Breed:          strings.TrimSpace(in.Breed),
		Sex:            sex,
		BirthDate:      in.BirthDate,
		Age:            strings.TrimSpace(in.Age),
		Weight:         strings.TrimSpace(in.Weight),
		Microchip:      strings.TrimSpace(in.Microchip),
		Bio:            strings.TrimSpace(in.Bio),
		Notes:          strings.TrimSpace(in.Notes),
		LegacyContacts: strings.TrimSpace(in.LegacyContacts),
		IsPublic:       in.IsPublic,
		Alerts:         in.Alerts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// checkSlots: las mascotas del dueño deben quedar por debajo de los slots contratados.
func (s *Service) checkSlots(ctx context.Context, ownerUserID, ownerEmail string) error {
	if s.slots == nil {
		return nil
	}
	limit, err := s.slots.PetSlots(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("resolve pet slots: %w", err)
	}
	n, err := s.repo.CountByOwner(ctx, ownerUserID)
	if err != nil {
		return err
	}
	if n >= limit {
		return ErrPetLimit
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// BirthDatePatch distingue "no enviado" de "birth_date": null (limpiar).
type BirthDatePatch struct {
	Present bool
	Value   *string
}

// UpdateProfileInput: nil = no tocar.
type UpdateProfileInput struct {
	Name            *string
	Species         *string
	Breed           *string
	Sex             *string
	BirthDate       BirthDatePatch
	Age             *string
	Weight          *string
	Microchip       *string
	Bio             *string
	Notes           *string
	LegacyContacts  *string
	IsPublic        *bool
	HasAllergies    *bool
	NeedsMedication *bool
	SpecialNeeds    *bool
}

func (s *Service) UpdateProfile(ctx context.Context, petID, userID string, in UpdateProfileInput) (Pet, error) {
	p, err := s.GetOwned(ctx, petID, userID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Species != nil {
		sp := Species(strings.ToLower(strings.TrimSpace(*in.Species)))
		if !sp.Valid() {
			return Pet{}, ErrInvalidInput
		}
		p.Species = sp
	}
	if in.Sex != nil {
		sx := Sex(strings.ToLower(strings.TrimSpace(*in.Sex)))
		if !sx.Valid() {
			return Pet{}, ErrInvalidInput
		}
		p.Sex = sx
	}
	if in.BirthDate.Present {
		if in.BirthDate.Value == nil || strings.TrimSpace(*in.BirthDate.Value) == "" {
			p.BirthDate = nil
		} else {
			t, err := time.Parse(dateLayout, strings.TrimSpace(*in.BirthDate.Value))
			if err != nil {
				return Pet{}, ErrInvalidInput
			}
			p.BirthDate = &t
		}
	}
	setString(&p.Breed, in.Breed)
	setString(&p.Age, in.Age)
	setString(&p.Weight, in.Weight)
	setString(&p.Microchip, in.Microchip)
	setString(&p.Bio, in.Bio)
	setString(&p.Notes, in.Notes)
	setString(&p.LegacyContacts, in.LegacyContacts)
	setBool(&p.IsPublic, in.IsPublic)
	setBool(&p.Alerts.HasAllergies, in.HasAllergies)
	setBool(&p.Alerts.NeedsMedication, in.NeedsMedication)
	setBool(&p.Alerts.SpecialNeeds, in.SpecialNeeds)

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Delete borra la mascota y todo lo que cuelga de ella. Si un hook falla la mascota queda.
func (s *Service) Delete(ctx context.Context, petID, userID string) error {
	p, err := s.GetOwned(ctx, petID, userID)
	if err != nil {
		return err
	}
	for _, h := range s.hooks {
		if err := h(ctx, p.ID); err != nil {
			return fmt.Errorf("delete pet %s: %w", p.ID, err)
		}
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return err
	}
	s.log.Info("pet deleted", map[string]any{"pet_id": p.ID, "owner_user_id": userID})
	return nil
}

type LostInput struct {
	Location string
	Message  string
}

// ReportLost marca la mascota como perdida. Reportar de nuevo actualiza lugar y mensaje
// pero conserva lost_since.
func (s *Service) ReportLost(ctx context.Context, petID, userID string, in LostInput) (Pet, error) {
	p, err := s.GetOwned(ctx, petID, userID)
	if err != nil {
		return Pet{}, err
	}
	now := s.now()
	if !p.Lost.IsLost || p.Lost.LostSince == nil {
		p.Lost.LostSince = &now
	}
	p.Lost.IsLost = true
	p.Lost.LostLocation = strings.TrimSpace(in.Location)
	p.Lost.LostMessage = strings.TrimSpace(in.Message)
	p.UpdatedAt = now

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	s.log.Info("pet reported lost", map[string]any{"pet_id": p.ID})
	return p, nil
}

func (s *Service) MarkFound(ctx context.Context, petID, userID string) (Pet, error) {
	p, err := s.GetOwned(ctx, petID, userID)
	if err != nil {
		return Pet{}, err
	}
	p.Lost = LostStatus{}
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// PublicProfile: sin auth. Una mascota privada y no perdida se reporta como inexistente.
func (s *Service) PublicProfile(ctx context.Context, petID string) (PublicProfile, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return PublicProfile{}, err
	}
	if !p.Visible() {
		return PublicProfile{}, ErrNotFound
	}

	contacts := []PublicContact{}
	if s.contacts != nil {
		list, err := s.contacts.PublicContacts(ctx, p)
		if err != nil {
			return PublicProfile{}, err
		}
		contacts = list
	}

	return PublicProfile{
		ID:           p.ID,
		Name:         p.Name,
		Species:      p.Species,
		Breed:        p.Breed,
		Sex:          p.Sex,
		Age:          p.Age,
		Weight:       p.Weight,
		Bio:          p.Bio,
		Alerts:       p.Alerts,
		IsLost:       p.Lost.IsLost,
		LostSince:    p.Lost.LostSince,
		LostLocation: p.Lost.LostLocation,
		LostMessage:  p.Lost.LostMessage,
		Contacts:     contacts,
	}, nil
}
