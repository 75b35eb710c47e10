package contacts

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"petport/internal/domain/pets"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("contact not found")
)

// PetStore es lo que contacts necesita de pets.
type PetStore interface {
	GetOwned(ctx context.Context, petID, userID string) (pets.Pet, error)
}

type Service struct {
	repo Repository
	pets PetStore
	now  func() time.Time
}

var _ pets.ContactLister = (*Service)(nil)

func NewService(repo Repository, petStore PetStore) *Service {
	return &Service{
		repo: repo,
		pets: petStore,
		now:  time.Now,
	}
}

func sortBySlot(list []Contact) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Type.rank() < list[j].Type.rank() })
}

// Resolve devuelve los contactos en el orden de slots. Si no hay filas estructuradas
// cae al texto libre de la mascota.
func (s *Service) Resolve(ctx context.Context, p pets.Pet) ([]Contact, error) {
	list, err := s.repo.ListByPet(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return ParseLegacy(p.ID, p.LegacyContacts), nil
	}
	sortBySlot(list)
	return list, nil
}

// ResolveType devuelve el contacto de un slot (estructurado o legacy).
func (s *Service) ResolveType(ctx context.Context, p pets.Pet, t Type) (Contact, error) {
	list, err := s.Resolve(ctx, p)
	if err != nil {
		return Contact{}, err
	}
	for _, c := range list {
		if c.Type == t {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

// PublicContacts implementa pets.ContactLister.
func (s *Service) PublicContacts(ctx context.Context, p pets.Pet) ([]pets.PublicContact, error) {
	list, err := s.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]pets.PublicContact, 0, len(list))
	for _, c := range list {
		out = append(out, pets.PublicContact{Type: string(c.Type), Name: c.Name, Phone: c.Phone, Email: c.Email})
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, petID, userID string) ([]Contact, error) {
	p, err := s.pets.GetOwned(ctx, petID, userID)
	if err != nil {
		return nil, err
	}
	return s.Resolve(ctx, p)
}

type UpsertInput struct {
	Name  string
	Phone string
	Email string
	Notes string
}

func (s *Service) Upsert(ctx context.Context, petID, userID string, t Type, in UpsertInput) (Contact, error) {
	if !t.Valid() {
		return Contact{}, ErrInvalidInput
	}
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	addr := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || (phone == "" && addr == "") {
		return Contact{}, ErrInvalidInput
	}
	if addr != "" && !emailRe.MatchString(addr) {
		return Contact{}, ErrInvalidInput
	}

	p, err := s.pets.GetOwned(ctx, petID, userID)
	if err != nil {
		return Contact{}, err
	}

	now := s.now()
	c := Contact{
		ID:        uuid.NewString(),
		PetID:     p.ID,
		Type:      t,
		Name:      name,
		Phone:     phone,
		Email:     addr,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.repo.GetByType(ctx, p.ID, t); err == nil {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrNotFound) {
		return Contact{}, err
	}

	if err := s.repo.Upsert(ctx, c); err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, petID, userID string, t Type) error {
	if !t.Valid() {
		return ErrInvalidInput
	}
	p, err := s.pets.GetOwned(ctx, petID, userID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID, t)
}

// DeleteByPet es el hook de borrado en cascada de pets.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}
