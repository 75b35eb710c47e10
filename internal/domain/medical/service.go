package medical

import (
	"context"
	"errors"
	"strings"
	"time"

	"petport/internal/domain/pets"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("record not found")
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type PetStore interface {
	GetOwned(ctx context.Context, petID, userID string) (pets.Pet, error)
}

type Service struct {
	repo Repository
	pets PetStore
	now  func() time.Time
}

func NewService(repo Repository, petStore PetStore) *Service {
	return &Service{
		repo: repo,
		pets: petStore,
		now:  time.Now,
	}
}

type CreateInput struct {
	Type       RecordType
	Title      string
	Notes      string
	OccurredAt time.Time
	DueAt      *time.Time
}

func (s *Service) Create(ctx context.Context, petID, userID string, in CreateInput) (Record, error) {
	if !in.Type.Valid() || in.OccurredAt.IsZero() {
		return Record{}, ErrInvalidInput
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Record{}, ErrInvalidInput
	}
	if in.DueAt != nil && in.DueAt.Before(in.OccurredAt) {
		return Record{}, ErrInvalidInput
	}

	p, err := s.pets.GetOwned(ctx, petID, userID)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:         uuid.NewString(),
		PetID:      p.ID,
		Type:       in.Type,
		Title:      title,
		Notes:      strings.TrimSpace(in.Notes),
		OccurredAt: in.OccurredAt,
		DueAt:      in.DueAt,
		RecordedAt: s.now(),
		RecordedBy: userID,
		Status:     StatusActive,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, petID, userID string, filter ListFilter) ([]Record, error) {
	if _, err := s.pets.GetOwned(ctx, petID, userID); err != nil {
		return nil, err
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, ErrInvalidInput
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	return s.repo.ListByPet(ctx, petID, filter)
}

// Void anula la ficha (no se borra). Idempotente.
func (s *Service) Void(ctx context.Context, petID, userID, recordID string) (Record, error) {
	if _, err := s.pets.GetOwned(ctx, petID, userID); err != nil {
		return Record{}, err
	}

	rec, err := s.repo.GetByID(ctx, strings.TrimSpace(recordID))
	if err != nil {
		return Record{}, err
	}
	// no filtrar fichas de otra mascota
	if rec.PetID != petID {
		return Record{}, ErrNotFound
	}
	if rec.Status == StatusVoided {
		return rec, nil
	}
	if err := s.repo.Void(ctx, rec.ID); err != nil {
		return Record{}, err
	}
	return s.repo.GetByID(ctx, rec.ID)
}

// DeleteByPet es el hook de borrado en cascada de pets.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}
