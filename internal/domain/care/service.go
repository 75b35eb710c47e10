package care

import (
	"context"
	"errors"
	"strings"
	"time"

	"petport/internal/domain/contacts"
	"petport/internal/domain/pets"
	"petport/internal/platform/logger"
	"petport/internal/ports/email"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("care instructions not found")
)

const maxFieldLen = 5000

type PetStore interface {
	GetOwned(ctx context.Context, petID, userID string) (pets.Pet, error)
}

// ContactResolver devuelve el contacto de un slot (estructurado o legacy).
type ContactResolver interface {
	ResolveType(ctx context.Context, p pets.Pet, t contacts.Type) (contacts.Contact, error)
}

type Service struct {
	repo     Repository
	pets     PetStore
	contacts ContactResolver
	sender   email.Sender
	appURL   string
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, petStore PetStore, cr ContactResolver, sender email.Sender, appURL string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		pets:     petStore,
		contacts: cr,
		sender:   sender,
		appURL:   strings.TrimRight(appURL, "/"),
		log:      log,
		now:      time.Now,
	}
}

// Get devuelve las instrucciones; si no hay, un documento vacío.
func (s *Service) Get(ctx context.Context, petID, userID string) (Instructions, error) {
	p, err := s.pets.GetOwned(ctx, petID, userID)
	if err != nil {
		return Instructions{}, err
	}
	in, err := s.repo.Get(ctx, p.ID)
	if errors.Is(err, ErrNotFound) {
		return Instructions{PetID: p.ID}, nil
	}
	return in, err
}

type PutInput struct {
	Feeding    string
	Medication string
	Exercise   string
	Behavior   string
	Grooming   string
	Other      string

	NotifyCaretaker bool
}

type PutResult struct {
	Instructions Instructions
	// Notified: se mandó el aviso al cuidador.
	Notified bool
}

// Put reemplaza el documento completo.
func (s *Service) Put(ctx context.Context, petID, userID string, in PutInput) (PutResult, error) {
	fields := []string{in.Feeding, in.Medication, in.Exercise, in.Behavior, in.Grooming, in.Other}
	for _, f := range fields {
		if len(f) > maxFieldLen {
			return PutResult{}, ErrInvalidInput
		}
	}

	p, err := s.pets.GetOwned(ctx, petID, userID)
	if err != nil {
		return PutResult{}, err
	}

	doc := Instructions{
		PetID:      p.ID,
		Feeding:    strings.TrimSpace(in.Feeding),
		Medication: strings.TrimSpace(in.Medication),
		Exercise:   strings.TrimSpace(in.Exercise),
		Behavior:   strings.TrimSpace(in.Behavior),
		Grooming:   strings.TrimSpace(in.Grooming),
		Other:      strings.TrimSpace(in.Other),
		UpdatedBy:  userID,
		UpdatedAt:  s.now(),
	}
	if err := s.repo.Put(ctx, doc); err != nil {
		return PutResult{}, err
	}

	out := PutResult{Instructions: doc}
	if in.NotifyCaretaker {
		out.Notified = s.notifyCaretaker(ctx, p, doc)
	}
	return out, nil
}

// notifyCaretaker manda care-update al cuidador si tiene email. Un fallo no rompe el guardado.
func (s *Service) notifyCaretaker(ctx context.Context, p pets.Pet, doc Instructions) bool {
	if s.sender == nil || s.contacts == nil {
		return false
	}
	c, err := s.contacts.ResolveType(ctx, p, contacts.TypeCaretaker)
	if err != nil || c.Email == "" {
		return false
	}

	err = s.sender.Send(ctx, email.Message{
		To:       c.Email,
		Template: email.TemplateCareUpdate,
		Model: map[string]any{
			"caretaker_name": c.Name,
			"pet_name":       p.Name,
			"feeding":        doc.Feeding,
			"medication":     doc.Medication,
			"exercise":       doc.Exercise,
			"behavior":       doc.Behavior,
			"grooming":       doc.Grooming,
			"other":          doc.Other,
			"pet_url":        s.appURL + "/pet/" + p.ID,
		},
	})
	if err != nil {
		s.log.Warn("care update email failed", map[string]any{"pet_id": p.ID, "error": err})
		return false
	}
	return true
}

// DeleteByPet es el hook de borrado en cascada de pets.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	err := s.repo.Delete(ctx, petID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
