package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"petport/internal/domain/pets"
	"petport/internal/platform/logger"
	"petport/internal/ports/media"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("photo not found")
	ErrLimitReached = errors.New("photo limit reached")
	ErrUnavailable  = errors.New("media storage not configured")
)

const (
	DefaultMaxPerPet = 10
	DefaultFolder    = "petport/pets"
	maxCaptionLen    = 280
)

type Config struct {
	MaxPerPet int
	// Folder base en el media store; cada mascota usa Folder/<petID>.
	Folder string
}

type PetStore interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	GetOwned(ctx context.Context, petID, userID string) (pets.Pet, error)
}

type Service struct {
	repo  Repository
	pets  PetStore
	store media.Store
	cfg   Config
	log   logger.Logger
	now   func() time.Time
}

// NewService: store nil => uploads responden ErrUnavailable.
func NewService(repo Repository, petStore PetStore, store media.Store, cfg Config, log logger.Logger) *Service {
	if cfg.MaxPerPet <= 0 {
		cfg.MaxPerPet = DefaultMaxPerPet
	}
	cfg.Folder = strings.Trim(cfg.Folder, "/")
	if cfg.Folder == "" {
		cfg.Folder = DefaultFolder
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		pets:  petStore,
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

type UploadInput struct {
	Body    io.Reader
	Caption string
}

func (s *Service) Upload(ctx context.Context, petID, userID string, in UploadInput) (Photo, error) {
	if in.Body == nil || len(in.Caption) > maxCaptionLen {
		return Photo{}, ErrInvalidInput
	}
	p, err := s.pets.GetOwned(ctx, petID, userID)
	if err != nil {
		return Photo{}, err
	}
	if s.store == nil {
		return Photo{}, ErrUnavailable
	}

	n, err := s.repo.CountByPet(ctx, p.ID)
	if err != nil {
		return Photo{}, err
	}
	if n >= s.cfg.MaxPerPet {
		return Photo{}, ErrLimitReached
	}

	id := uuid.NewString()
	up, err := s.store.Upload(ctx, in.Body, s.cfg.Folder+"/"+p.ID, id)
	if err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			return Photo{}, ErrUnavailable
		}
		return Photo{}, fmt.Errorf("upload photo: %w", err)
	}

	ph := Photo{
		ID:        id,
		PetID:     p.ID,
		URL:       up.URL,
		PublicID:  up.PublicID,
		Caption:   strings.TrimSpace(in.Caption),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, ph); err != nil {
		// no dejar la imagen huérfana
		if derr := s.store.Delete(ctx, up.PublicID); derr != nil {
			s.log.Warn("orphan photo in media store", map[string]any{"public_id": up.PublicID, "error": derr})
		}
		return Photo{}, err
	}
	return ph, nil
}

// List: el dueño siempre; cualquiera si la mascota es pública o está perdida.
func (s *Service) List(ctx context.Context, petID, userID string) ([]Photo, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if p.OwnerUserID != userID && !p.Visible() {
		if userID == "" {
			return nil, pets.ErrNotFound
		}
		return nil, pets.ErrForbidden
	}
	return s.repo.ListByPet(ctx, p.ID)
}

// Delete borra primero en el media store y después la fila.
func (s *Service) Delete(ctx context.Context, petID, userID, photoID string) error {
	p, err := s.pets.GetOwned(ctx, petID, userID)
	if err != nil {
		return err
	}
	ph, err := s.repo.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if ph.PetID != p.ID {
		return ErrNotFound
	}
	if err := s.deleteStored(ctx, ph); err != nil {
		return err
	}
	return s.repo.Delete(ctx, ph.ID)
}

func (s *Service) deleteStored(ctx context.Context, ph Photo) error {
	if s.store == nil || ph.PublicID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, ph.PublicID); err != nil {
		return fmt.Errorf("delete photo %s: %w", ph.ID, err)
	}
	return nil
}

// DeleteByPet es el hook de borrado en cascada de pets.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	list, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return err
	}
	for _, ph := range list {
		if err := s.deleteStored(ctx, ph); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, ph.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}
