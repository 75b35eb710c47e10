package pets

import (
	"context"
	"errors"
	"strings"
)

// OwnerOf expone el ownerUserID de una mascota.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}

// GetOwned devuelve la mascota solo si userID es el dueño.
// Los módulos hijos (contacts, medical, care, photos) autorizan con esto.
func (s *Service) GetOwned(ctx context.Context, petID, userID string) (Pet, error) {
	if strings.TrimSpace(petID) == "" || strings.TrimSpace(userID) == "" {
		return Pet{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, err
	}
	if p.OwnerUserID != userID {
		return Pet{}, ErrForbidden
	}
	return p, nil
}
