package memory

import (
	"context"
	"sort"
	"sync"

	"petport/internal/domain/photos"
)

type photoRepo struct {
	mu   sync.RWMutex
	byID map[string]photos.Photo
}

func NewPhotoRepo() photos.Repository {
	return &photoRepo{byID: make(map[string]photos.Photo)}
}

func (r *photoRepo) Create(ctx context.Context, p photos.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[p.ID] = p
	return nil
}

func (r *photoRepo) GetByID(ctx context.Context, id string) (photos.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return photos.Photo{}, photos.ErrNotFound
	}
	return p, nil
}

func (r *photoRepo) ListByPet(ctx context.Context, petID string) ([]photos.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]photos.Photo, 0)
	for _, p := range r.byID {
		if p.PetID == petID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *photoRepo) CountByPet(ctx context.Context, petID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.byID {
		if p.PetID == petID {
			n++
		}
	}
	return n, nil
}

func (r *photoRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return photos.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
