package memory

import (
	"context"
	"sync"

	"petport/internal/domain/care"
)

type careRepo struct {
	mu    sync.RWMutex
	byPet map[string]care.Instructions
}

func NewCareRepo() care.Repository {
	return &careRepo{byPet: make(map[string]care.Instructions)}
}

func (r *careRepo) Get(ctx context.Context, petID string) (care.Instructions, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, ok := r.byPet[petID]
	if !ok {
		return care.Instructions{}, care.ErrNotFound
	}
	return in, nil
}

func (r *careRepo) Put(ctx context.Context, in care.Instructions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byPet[in.PetID] = in
	return nil
}

func (r *careRepo) Delete(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPet[petID]; !ok {
		return care.ErrNotFound
	}
	delete(r.byPet, petID)
	return nil
}
