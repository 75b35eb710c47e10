package memory

import (
	"context"
	"sync"

	"petport/internal/domain/contacts"
)

type contactKey struct {
	petID string
	typ   contacts.Type
}

type contactRepo struct {
	mu     sync.RWMutex
	bySlot map[contactKey]contacts.Contact
}

func NewContactRepo() contacts.Repository {
	return &contactRepo{bySlot: make(map[contactKey]contacts.Contact)}
}

func (r *contactRepo) ListByPet(ctx context.Context, petID string) ([]contacts.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contacts.Contact, 0, len(contacts.Order))
	for _, t := range contacts.Order {
		if c, ok := r.bySlot[contactKey{petID, t}]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *contactRepo) GetByType(ctx context.Context, petID string, t contacts.Type) (contacts.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.bySlot[contactKey{petID, t}]
	if !ok {
		return contacts.Contact{}, contacts.ErrNotFound
	}
	return c, nil
}

func (r *contactRepo) Upsert(ctx context.Context, c contacts.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bySlot[contactKey{c.PetID, c.Type}] = c
	return nil
}

func (r *contactRepo) Delete(ctx context.Context, petID string, t contacts.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := contactKey{petID, t}
	if _, ok := r.bySlot[k]; !ok {
		return contacts.ErrNotFound
	}
	delete(r.bySlot, k)
	return nil
}

func (r *contactRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.bySlot {
		if k.petID == petID {
			delete(r.bySlot, k)
		}
	}
	return nil
}
