package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"petport/internal/domain/medical"
)

type medicalRepo struct {
	mu   sync.RWMutex
	byID map[string]medical.Record
}

func NewMedicalRepo() medical.Repository {
	return &medicalRepo{
		byID: make(map[string]medical.Record),
	}
}

func (r *medicalRepo) Create(ctx context.Context, rec medical.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("record already exists")
	}

	r.byID[rec.ID] = rec
	return nil
}

func (r *medicalRepo) GetByID(ctx context.Context, id string) (medical.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return medical.Record{}, medical.ErrNotFound
	}
	return rec, nil
}

func (r *medicalRepo) ListByPet(ctx context.Context, petID string, filter medical.ListFilter) ([]medical.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]medical.Record, 0)
	for _, rec := range r.byID {
		if rec.PetID != petID {
			continue
		}
		if rec.Status == medical.StatusVoided && !filter.IncludeVoided {
			continue
		}
		if len(filter.Types) > 0 && !hasType(filter.Types, rec.Type) {
			continue
		}

		// rango inclusivo sobre occurred_at
		if filter.From != nil && rec.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && rec.OccurredAt.After(*filter.To) {
			continue
		}

		if q != "" && !strings.Contains(strings.ToLower(rec.Title+" "+rec.Notes), q) {
			continue
		}

		out = append(out, rec)
	}

	// más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func hasType(types []medical.RecordType, t medical.RecordType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func (r *medicalRepo) Void(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return medical.ErrNotFound
	}
	rec.Status = medical.StatusVoided
	r.byID[id] = rec
	return nil
}

func (r *medicalRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.byID {
		if rec.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}
