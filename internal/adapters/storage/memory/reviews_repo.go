package memory

import (
	"context"
	"sort"
	"sync"

	"petport/internal/domain/reviews"
)

type reviewRepo struct {
	mu   sync.RWMutex
	byID map[string]reviews.Review
}

func NewReviewRepo() reviews.Repository {
	return &reviewRepo{byID: make(map[string]reviews.Review)}
}

func (r *reviewRepo) Create(ctx context.Context, rv reviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[rv.ID] = rv
	return nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (reviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, ok := r.byID[id]
	if !ok {
		return reviews.Review{}, reviews.ErrNotFound
	}
	return rv, nil
}

func (r *reviewRepo) ListByStatus(ctx context.Context, status reviews.Status, limit int) ([]reviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reviews.Review, 0)
	for _, rv := range r.byID {
		if rv.Status == status {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reviewRepo) Moderate(ctx context.Context, rv reviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[rv.ID]
	if !ok {
		return reviews.ErrNotFound
	}
	if cur.Status != reviews.StatusPending {
		return reviews.ErrBadState
	}
	r.byID[rv.ID] = rv
	return nil
}
