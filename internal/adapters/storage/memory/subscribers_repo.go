package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"petport/internal/domain/subscribers"
)

type subscriberRepo struct {
	mu      sync.RWMutex
	byEmail map[string]subscribers.Subscriber
}

func NewSubscriberRepo() subscribers.Repository {
	return &subscriberRepo{byEmail: make(map[string]subscribers.Subscriber)}
}

func (r *subscriberRepo) GetByEmail(ctx context.Context, email string) (subscribers.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return subscribers.Subscriber{}, subscribers.ErrNotFound
	}
	return s, nil
}

// Upsert conserva id y created_at de la fila existente (como ON CONFLICT (email)).
func (r *subscriberRepo) Upsert(ctx context.Context, s subscribers.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(s.Email)
	if cur, ok := r.byEmail[key]; ok {
		s.ID = cur.ID
		s.CreatedAt = cur.CreatedAt
	}
	r.byEmail[key] = s
	return nil
}

func (r *subscriberRepo) List(ctx context.Context) ([]subscribers.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]subscribers.Subscriber, 0, len(r.byEmail))
	for _, s := range r.byEmail {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
