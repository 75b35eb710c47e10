package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"petport/internal/domain/gifts"
)

type giftRepo struct {
	mu        sync.RWMutex
	gifts     map[string]gifts.GiftMembership
	scheduled map[string]gifts.ScheduledGift
}

func NewGiftRepo() gifts.Repository {
	return &giftRepo{
		gifts:     make(map[string]gifts.GiftMembership),
		scheduled: make(map[string]gifts.ScheduledGift),
	}
}

func (r *giftRepo) Create(ctx context.Context, g gifts.GiftMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.gifts {
		if existing.Code == g.Code || (g.SessionID != "" && existing.SessionID == g.SessionID) {
			return gifts.ErrConflict
		}
	}
	r.gifts[g.ID] = g
	return nil
}

func (r *giftRepo) find(keep func(gifts.GiftMembership) bool) (gifts.GiftMembership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.gifts {
		if keep(g) {
			return g, nil
		}
	}
	return gifts.GiftMembership{}, gifts.ErrNotFound
}

func (r *giftRepo) GetByCode(ctx context.Context, code string) (gifts.GiftMembership, error) {
	return r.find(func(g gifts.GiftMembership) bool { return g.Code == code })
}

func (r *giftRepo) GetBySession(ctx context.Context, sessionID string) (gifts.GiftMembership, error) {
	return r.find(func(g gifts.GiftMembership) bool { return sessionID != "" && g.SessionID == sessionID })
}

func (r *giftRepo) List(ctx context.Context) ([]gifts.GiftMembership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]gifts.GiftMembership, 0, len(r.gifts))
	for _, g := range r.gifts {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Redeem toma el lock de escritura: el chequeo y el update son una sola operación.
func (r *giftRepo) Redeem(ctx context.Context, code, userID, email string, activatedAt, expiresAt time.Time) (gifts.GiftMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, g := range r.gifts {
		if g.Code != code {
			continue
		}
		if g.Status != gifts.StatusPending {
			return gifts.GiftMembership{}, gifts.ErrNotPending
		}
		g.Status = gifts.StatusActive
		g.RedeemedByUserID = userID
		g.RedeemedByEmail = email
		g.ActivatedAt = &activatedAt
		g.ExpiresAt = &expiresAt
		r.gifts[id] = g
		return g, nil
	}
	return gifts.GiftMembership{}, gifts.ErrNotFound
}

func (r *giftRepo) ExpireDue(ctx context.Context, now time.Time) ([]gifts.GiftMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]gifts.GiftMembership, 0)
	for id, g := range r.gifts {
		if g.Status == gifts.StatusActive && g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
			g.Status = gifts.StatusExpired
			r.gifts[id] = g
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *giftRepo) ListExpiring(ctx context.Context, now, before time.Time) ([]gifts.GiftMembership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]gifts.GiftMembership, 0)
	for _, g := range r.gifts {
		if g.Status == gifts.StatusActive && g.ReminderSentAt == nil && g.ExpiresAt != nil &&
			g.ExpiresAt.After(now) && !g.ExpiresAt.After(before) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *giftRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gifts[id]
	if !ok {
		return gifts.ErrNotFound
	}
	g.ReminderSentAt = &at
	r.gifts[id] = g
	return nil
}

func (r *giftRepo) CreateScheduled(ctx context.Context, s gifts.ScheduledGift) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.scheduled {
		if existing.SessionID == s.SessionID {
			return gifts.ErrConflict
		}
	}
	r.scheduled[s.ID] = s
	return nil
}

func (r *giftRepo) GetScheduledBySession(ctx context.Context, sessionID string) (gifts.ScheduledGift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.scheduled {
		if sessionID != "" && s.SessionID == sessionID {
			return s, nil
		}
	}
	return gifts.ScheduledGift{}, gifts.ErrNotFound
}

func (r *giftRepo) listScheduled(keep func(gifts.ScheduledGift) bool) []gifts.ScheduledGift {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]gifts.ScheduledGift, 0)
	for _, s := range r.scheduled {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledSendDate.Before(out[j].ScheduledSendDate) })
	return out
}

func (r *giftRepo) ListDueScheduled(ctx context.Context, day time.Time) ([]gifts.ScheduledGift, error) {
	return r.listScheduled(func(s gifts.ScheduledGift) bool {
		return s.Status == gifts.ScheduleScheduled && !s.ScheduledSendDate.After(day)
	}), nil
}

func (r *giftRepo) ListScheduled(ctx context.Context) ([]gifts.ScheduledGift, error) {
	return r.listScheduled(func(gifts.ScheduledGift) bool { return true }), nil
}

func (r *giftRepo) MarkScheduledSent(ctx context.Context, id, giftID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.scheduled[id]
	if !ok {
		return gifts.ErrNotFound
	}
	s.Status = gifts.ScheduleSent
	s.GiftMembershipID = giftID
	s.SentAt = &at
	r.scheduled[id] = s
	return nil
}

func (r *giftRepo) MarkScheduledFailed(ctx context.Context, id, giftID, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.scheduled[id]
	if !ok {
		return gifts.ErrNotFound
	}
	s.Status = gifts.ScheduleFailed
	s.ErrorMessage = msg
	if giftID != "" {
		s.GiftMembershipID = giftID
	}
	r.scheduled[id] = s
	return nil
}
