package gifts

import (
	"context"
	"time"
)

type Repository interface {
	// Create devuelve ErrConflict si el código o la sesión ya existen.
	Create(ctx context.Context, g GiftMembership) error
	GetByCode(ctx context.Context, code string) (GiftMembership, error)
	GetBySession(ctx context.Context, sessionID string) (GiftMembership, error)
	List(ctx context.Context) ([]GiftMembership, error)

	// Redeem es atómico: solo transiciona pending => active.
	// ErrNotFound si el código no existe, ErrNotPending si ya no estaba pending.
	Redeem(ctx context.Context, code, userID, email string, activatedAt, expiresAt time.Time) (GiftMembership, error)
	// ExpireDue pasa a expired los activos vencidos y los devuelve.
	ExpireDue(ctx context.Context, now time.Time) ([]GiftMembership, error)
	// ListExpiring: activos con expires_at en (now, before] y sin recordatorio enviado.
	ListExpiring(ctx context.Context, now, before time.Time) ([]GiftMembership, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error

	CreateScheduled(ctx context.Context, s ScheduledGift) error
	GetScheduledBySession(ctx context.Context, sessionID string) (ScheduledGift, error)
	// ListDueScheduled: status scheduled y fecha de envío <= day.
	ListDueScheduled(ctx context.Context, day time.Time) ([]ScheduledGift, error)
	ListScheduled(ctx context.Context) ([]ScheduledGift, error)
	MarkScheduledSent(ctx context.Context, id, giftID string, at time.Time) error
	// MarkScheduledFailed guarda giftID si el gift llegó a crearse antes del fallo.
	MarkScheduledFailed(ctx context.Context, id, giftID, msg string) error
}
