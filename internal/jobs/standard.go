package jobs

import (
	"context"

	"petport/internal/domain/gifts"
	"petport/internal/domain/referrals"
	"petport/internal/platform/logger"
	"petport/internal/ports/email"
	"petport/internal/ports/integrity"
)

// Nombres de los jobs (path de POST /jobs/{name} y claves del cron del worker).
const (
	ApproveReferrals   = "approve-referrals"
	PayoutReferrals    = "payout-referrals"
	SendScheduledGifts = "send-scheduled-gifts"
	ExpireGifts        = "expire-gifts"
	GiftReminders      = "gift-renewal-reminders"
	CheckIntegrity     = "integrity-check"
)

type Deps struct {
	Referrals *referrals.Service
	Gifts     *gifts.Service
	Email     email.Sender
	Admins    []string
	Log       logger.Logger
}

// RegisterStandard da de alta los seis jobs del producto.
func RegisterStandard(r *Runner, d Deps) {
	r.Register(ApproveReferrals, func(ctx context.Context) (any, error) { return d.Referrals.Approve(ctx) })
	r.Register(PayoutReferrals, func(ctx context.Context) (any, error) { return d.Referrals.Payout(ctx) })
	r.Register(SendScheduledGifts, func(ctx context.Context) (any, error) { return d.Gifts.SendScheduled(ctx) })
	r.Register(ExpireGifts, func(ctx context.Context) (any, error) { return d.Gifts.Expire(ctx) })
	r.Register(GiftReminders, func(ctx context.Context) (any, error) { return d.Gifts.SendRenewalReminders(ctx) })
	r.Register(CheckIntegrity, IntegrityCheck(map[string]integrity.Auditor{
		"gifts":     d.Gifts,
		"referrals": d.Referrals,
	}, d.Email, d.Admins, d.Log))
}
