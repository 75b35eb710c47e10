package subscribers

import "time"

// Status es el estado de acceso del suscriptor (no el del procesador).
type Status string

const (
	StatusActive    Status = "active"
	StatusGrace     Status = "grace"
	StatusSuspended Status = "suspended"
	StatusCanceled  Status = "canceled"
)

// Entitled: el suscriptor conserva sus pet slots pagos.
func (s Status) Entitled() bool {
	return s == StatusActive || s == StatusGrace
}

type PlanInterval string

const (
	PlanMonthly PlanInterval = "monthly"
	PlanYearly  PlanInterval = "yearly"
	PlanGift    PlanInterval = "gift"
)

type Tier string

const (
	TierBasic      Tier = "Basic"
	TierPremium    Tier = "Premium"
	TierEnterprise Tier = "Enterprise"
)

// Subscriber es una fila por email.
type Subscriber struct {
	ID     string
	Email  string
	UserID string

	CustomerID     string
	SubscriptionID string

	Status       Status
	PlanInterval PlanInterval
	Tier         Tier

	// Slots = BasePets + AdditionalPets (+ GiftPets mientras el gift esté vigente).
	BasePets       int
	AdditionalPets int
	GiftPets       int

	GraceEndsAt      *time.Time
	CurrentPeriodEnd *time.Time
	GiftExpiresAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Subscriber) giftActive(now time.Time) bool {
	return s.GiftExpiresAt != nil && now.Before(*s.GiftExpiresAt)
}

// PetSlots devuelve cuántas mascotas puede tener; 0 si no tiene acceso pago ni gift.
func (s Subscriber) PetSlots(now time.Time) int {
	slots := 0
	if s.Status.Entitled() && s.PlanInterval != PlanGift {
		slots = s.BasePets + s.AdditionalPets
	}
	if s.giftActive(now) {
		if slots == 0 {
			// gift puro: 1 base + mascotas adicionales del gift
			slots = 1
		}
		slots += s.GiftPets
	}
	return slots
}

// TierSchedule traduce un monto (centavos) a tier.
type TierSchedule struct {
	BasicMax   int64
	PremiumMax int64
}

var (
	// CheckoutTiers la usa verify-checkout.
	CheckoutTiers = TierSchedule{BasicMax: 299, PremiumMax: 1499}
	// PollingTiers la usa check-subscription.
	PollingTiers = TierSchedule{BasicMax: 999, PremiumMax: 1999}
)

func (t TierSchedule) Tier(amountCents int64) Tier {
	switch {
	case amountCents <= t.BasicMax:
		return TierBasic
	case amountCents <= t.PremiumMax:
		return TierPremium
	default:
		return TierEnterprise
	}
}

// Entitlement es lo que ve el cliente para gatear la UI.
type Entitlement struct {
	Subscribed       bool         `json:"subscribed"`
	Status           Status       `json:"status,omitempty"`
	PlanInterval     PlanInterval `json:"plan_interval,omitempty"`
	Tier             Tier         `json:"tier,omitempty"`
	PetSlots         int          `json:"pet_slots"`
	GraceEndsAt      *time.Time   `json:"grace_ends_at,omitempty"`
	CurrentPeriodEnd *time.Time   `json:"current_period_end,omitempty"`
	GiftExpiresAt    *time.Time   `json:"gift_expires_at,omitempty"`
}
