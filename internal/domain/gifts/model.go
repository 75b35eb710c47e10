package gifts

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleSent      ScheduleStatus = "sent"
	ScheduleFailed    ScheduleStatus = "failed"
)

// ExpiryFrom: un gift dura un año desde el canje.
func ExpiryFrom(activatedAt time.Time) time.Time {
	return activatedAt.AddDate(1, 0, 0)
}

// GiftMembership es un gift canjeable exactamente una vez.
type GiftMembership struct {
	ID             string
	Code           string
	SessionID      string
	PurchaserEmail string
	RecipientEmail string
	RecipientName  string
	Message        string
	AdditionalPets int

	Status Status

	RedeemedByUserID string
	RedeemedByEmail  string
	ActivatedAt      *time.Time
	ExpiresAt        *time.Time
	ReminderSentAt   *time.Time

	CreatedAt time.Time
}

// ScheduledGift es una compra con fecha de envío futura.
type ScheduledGift struct {
	ID                string
	SessionID         string
	PurchaserEmail    string
	RecipientEmail    string
	RecipientName     string
	Message           string
	AdditionalPets    int
	ScheduledSendDate time.Time // fecha (UTC, 00:00)

	Status           ScheduleStatus
	ErrorMessage     string
	GiftMembershipID string
	SentAt           *time.Time

	CreatedAt time.Time
}

// PurchaseResult: exactamente uno de Gift / Scheduled viene seteado.
type PurchaseResult struct {
	Gift             *GiftMembership
	Scheduled        *ScheduledGift
	AlreadyProcessed bool
}

type ScheduledSummary struct {
	Due    int      `json:"due"`
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

type ExpireSummary struct {
	Expired    int      `json:"expired"`
	Downgraded int      `json:"downgraded"`
	Errors     []string `json:"errors"`
}

type ReminderSummary struct {
	Candidates int      `json:"candidates"`
	Sent       int      `json:"sent"`
	Errors     []string `json:"errors"`
}
