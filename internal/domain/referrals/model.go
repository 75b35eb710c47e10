package referrals

import (
	"time"

	"petport/internal/domain/subscribers"
)

type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "pending"
	CommissionApproved CommissionStatus = "approved"
	CommissionPaid     CommissionStatus = "paid"
)

// Code es el código de referido de un usuario (uno por referidor).
type Code struct {
	Code            string
	ReferrerUserID  string
	ReferrerEmail   string
	PayoutAccountID string
	CreatedAt       time.Time
}

// Referral: un alta referida. referred_email es único.
type Referral struct {
	ID             string
	Code           string
	ReferrerUserID string
	ReferredUserID string
	ReferredEmail  string
	PlanInterval   subscribers.PlanInterval

	CommissionStatus CommissionStatus
	CommissionCents  int64

	TrialCompletedAt time.Time
	ApprovedAt       *time.Time
	PaidAt           *time.Time
	TransferID       string

	CreatedAt time.Time
}

// Summary es la vista "mis referidos" con totales por estado.
type Summary struct {
	Code          string     `json:"code"`
	Referrals     []Referral `json:"-"`
	PendingCents  int64      `json:"pending_cents"`
	ApprovedCents int64      `json:"approved_cents"`
	PaidCents     int64      `json:"paid_cents"`
}

type ApproveSummary struct {
	Checked  int      `json:"checked"`
	Approved int      `json:"approved"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

type PayoutSummary struct {
	Referrers      int      `json:"referrers"`
	Transfers      int      `json:"transfers"`
	PaidReferrals  int      `json:"paid_referrals"`
	TotalCents     int64    `json:"total_cents"`
	Errors         []string `json:"errors"`
	Reconciliation []string `json:"needs_manual_reconciliation"`
}

type OnboardingResult struct {
	AccountID string `json:"account_id"`
	Onboarded bool   `json:"onboarded"`
	URL       string `json:"url,omitempty"`
}
