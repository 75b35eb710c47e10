package payments

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotConfigured = errors.New("payment processor not configured")
	ErrNotFound      = errors.New("payment object not found")
)

const (
	ModeSubscription = "subscription"
	ModePayment      = "payment"

	IntervalMonth = "month"
	IntervalYear  = "year"
)

type LineItem struct {
	PriceID  string
	Quantity int64
}

type CheckoutParams struct {
	Mode              string
	CustomerEmail     string
	ClientReferenceID string
	LineItems         []LineItem
	SuccessURL        string
	CancelURL         string
	TrialDays         int
	Metadata          map[string]string
}

// CheckoutSession es la vista mínima de una sesión de checkout que usa el dominio.
type CheckoutSession struct {
	ID             string
	URL            string
	Mode           string
	Status         string // open, complete, expired
	PaymentStatus  string // paid, unpaid, no_payment_required
	CustomerID     string
	CustomerEmail  string
	SubscriptionID string
	AmountTotal    int64
	Currency       string

	// Primer line item / precio de la suscripción.
	PriceID         string
	PriceUnitAmount int64
	Interval        string // month, year o vacío (pago único)
	// Metadata del producto (p.ej. pet_limit).
	ProductMetadata map[string]string

	Metadata  map[string]string
	CreatedAt time.Time
}

// Paid indica si la sesión terminó con el pago cobrado (o sin cobro por trial).
func (s CheckoutSession) Paid() bool {
	if s.Status != "complete" {
		return false
	}
	return s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required"
}

type Subscription struct {
	ID               string
	CustomerID       string
	Status           string // active, trialing, past_due, unpaid, canceled, incomplete, incomplete_expired
	PriceID          string
	UnitAmount       int64
	Interval         string
	ProductMetadata  map[string]string
	Metadata         map[string]string
	CurrentPeriodEnd time.Time
	CreatedAt        time.Time
}

type ConnectAccount struct {
	ID               string
	Email            string
	DetailsSubmitted bool
	PayoutsEnabled   bool
	ChargesEnabled   bool
}

// Onboarded: el referidor completó el onboarding y puede recibir transfers.
func (a ConnectAccount) Onboarded() bool {
	return a.DetailsSubmitted && a.PayoutsEnabled
}

type TransferParams struct {
	AmountCents    int64
	Currency       string
	Destination    string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

type Transfer struct {
	ID          string
	AmountCents int64
	Destination string
}

// Processor es el puerto al procesador de pagos.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutParams) (CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error)

	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)

	CreateConnectAccount(ctx context.Context, email string) (ConnectAccount, error)
	GetConnectAccount(ctx context.Context, id string) (ConnectAccount, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	CreateTransfer(ctx context.Context, in TransferParams) (Transfer, error)
}
