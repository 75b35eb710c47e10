package paymentstest

import (
	"context"
	"fmt"
	"sync"

	"petport/internal/ports/payments"
)

type Processor struct {
	mu sync.Mutex

	Sessions      map[string]payments.CheckoutSession
	Customers     map[string]string // email -> customer id
	Subscriptions map[string][]payments.Subscription
	Accounts      map[string]payments.ConnectAccount

	Created   []payments.CheckoutParams
	Transfers []payments.TransferParams

	// Hooks opcionales para forzar errores.
	TransferErr func(payments.TransferParams) error

	seq int
}

var _ payments.Processor = (*Processor)(nil)

func New() *Processor {
	return &Processor{
		Sessions:      map[string]payments.CheckoutSession{},
		Customers:     map[string]string{},
		Subscriptions: map[string][]payments.Subscription{},
		Accounts:      map[string]payments.ConnectAccount{},
	}
}

func (p *Processor) next(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s_%d", prefix, p.seq)
}

func (p *Processor) CreateCheckoutSession(_ context.Context, in payments.CheckoutParams) (payments.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Created = append(p.Created, in)
	id := p.next("cs_test")
	s := payments.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.test/" + id,
		Mode:          in.Mode,
		Status:        "open",
		CustomerEmail: in.CustomerEmail,
		Metadata:      in.Metadata,
	}
	p.Sessions[id] = s
	return s, nil
}

func (p *Processor) GetCheckoutSession(_ context.Context, id string) (payments.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.Sessions[id]
	if !ok {
		return payments.CheckoutSession{}, payments.ErrNotFound
	}
	return s, nil
}

func (p *Processor) FindCustomerByEmail(_ context.Context, email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.Customers[email]
	if !ok {
		return "", payments.ErrNotFound
	}
	return id, nil
}

func (p *Processor) ListSubscriptions(_ context.Context, customerID string) ([]payments.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]payments.Subscription(nil), p.Subscriptions[customerID]...), nil
}

func (p *Processor) CreateConnectAccount(_ context.Context, email string) (payments.ConnectAccount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a := payments.ConnectAccount{ID: p.next("acct"), Email: email}
	p.Accounts[a.ID] = a
	return a, nil
}

func (p *Processor) GetConnectAccount(_ context.Context, id string) (payments.ConnectAccount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.Accounts[id]
	if !ok {
		return payments.ConnectAccount{}, payments.ErrNotFound
	}
	return a, nil
}

func (p *Processor) CreateAccountLink(_ context.Context, accountID, _, _ string) (string, error) {
	return "https://connect.test/onboarding/" + accountID, nil
}

func (p *Processor) CreateTransfer(_ context.Context, in payments.TransferParams) (payments.Transfer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.TransferErr != nil {
		if err := p.TransferErr(in); err != nil {
			return payments.Transfer{}, err
		}
	}
	p.Transfers = append(p.Transfers, in)
	return payments.Transfer{ID: p.next("tr"), AmountCents: in.AmountCents, Destination: in.Destination}, nil
}
