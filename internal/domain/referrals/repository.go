package referrals

import (
	"context"
	"time"
)

type Repository interface {
	// CreateCode devuelve ErrConflict si el código o el referidor ya tienen fila.
	CreateCode(ctx context.Context, c Code) error
	GetCode(ctx context.Context, code string) (Code, error)
	GetCodeByReferrer(ctx context.Context, referrerUserID string) (Code, error)
	SetPayoutAccount(ctx context.Context, code, accountID string) error

	// Create devuelve ErrConflict si el email referido ya está vinculado.
	Create(ctx context.Context, r Referral) error
	ListByReferrer(ctx context.Context, referrerUserID string) ([]Referral, error)
	ListByStatus(ctx context.Context, status CommissionStatus) ([]Referral, error)
	List(ctx context.Context) ([]Referral, error)

	// MarkApproved solo transiciona desde pending. false => ya no estaba pending.
	MarkApproved(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkPaid solo transiciona desde approved; devuelve cuántas filas cambió.
	MarkPaid(ctx context.Context, ids []string, transferID string, at time.Time) (int, error)
}
