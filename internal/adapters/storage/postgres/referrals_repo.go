package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"petport/internal/domain/referrals"
	"petport/internal/domain/subscribers"
)

type ReferralsRepo struct {
	db *sql.DB
}

func NewReferralsRepo(db *sql.DB) *ReferralsRepo {
	return &ReferralsRepo{db: db}
}

var _ referrals.Repository = (*ReferralsRepo)(nil)

const codeColumns = `code, referrer_user_id, referrer_email, payout_account_id, created_at`

func scanCode(s scanner) (referrals.Code, error) {
	var c referrals.Code
	err := s.Scan(&c.Code, &c.ReferrerUserID, &c.ReferrerEmail, &c.PayoutAccountID, &c.CreatedAt)
	return c, err
}

func (r *ReferralsRepo) CreateCode(ctx context.Context, c referrals.Code) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO referral_codes (`+codeColumns+`) VALUES ($1,$2,$3,$4,$5)
	`, c.Code, c.ReferrerUserID, c.ReferrerEmail, c.PayoutAccountID, c.CreatedAt)
	if isUniqueViolation(err) {
		return referrals.ErrConflict
	}
	return err
}

func (r *ReferralsRepo) getCode(ctx context.Context, where string, arg string) (referrals.Code, error) {
	c, err := scanCode(r.db.QueryRowContext(ctx, `SELECT `+codeColumns+` FROM referral_codes WHERE `+where+` = $1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return referrals.Code{}, referrals.ErrNotFound
	}
	return c, err
}

func (r *ReferralsRepo) GetCode(ctx context.Context, code string) (referrals.Code, error) {
	return r.getCode(ctx, "code", code)
}

func (r *ReferralsRepo) GetCodeByReferrer(ctx context.Context, referrerUserID string) (referrals.Code, error) {
	return r.getCode(ctx, "referrer_user_id", referrerUserID)
}

func (r *ReferralsRepo) SetPayoutAccount(ctx context.Context, code, accountID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE referral_codes SET payout_account_id = $2 WHERE code = $1`, code, accountID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return referrals.ErrNotFound
	}
	return nil
}

const referralColumns = `
	id, code, referrer_user_id, referred_user_id, referred_email, plan_interval,
	commission_status, commission_cents,
	trial_completed_at, approved_at, paid_at, transfer_id,
	created_at`

func scanReferral(s scanner) (referrals.Referral, error) {
	var ref referrals.Referral
	var interval, status string
	var approved, paid sql.NullTime
	if err := s.Scan(
		&ref.ID, &ref.Code, &ref.ReferrerUserID, &ref.ReferredUserID, &ref.ReferredEmail, &interval,
		&status, &ref.CommissionCents,
		&ref.TrialCompletedAt, &approved, &paid, &ref.TransferID,
		&ref.CreatedAt,
	); err != nil {
		return referrals.Referral{}, err
	}
	ref.PlanInterval = subscribers.PlanInterval(interval)
	ref.CommissionStatus = referrals.CommissionStatus(status)
	ref.ApprovedAt = timePtr(approved)
	ref.PaidAt = timePtr(paid)
	return ref, nil
}

func (r *ReferralsRepo) Create(ctx context.Context, ref referrals.Referral) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO referrals (`+referralColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		ref.ID, ref.Code, ref.ReferrerUserID, ref.ReferredUserID, strings.ToLower(ref.ReferredEmail), string(ref.PlanInterval),
		string(ref.CommissionStatus), ref.CommissionCents,
		ref.TrialCompletedAt, nullTime(ref.ApprovedAt), nullTime(ref.PaidAt), ref.TransferID,
		ref.CreatedAt,
	)
	if isUniqueViolation(err) {
		return referrals.ErrConflict
	}
	return err
}

func (r *ReferralsRepo) list(ctx context.Context, where string, args ...any) ([]referrals.Referral, error) {
	q := `SELECT ` + referralColumns + ` FROM referrals`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]referrals.Referral, 0)
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *ReferralsRepo) ListByReferrer(ctx context.Context, referrerUserID string) ([]referrals.Referral, error) {
	return r.list(ctx, "referrer_user_id = $1", referrerUserID)
}

func (r *ReferralsRepo) ListByStatus(ctx context.Context, status referrals.CommissionStatus) ([]referrals.Referral, error) {
	return r.list(ctx, "commission_status = $1", string(status))
}

func (r *ReferralsRepo) List(ctx context.Context) ([]referrals.Referral, error) {
	return r.list(ctx, "")
}

// MarkApproved: la condición sobre commission_status hace la transición idempotente.
func (r *ReferralsRepo) MarkApproved(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE referrals
		SET commission_status = 'approved', approved_at = $2
		WHERE id = $1 AND commission_status = 'pending'
	`, id, at)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *ReferralsRepo) MarkPaid(ctx context.Context, ids []string, transferID string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{transferID, at}
	placeholders := make([]string, 0, len(ids))
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
		args = append(args, id)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE referrals
		SET commission_status = 'paid', transfer_id = $1, paid_at = $2
		WHERE commission_status = 'approved' AND id IN (`+strings.Join(placeholders, ",")+`)
	`, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
