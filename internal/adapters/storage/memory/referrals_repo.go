package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"petport/internal/domain/referrals"
)

type referralRepo struct {
	mu        sync.RWMutex
	codes     map[string]referrals.Code
	referrals map[string]referrals.Referral
}

func NewReferralRepo() referrals.Repository {
	return &referralRepo{
		codes:     make(map[string]referrals.Code),
		referrals: make(map[string]referrals.Referral),
	}
}

func (r *referralRepo) CreateCode(ctx context.Context, c referrals.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.codes {
		if existing.Code == c.Code || existing.ReferrerUserID == c.ReferrerUserID {
			return referrals.ErrConflict
		}
	}
	r.codes[c.Code] = c
	return nil
}

func (r *referralRepo) GetCode(ctx context.Context, code string) (referrals.Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codes[code]
	if !ok {
		return referrals.Code{}, referrals.ErrNotFound
	}
	return c, nil
}

func (r *referralRepo) GetCodeByReferrer(ctx context.Context, referrerUserID string) (referrals.Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.codes {
		if c.ReferrerUserID == referrerUserID {
			return c, nil
		}
	}
	return referrals.Code{}, referrals.ErrNotFound
}

func (r *referralRepo) SetPayoutAccount(ctx context.Context, code, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.codes[code]
	if !ok {
		return referrals.ErrNotFound
	}
	c.PayoutAccountID = accountID
	r.codes[code] = c
	return nil
}

func (r *referralRepo) Create(ctx context.Context, ref referrals.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.referrals {
		if strings.EqualFold(existing.ReferredEmail, ref.ReferredEmail) {
			return referrals.ErrConflict
		}
	}
	r.referrals[ref.ID] = ref
	return nil
}

func (r *referralRepo) filter(keep func(referrals.Referral) bool) []referrals.Referral {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]referrals.Referral, 0)
	for _, ref := range r.referrals {
		if keep(ref) {
			out = append(out, ref)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *referralRepo) ListByReferrer(ctx context.Context, referrerUserID string) ([]referrals.Referral, error) {
	return r.filter(func(ref referrals.Referral) bool { return ref.ReferrerUserID == referrerUserID }), nil
}

func (r *referralRepo) ListByStatus(ctx context.Context, status referrals.CommissionStatus) ([]referrals.Referral, error) {
	return r.filter(func(ref referrals.Referral) bool { return ref.CommissionStatus == status }), nil
}

func (r *referralRepo) List(ctx context.Context) ([]referrals.Referral, error) {
	return r.filter(func(referrals.Referral) bool { return true }), nil
}

func (r *referralRepo) MarkApproved(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.referrals[id]
	if !ok || ref.CommissionStatus != referrals.CommissionPending {
		return false, nil
	}
	ref.CommissionStatus = referrals.CommissionApproved
	ref.ApprovedAt = &at
	r.referrals[id] = ref
	return true, nil
}

func (r *referralRepo) MarkPaid(ctx context.Context, ids []string, transferID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, id := range ids {
		ref, ok := r.referrals[id]
		if !ok || ref.CommissionStatus != referrals.CommissionApproved {
			continue
		}
		ref.CommissionStatus = referrals.CommissionPaid
		ref.PaidAt = &at
		ref.TransferID = transferID
		r.referrals[id] = ref
		n++
	}
	return n, nil
}
