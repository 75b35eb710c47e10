package referrals

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"petport/internal/domain/subscribers"
	"petport/internal/platform/codegen"
	"petport/internal/platform/logger"
	"petport/internal/ports/integrity"
	"petport/internal/ports/payments"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrCodeNotFound  = errors.New("referral code not found")
	ErrSelfReferral  = errors.New("cannot refer yourself")
	ErrNotYearly     = errors.New("referral requires a yearly plan")
	ErrAlreadyLinked = errors.New("email already linked to a referral")
	ErrUnavailable   = errors.New("payouts not configured")
)

const (
	codeLength = 8
	// días desde el fin del trial hasta que la comisión se puede aprobar
	approvalDays = 38
)

type Config struct {
	AppURL          string
	CommissionCents int64
	TrialDays       int
	Currency        string
}

// SubscriberLookup es lo que necesitamos de subscribers para aprobar.
type SubscriberLookup interface {
	GetByEmail(ctx context.Context, email string) (subscribers.Subscriber, error)
}

type Service struct {
	repo Repository
	subs SubscriberLookup
	proc payments.Processor
	cfg  Config
	log  logger.Logger
	now  func() time.Time
}

var (
	_ subscribers.ReferralLinker = (*Service)(nil)
	_ integrity.Auditor          = (*Service)(nil)
)

func NewService(repo Repository, subs SubscriberLookup, proc payments.Processor, cfg Config, log logger.Logger) *Service {
	if cfg.TrialDays <= 0 {
		cfg.TrialDays = 7
	}
	if cfg.CommissionCents <= 0 {
		cfg.CommissionCents = 2000
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		subs: subs,
		proc: proc,
		cfg:  cfg,
		log:  log,
		now:  time.Now,
	}
}

// MyCode devuelve el código del usuario, creándolo la primera vez.
func (s *Service) MyCode(ctx context.Context, userID, email string) (Code, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Code{}, ErrInvalidInput
	}

	c, err := s.repo.GetCodeByReferrer(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Code{}, err
	}

	// reintenta ante colisión de código
	for i := 0; i < 5; i++ {
		code, err := codegen.New(codeLength)
		if err != nil {
			return Code{}, err
		}
		c = Code{
			Code:           code,
			ReferrerUserID: userID,
			ReferrerEmail:  strings.ToLower(strings.TrimSpace(email)),
			CreatedAt:      s.now(),
		}
		err = s.repo.CreateCode(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Code{}, err
		}
		// carrera: otro request creó el código del mismo referidor
		if existing, gerr := s.repo.GetCodeByReferrer(ctx, userID); gerr == nil {
			return existing, nil
		}
	}
	return Code{}, fmt.Errorf("could not allocate referral code: %w", ErrConflict)
}

func (s *Service) MyReferrals(ctx context.Context, userID string) (Summary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Summary{}, ErrInvalidInput
	}
	list, err := s.repo.ListByReferrer(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Referrals: list}
	if c, err := s.repo.GetCodeByReferrer(ctx, userID); err == nil {
		sum.Code = c.Code
	}
	for _, r := range list {
		switch r.CommissionStatus {
		case CommissionPending:
			sum.PendingCents += r.CommissionCents
		case CommissionApproved:
			sum.ApprovedCents += r.CommissionCents
		case CommissionPaid:
			sum.PaidCents += r.CommissionCents
		}
	}
	return sum, nil
}

// LinkReferral implementa subscribers.ReferralLinker.
func (s *Service) LinkReferral(ctx context.Context, in subscribers.ReferralLink) error {
	_, err := s.Link(ctx, in)
	return err
}

// Link vincula un alta con plan anual al código del referidor.
// trial_completed_at = alta + TrialDays.
func (s *Service) Link(ctx context.Context, in subscribers.ReferralLink) (Referral, error) {
	code := codegen.Normalize(in.Code)
	addr := strings.ToLower(strings.TrimSpace(in.ReferredEmail))
	if code == "" || addr == "" {
		return Referral{}, ErrInvalidInput
	}

	c, err := s.repo.GetCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Referral{}, ErrCodeNotFound
		}
		return Referral{}, err
	}
	if (in.ReferredUserID != "" && c.ReferrerUserID == in.ReferredUserID) || (c.ReferrerEmail != "" && c.ReferrerEmail == addr) {
		return Referral{}, ErrSelfReferral
	}

	sub, err := s.subs.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, subscribers.ErrNotFound) {
			return Referral{}, ErrNotYearly
		}
		return Referral{}, err
	}
	if sub.PlanInterval != subscribers.PlanYearly {
		return Referral{}, ErrNotYearly
	}

	now := s.now()
	signup := in.SignupAt
	if signup.IsZero() {
		signup = now
	}
	referredUser := in.ReferredUserID
	if referredUser == "" {
		referredUser = sub.UserID
	}

	r := Referral{
		ID:               uuid.NewString(),
		Code:             c.Code,
		ReferrerUserID:   c.ReferrerUserID,
		ReferredUserID:   referredUser,
		ReferredEmail:    addr,
		PlanInterval:     subscribers.PlanYearly,
		CommissionStatus: CommissionPending,
		CommissionCents:  s.cfg.CommissionCents,
		TrialCompletedAt: signup.AddDate(0, 0, s.cfg.TrialDays),
		CreatedAt:        now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, ErrConflict) {
			return Referral{}, ErrAlreadyLinked
		}
		return Referral{}, err
	}

	s.log.Info("referral linked", map[string]any{
		"code":               r.Code,
		"referred_email":     r.ReferredEmail,
		"trial_completed_at": r.TrialCompletedAt,
	})
	return r, nil
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ApprovalDue es el primer día (UTC) en que la comisión puede aprobarse.
func ApprovalDue(trialCompletedAt time.Time) time.Time {
	return utcDay(trialCompletedAt).AddDate(0, 0, approvalDays)
}

// Eligible: pending, trial + 38 días cumplidos y el referido sigue anual y activo/en gracia.
func Eligible(r Referral, sub subscribers.Subscriber, now time.Time) bool {
	if r.CommissionStatus != CommissionPending || r.TrialCompletedAt.IsZero() {
		return false
	}
	if utcDay(now).Before(ApprovalDue(r.TrialCompletedAt)) {
		return false
	}
	return sub.Status.Entitled() && sub.PlanInterval == subscribers.PlanYearly
}

// Approve pasa a approved las comisiones elegibles. Las demás se saltean.
func (s *Service) Approve(ctx context.Context) (ApproveSummary, error) {
	out := ApproveSummary{Errors: []string{}}

	pending, err := s.repo.ListByStatus(ctx, CommissionPending)
	if err != nil {
		return out, err
	}
	now := s.now()

	for _, r := range pending {
		out.Checked++

		if utcDay(now).Before(ApprovalDue(r.TrialCompletedAt)) {
			out.Skipped++
			continue
		}

		sub, err := s.subs.GetByEmail(ctx, r.ReferredEmail)
		if err != nil {
			if errors.Is(err, subscribers.ErrNotFound) {
				out.Skipped++
				continue
			}
			out.Errors = append(out.Errors, fmt.Sprintf("referral %s: %v", r.ID, err))
			continue
		}
		if !Eligible(r, sub, now) {
			out.Skipped++
			continue
		}

		ok, err := s.repo.MarkApproved(ctx, r.ID, now)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("referral %s: %v", r.ID, err))
			continue
		}
		if !ok {
			out.Skipped++
			continue
		}
		out.Approved++
	}

	return out, nil
}

// Payout agrupa las comisiones aprobadas por referidor y hace un transfer por cada uno.
func (s *Service) Payout(ctx context.Context) (PayoutSummary, error) {
	out := PayoutSummary{Errors: []string{}, Reconciliation: []string{}}

	approved, err := s.repo.ListByStatus(ctx, CommissionApproved)
	if err != nil {
		return out, err
	}

	byReferrer := map[string][]Referral{}
	for _, r := range approved {
		byReferrer[r.ReferrerUserID] = append(byReferrer[r.ReferrerUserID], r)
	}
	referrers := make([]string, 0, len(byReferrer))
	for k := range byReferrer {
		referrers = append(referrers, k)
	}
	sort.Strings(referrers)

	for _, uid := range referrers {
		out.Referrers++
		if err := s.payReferrer(ctx, uid, byReferrer[uid], &out); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("referrer %s: %v", uid, err))
			if errors.Is(err, payments.ErrNotConfigured) {
				return out, ErrUnavailable
			}
		}
	}
	return out, nil
}

func (s *Service) payReferrer(ctx context.Context, uid string, list []Referral, out *PayoutSummary) error {
	code, err := s.repo.GetCodeByReferrer(ctx, uid)
	if err != nil {
		return err
	}
	if code.PayoutAccountID == "" {
		return errors.New("no payout account")
	}
	acct, err := s.proc.GetConnectAccount(ctx, code.PayoutAccountID)
	if err != nil {
		return err
	}
	if !acct.Onboarded() {
		return errors.New("payout onboarding incomplete")
	}

	ids := make([]string, 0, len(list))
	var total int64
	for _, r := range list {
		ids = append(ids, r.ID)
		total += r.CommissionCents
	}
	sort.Strings(ids)
	if total <= 0 {
		return errors.New("nothing to pay")
	}

	tr, err := s.proc.CreateTransfer(ctx, payments.TransferParams{
		AmountCents: total,
		Currency:    s.cfg.Currency,
		Destination: acct.ID,
		Description: fmt.Sprintf("PetPort referral commissions (%d)", len(ids)),
		Metadata: map[string]string{
			"referrer_user_id": uid,
			"referral_ids":     strings.Join(ids, ","),
		},
		IdempotencyKey: payoutKey(uid, ids),
	})
	if err != nil {
		return err
	}

	n, err := s.repo.MarkPaid(ctx, ids, tr.ID, s.now())
	if err != nil || n != len(ids) {
		// No se reintenta: el dinero ya salió. Queda para conciliación manual.
		s.log.Error("referral payout needs manual reconciliation", map[string]any{
			"referrer_user_id": uid,
			"transfer_id":      tr.ID,
			"referral_ids":     ids,
			"marked":           n,
			"error":            err,
		})
		out.Reconciliation = append(out.Reconciliation, tr.ID)
		out.Transfers++
		out.TotalCents += total
		out.PaidReferrals += n
		return nil
	}

	out.Transfers++
	out.TotalCents += total
	out.PaidReferrals += n
	return nil
}

// payoutKey es estable para el mismo lote: reintentos del job no duplican el transfer.
func payoutKey(uid string, ids []string) string {
	h := sha256.Sum256([]byte(uid + "|" + strings.Join(ids, ",")))
	return "payout-" + hex.EncodeToString(h[:12])
}

// StartPayoutOnboarding crea (si falta) la cuenta de payouts y devuelve el link de onboarding.
func (s *Service) StartPayoutOnboarding(ctx context.Context, userID, email string) (OnboardingResult, error) {
	code, err := s.MyCode(ctx, userID, email)
	if err != nil {
		return OnboardingResult{}, err
	}

	accountID := code.PayoutAccountID
	if accountID == "" {
		acct, err := s.proc.CreateConnectAccount(ctx, strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			return OnboardingResult{}, mapProcessorErr(err)
		}
		if err := s.repo.SetPayoutAccount(ctx, code.Code, acct.ID); err != nil {
			return OnboardingResult{}, err
		}
		accountID = acct.ID
	}

	acct, err := s.proc.GetConnectAccount(ctx, accountID)
	if err != nil {
		return OnboardingResult{}, mapProcessorErr(err)
	}
	if acct.Onboarded() {
		return OnboardingResult{AccountID: acct.ID, Onboarded: true}, nil
	}

	base := strings.TrimRight(s.cfg.AppURL, "/")
	link, err := s.proc.CreateAccountLink(ctx, acct.ID,
		base+"/referrals?onboarding=refresh",
		base+"/referrals?onboarding=done")
	if err != nil {
		return OnboardingResult{}, mapProcessorErr(err)
	}
	return OnboardingResult{AccountID: acct.ID, URL: link}, nil
}

func mapProcessorErr(err error) error {
	if errors.Is(err, payments.ErrNotConfigured) {
		return ErrUnavailable
	}
	return err
}

func (s *Service) List(ctx context.Context) ([]Referral, error) {
	return s.repo.List(ctx)
}

// Audit implementa integrity.Auditor.
func (s *Service) Audit(ctx context.Context) ([]integrity.Issue, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	issues := make([]integrity.Issue, 0)
	for _, r := range list {
		switch {
		case r.ReferrerUserID != "" && r.ReferrerUserID == r.ReferredUserID:
			issues = append(issues, integrity.Issue{Kind: "referral_self", Ref: r.ID, Detail: "referrer and referred are the same user"})
		case r.CommissionStatus == CommissionPaid && r.TransferID == "":
			issues = append(issues, integrity.Issue{Kind: "referral_paid_without_transfer", Ref: r.ID, Detail: "paid commission has no transfer id"})
		case r.CommissionStatus != CommissionPending && r.ApprovedAt == nil:
			issues = append(issues, integrity.Issue{Kind: "referral_missing_approval", Ref: r.ID, Detail: string(r.CommissionStatus) + " commission without approved_at"})
		case r.PlanInterval != subscribers.PlanYearly:
			issues = append(issues, integrity.Issue{Kind: "referral_not_yearly", Ref: r.ID, Detail: "referral linked to a non-yearly plan"})
		}
	}
	return issues, nil
}
