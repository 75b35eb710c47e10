package subscribers

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"petport/internal/platform/logger"
	"petport/internal/ports/email"
	"petport/internal/ports/payments"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("subscriber not found")
	ErrUnavailable       = errors.New("payments not configured")
	ErrSessionRequired   = errors.New("session_id required")
	ErrSessionNotFound   = errors.New("session not found")
	ErrPaymentIncomplete = errors.New("payment not completed")
	ErrNoEmail           = errors.New("no email on checkout session")
	ErrNotSubscription   = errors.New("checkout session is not a subscription")
)

type Config struct {
	AppURL             string
	PriceMonthly       string
	PriceYearly        string
	PriceExtraPet      string
	TrialDays          int
	FreePetLimit       int
	GracePeriod        time.Duration
	AccountSetupPath   string
	CheckoutReturnPath string
}

// ReferralLink es lo que verify-checkout le pasa al módulo de referidos.
type ReferralLink struct {
	Code           string
	ReferredUserID string
	ReferredEmail  string
	SignupAt       time.Time
}

// ReferralLinker lo implementa referrals.Service (se inyecta después para evitar ciclos).
type ReferralLinker interface {
	LinkReferral(ctx context.Context, in ReferralLink) error
}

type Service struct {
	repo   Repository
	proc   payments.Processor
	sender email.Sender
	linker ReferralLinker
	cfg    Config
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, proc payments.Processor, sender email.Sender, cfg Config, log logger.Logger) *Service {
	if cfg.FreePetLimit <= 0 {
		cfg.FreePetLimit = 1
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 7 * 24 * time.Hour
	}
	if cfg.AccountSetupPath == "" {
		cfg.AccountSetupPath = "/auth?mode=signup"
	}
	if cfg.CheckoutReturnPath == "" {
		cfg.CheckoutReturnPath = "/checkout/success"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		proc:   proc,
		sender: sender,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

func (s *Service) SetReferralLinker(l ReferralLinker) {
	s.linker = l
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (s *Service) GetByEmail(ctx context.Context, email string) (Subscriber, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Subscriber{}, ErrInvalidInput
	}
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context) ([]Subscriber, error) {
	return s.repo.List(ctx)
}

// PetSlots implementa entitlements.Resolver.
func (s *Service) PetSlots(ctx context.Context, email string) (int, error) {
	email = normalizeEmail(email)
	if email == "" {
		return s.cfg.FreePetLimit, nil
	}
	sub, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.cfg.FreePetLimit, nil
		}
		return 0, err
	}
	slots := sub.PetSlots(s.now())
	if slots < s.cfg.FreePetLimit {
		slots = s.cfg.FreePetLimit
	}
	return slots, nil
}

// Entitlement devuelve lo guardado, sin consultar al procesador.
func (s *Service) Entitlement(ctx context.Context, email string) (Entitlement, error) {
	sub, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Entitlement{PetSlots: s.cfg.FreePetLimit}, nil
		}
		return Entitlement{}, err
	}
	return s.entitlementOf(sub), nil
}

func (s *Service) entitlementOf(sub Subscriber) Entitlement {
	now := s.now()
	slots := sub.PetSlots(now)
	subscribed := slots > 0
	if slots < s.cfg.FreePetLimit {
		slots = s.cfg.FreePetLimit
	}
	return Entitlement{
		Subscribed:       subscribed,
		Status:           sub.Status,
		PlanInterval:     sub.PlanInterval,
		Tier:             sub.Tier,
		PetSlots:         slots,
		GraceEndsAt:      sub.GraceEndsAt,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		GiftExpiresAt:    sub.GiftExpiresAt,
	}
}

type CheckoutInput struct {
	Email        string
	UserID       string
	Plan         PlanInterval
	ExtraPets    int
	ReferralCode string
}

// CreateCheckout crea la sesión de checkout en modo suscripción (con trial).
func (s *Service) CreateCheckout(ctx context.Context, in CheckoutInput) (payments.CheckoutSession, error) {
	var price string
	switch in.Plan {
	case PlanMonthly:
		price = s.cfg.PriceMonthly
	case PlanYearly:
		price = s.cfg.PriceYearly
	default:
		return payments.CheckoutSession{}, ErrInvalidInput
	}
	if in.ExtraPets < 0 || in.ExtraPets > 20 {
		return payments.CheckoutSession{}, ErrInvalidInput
	}
	if price == "" || (in.ExtraPets > 0 && s.cfg.PriceExtraPet == "") {
		return payments.CheckoutSession{}, ErrUnavailable
	}

	items := []payments.LineItem{{PriceID: price, Quantity: 1}}
	if in.ExtraPets > 0 {
		items = append(items, payments.LineItem{PriceID: s.cfg.PriceExtraPet, Quantity: int64(in.ExtraPets)})
	}

	meta := map[string]string{
		"plan":       string(in.Plan),
		"extra_pets": strconv.Itoa(in.ExtraPets),
	}
	if in.UserID != "" {
		meta["user_id"] = in.UserID
	}
	if code := strings.ToUpper(strings.TrimSpace(in.ReferralCode)); code != "" {
		meta["referral_code"] = code
	}

	base := strings.TrimRight(s.cfg.AppURL, "/")
	sess, err := s.proc.CreateCheckoutSession(ctx, payments.CheckoutParams{
		Mode:              payments.ModeSubscription,
		CustomerEmail:     normalizeEmail(in.Email),
		ClientReferenceID: in.UserID,
		LineItems:         items,
		SuccessURL:        base + s.cfg.CheckoutReturnPath + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         base + "/pricing",
		TrialDays:         s.cfg.TrialDays,
		Metadata:          meta,
	})
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return payments.CheckoutSession{}, ErrUnavailable
		}
		return payments.CheckoutSession{}, err
	}
	return sess, nil
}

type VerifyResult struct {
	Subscriber     Subscriber
	FirstTime      bool
	ReferralLinked bool
}

// VerifyCheckout valida la sesión de checkout y hace upsert del suscriptor.
// Es idempotente: verificar la misma sesión dos veces no reenvía la invitación.
func (s *Service) VerifyCheckout(ctx context.Context, sessionID, userID string) (VerifyResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return VerifyResult{}, ErrSessionRequired
	}

	sess, err := s.proc.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrNotFound):
			return VerifyResult{}, ErrSessionNotFound
		case errors.Is(err, payments.ErrNotConfigured):
			return VerifyResult{}, ErrUnavailable
		}
		return VerifyResult{}, err
	}
	if sess.Mode != "" && sess.Mode != payments.ModeSubscription {
		return VerifyResult{}, ErrNotSubscription
	}
	if !sess.Paid() {
		return VerifyResult{}, ErrPaymentIncomplete
	}
	addr := normalizeEmail(sess.CustomerEmail)
	if addr == "" {
		return VerifyResult{}, ErrNoEmail
	}

	now := s.now()
	existing, err := s.repo.GetByEmail(ctx, addr)
	firstTime := false
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return VerifyResult{}, err
		}
		firstTime = true
		existing = Subscriber{ID: uuid.NewString(), Email: addr, CreatedAt: now}
	}

	amount := sess.PriceUnitAmount
	if amount == 0 {
		amount = sess.AmountTotal
	}

	sub := existing
	if userID = strings.TrimSpace(userID); userID != "" {
		sub.UserID = userID
	} else if sub.UserID == "" {
		sub.UserID = sess.Metadata["user_id"]
	}
	sub.CustomerID = sess.CustomerID
	sub.SubscriptionID = sess.SubscriptionID
	sub.Status = StatusActive
	sub.GraceEndsAt = nil
	sub.PlanInterval = intervalOf(sess.Interval)
	sub.Tier = CheckoutTiers.Tier(amount)
	sub.BasePets = atoiDefault(sess.ProductMetadata["pet_limit"], 1)
	sub.AdditionalPets = atoiDefault(sess.Metadata["extra_pets"], 0)
	sub.UpdatedAt = now

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return VerifyResult{}, err
	}

	res := VerifyResult{Subscriber: sub, FirstTime: firstTime}

	if firstTime {
		s.sendAccountSetup(ctx, sub)
	}

	code := strings.TrimSpace(sess.Metadata["referral_code"])
	if code != "" && sub.PlanInterval == PlanYearly && s.linker != nil {
		signup := sess.CreatedAt
		if signup.IsZero() {
			signup = now
		}
		err := s.linker.LinkReferral(ctx, ReferralLink{
			Code:           code,
			ReferredUserID: sub.UserID,
			ReferredEmail:  sub.Email,
			SignupAt:       signup,
		})
		if err != nil {
			// el pago ya está hecho; el link fallido no rompe el checkout
			s.log.Warn("referral link failed", map[string]any{
				"code":  code,
				"email": sub.Email,
				"error": err,
			})
		} else {
			res.ReferralLinked = true
		}
	}

	return res, nil
}

func (s *Service) sendAccountSetup(ctx context.Context, sub Subscriber) {
	if s.sender == nil {
		return
	}
	link := strings.TrimRight(s.cfg.AppURL, "/") + s.cfg.AccountSetupPath + "&email=" + url.QueryEscape(sub.Email)
	err := s.sender.Send(ctx, email.Message{
		To:       sub.Email,
		Template: email.TemplateAccountSetup,
		Model: map[string]any{
			"email":     sub.Email,
			"setup_url": link,
			"tier":      string(sub.Tier),
			"plan":      string(sub.PlanInterval),
		},
	})
	if err != nil {
		s.log.Warn("account setup email failed", map[string]any{"email": sub.Email, "error": err})
	}
}

// CheckSubscription consulta al procesador, aplica las reglas de gracia y persiste.
func (s *Service) CheckSubscription(ctx context.Context, addr, userID string) (Entitlement, error) {
	addr = normalizeEmail(addr)
	if addr == "" {
		return Entitlement{}, ErrInvalidInput
	}
	now := s.now()

	existing, err := s.repo.GetByEmail(ctx, addr)
	known := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Entitlement{}, err
	}

	customerID := existing.CustomerID
	if customerID == "" {
		customerID, err = s.proc.FindCustomerByEmail(ctx, addr)
		if err != nil {
			switch {
			case errors.Is(err, payments.ErrNotFound):
				return s.storedOrFree(existing, known), nil
			case errors.Is(err, payments.ErrNotConfigured):
				s.log.Debug("check-subscription without processor", map[string]any{"email": addr})
				return s.storedOrFree(existing, known), nil
			}
			return Entitlement{}, err
		}
	}

	list, err := s.proc.ListSubscriptions(ctx, customerID)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return s.storedOrFree(existing, known), nil
		}
		return Entitlement{}, err
	}

	sub := existing
	if !known {
		sub = Subscriber{ID: uuid.NewString(), Email: addr, CreatedAt: now, BasePets: 1}
	}
	if userID != "" {
		sub.UserID = userID
	}
	sub.CustomerID = customerID
	sub.UpdatedAt = now

	pick, ok := pickSubscription(list)
	if !ok {
		if !known {
			return Entitlement{PetSlots: s.cfg.FreePetLimit}, nil
		}
		if sub.PlanInterval != PlanGift {
			sub.Status = StatusCanceled
			sub.GraceEndsAt = nil
		}
	} else {
		status, graceEnds := ResolveStatus(pick.Status, sub, now, s.cfg.GracePeriod)
		sub.Status = status
		sub.GraceEndsAt = graceEnds
		sub.SubscriptionID = pick.ID
		sub.PlanInterval = intervalOf(pick.Interval)
		sub.Tier = PollingTiers.Tier(pick.UnitAmount)
		if n := atoiDefault(pick.ProductMetadata["pet_limit"], 0); n > 0 {
			sub.BasePets = n
		}
		if sub.BasePets <= 0 {
			sub.BasePets = 1
		}
		if !pick.CurrentPeriodEnd.IsZero() {
			end := pick.CurrentPeriodEnd
			sub.CurrentPeriodEnd = &end
		}
	}

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return Entitlement{}, err
	}
	return s.entitlementOf(sub), nil
}

func (s *Service) storedOrFree(sub Subscriber, known bool) Entitlement {
	if !known {
		return Entitlement{PetSlots: s.cfg.FreePetLimit}
	}
	return s.entitlementOf(sub)
}

// ResolveStatus mapea el estado del procesador a nuestro estado de acceso.
// past_due/unpaid => gracia hasta GraceEndsAt (se fija una sola vez), luego suspended.
func ResolveStatus(processorStatus string, current Subscriber, now time.Time, grace time.Duration) (Status, *time.Time) {
	switch processorStatus {
	case "active", "trialing":
		return StatusActive, nil
	case "past_due", "unpaid":
		ends := current.GraceEndsAt
		if ends == nil {
			t := now.Add(grace)
			ends = &t
		}
		if now.Before(*ends) {
			return StatusGrace, ends
		}
		return StatusSuspended, ends
	case "canceled", "incomplete_expired":
		return StatusCanceled, nil
	default:
		// incomplete, paused
		return StatusSuspended, current.GraceEndsAt
	}
}

func statusRank(st string) int {
	switch st {
	case "active", "trialing":
		return 0
	case "past_due", "unpaid":
		return 1
	default:
		return 2
	}
}

// pickSubscription elige la suscripción más relevante: activa > en mora > resto,
// y dentro del mismo rango la más nueva.
func pickSubscription(list []payments.Subscription) (payments.Subscription, bool) {
	if len(list) == 0 {
		return payments.Subscription{}, false
	}
	sorted := append([]payments.Subscription(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := statusRank(sorted[i].Status), statusRank(sorted[j].Status)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted[0], true
}

type GiftGrant struct {
	Email          string
	UserID         string
	AdditionalPets int
	ExpiresAt      time.Time
}

// GrantGift suma el gift canjeado al suscriptor (lo crea si no existe).
func (s *Service) GrantGift(ctx context.Context, in GiftGrant) (Subscriber, error) {
	addr := normalizeEmail(in.Email)
	if addr == "" || in.AdditionalPets < 0 || in.ExpiresAt.IsZero() {
		return Subscriber{}, ErrInvalidInput
	}
	now := s.now()

	sub, err := s.repo.GetByEmail(ctx, addr)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Subscriber{}, err
		}
		sub = Subscriber{
			ID:           uuid.NewString(),
			Email:        addr,
			Status:       StatusActive,
			PlanInterval: PlanGift,
			BasePets:     1,
			CreatedAt:    now,
		}
	}
	if in.UserID != "" {
		sub.UserID = in.UserID
	}

	if sub.giftActive(now) {
		sub.GiftPets += in.AdditionalPets
	} else {
		sub.GiftPets = in.AdditionalPets
	}
	expires := in.ExpiresAt
	if sub.GiftExpiresAt == nil || expires.After(*sub.GiftExpiresAt) {
		sub.GiftExpiresAt = &expires
	}
	if sub.PlanInterval == PlanGift || !sub.Status.Entitled() {
		sub.PlanInterval = PlanGift
		sub.Status = StatusActive
		if sub.BasePets <= 0 {
			sub.BasePets = 1
		}
	}
	sub.UpdatedAt = now

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return Subscriber{}, err
	}
	return sub, nil
}

// RevokeGift limpia el gift vencido. Un suscriptor solo-gift queda cancelado.
func (s *Service) RevokeGift(ctx context.Context, addr string) error {
	sub, err := s.repo.GetByEmail(ctx, normalizeEmail(addr))
	if err != nil {
		return err
	}
	now := s.now()
	if sub.GiftExpiresAt == nil || now.Before(*sub.GiftExpiresAt) {
		// otro gift más nuevo sigue vigente
		return nil
	}
	sub.GiftPets = 0
	if sub.PlanInterval == PlanGift {
		sub.Status = StatusCanceled
	}
	sub.UpdatedAt = now
	return s.repo.Upsert(ctx, sub)
}

func intervalOf(processorInterval string) PlanInterval {
	if processorInterval == payments.IntervalYear {
		return PlanYearly
	}
	return PlanMonthly
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}
