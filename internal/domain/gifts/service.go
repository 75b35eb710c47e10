package gifts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"petport/internal/domain/subscribers"
	"petport/internal/platform/codegen"
	"petport/internal/platform/logger"
	"petport/internal/ports/email"
	"petport/internal/ports/integrity"
	"petport/internal/ports/payments"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrNotPending        = errors.New("gift is not pending")
	ErrGiftNotFound      = errors.New("gift code not found")
	ErrAlreadyRedeemed   = errors.New("gift already redeemed or expired")
	ErrUnavailable       = errors.New("payments not configured")
	ErrSessionRequired   = errors.New("session_id required")
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotGiftSession    = errors.New("checkout session is not a gift purchase")
	ErrPaymentIncomplete = errors.New("payment not completed")
)

const (
	reminderWindow = 30 * 24 * time.Hour
	dateLayout     = "2006-01-02"
)

type Config struct {
	AppURL        string
	PriceGift     string
	PriceExtraPet string
}

// Entitlements es lo que gifts necesita de subscribers.
type Entitlements interface {
	GrantGift(ctx context.Context, in subscribers.GiftGrant) (subscribers.Subscriber, error)
	RevokeGift(ctx context.Context, email string) error
}

type Service struct {
	repo   Repository
	proc   payments.Processor
	sender email.Sender
	ents   Entitlements
	cfg    Config
	log    logger.Logger
	now    func() time.Time
}

var _ integrity.Auditor = (*Service)(nil)

func NewService(repo Repository, proc payments.Processor, sender email.Sender, ents Entitlements, cfg Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		proc:   proc,
		sender: sender,
		ents:   ents,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type CheckoutInput struct {
	PurchaserEmail string
	RecipientEmail string
	RecipientName  string
	Message        string
	AdditionalPets int
	// SendDate YYYY-MM-DD opcional; vacío u hoy => envío inmediato.
	SendDate string
}

// Checkout crea la sesión de pago único del gift. Los datos del gift viajan en metadata.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (payments.CheckoutSession, error) {
	purchaser := normalizeEmail(in.PurchaserEmail)
	recipient := normalizeEmail(in.RecipientEmail)
	if purchaser == "" || recipient == "" || !strings.Contains(recipient, "@") {
		return payments.CheckoutSession{}, ErrInvalidInput
	}
	if in.AdditionalPets < 0 || in.AdditionalPets > 10 || len(in.Message) > 1000 {
		return payments.CheckoutSession{}, ErrInvalidInput
	}
	if sd := strings.TrimSpace(in.SendDate); sd != "" {
		d, err := time.Parse(dateLayout, sd)
		if err != nil || d.Before(utcDay(s.now())) {
			return payments.CheckoutSession{}, ErrInvalidInput
		}
	}
	if s.cfg.PriceGift == "" || (in.AdditionalPets > 0 && s.cfg.PriceExtraPet == "") {
		return payments.CheckoutSession{}, ErrUnavailable
	}

	items := []payments.LineItem{{PriceID: s.cfg.PriceGift, Quantity: 1}}
	if in.AdditionalPets > 0 {
		items = append(items, payments.LineItem{PriceID: s.cfg.PriceExtraPet, Quantity: int64(in.AdditionalPets)})
	}

	base := strings.TrimRight(s.cfg.AppURL, "/")
	sess, err := s.proc.CreateCheckoutSession(ctx, payments.CheckoutParams{
		Mode:          payments.ModePayment,
		CustomerEmail: purchaser,
		LineItems:     items,
		SuccessURL:    base + "/gift/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     base + "/gift",
		Metadata: map[string]string{
			"gift":            "true",
			"purchaser_email": purchaser,
			"recipient_email": recipient,
			"recipient_name":  strings.TrimSpace(in.RecipientName),
			"message":         strings.TrimSpace(in.Message),
			"additional_pets": strconv.Itoa(in.AdditionalPets),
			"send_date":       strings.TrimSpace(in.SendDate),
		},
	})
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return payments.CheckoutSession{}, ErrUnavailable
		}
		return payments.CheckoutSession{}, err
	}
	return sess, nil
}

type giftDetails struct {
	purchaser, recipient, name, message string
	additionalPets                      int
	sendDate                            time.Time // zero => inmediato
}

func (s *Service) paidGiftSession(ctx context.Context, sessionID string) (payments.CheckoutSession, giftDetails, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return payments.CheckoutSession{}, giftDetails{}, ErrSessionRequired
	}
	sess, err := s.proc.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrNotFound):
			return sess, giftDetails{}, ErrSessionNotFound
		case errors.Is(err, payments.ErrNotConfigured):
			return sess, giftDetails{}, ErrUnavailable
		}
		return sess, giftDetails{}, err
	}
	if sess.Metadata["gift"] != "true" {
		return sess, giftDetails{}, ErrNotGiftSession
	}
	if !sess.Paid() {
		return sess, giftDetails{}, ErrPaymentIncomplete
	}

	d := giftDetails{
		purchaser: normalizeEmail(sess.Metadata["purchaser_email"]),
		recipient: normalizeEmail(sess.Metadata["recipient_email"]),
		name:      sess.Metadata["recipient_name"],
		message:   sess.Metadata["message"],
	}
	if d.purchaser == "" {
		d.purchaser = sess.CustomerEmail
	}
	if n, err := strconv.Atoi(sess.Metadata["additional_pets"]); err == nil && n > 0 {
		d.additionalPets = n
	}
	if sd := strings.TrimSpace(sess.Metadata["send_date"]); sd != "" {
		if t, err := time.Parse(dateLayout, sd); err == nil {
			d.sendDate = t
		}
	}
	if d.recipient == "" {
		return sess, giftDetails{}, ErrInvalidInput
	}
	return sess, d, nil
}

// VerifyPurchase procesa una sesión de gift pagada. Idempotente por sesión.
func (s *Service) VerifyPurchase(ctx context.Context, sessionID string) (PurchaseResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if g, err := s.repo.GetBySession(ctx, sessionID); err == nil {
		return PurchaseResult{Gift: &g, AlreadyProcessed: true}, nil
	}
	if sg, err := s.repo.GetScheduledBySession(ctx, sessionID); err == nil {
		return PurchaseResult{Scheduled: &sg, AlreadyProcessed: true}, nil
	}

	sess, d, err := s.paidGiftSession(ctx, sessionID)
	if err != nil {
		return PurchaseResult{}, err
	}
	now := s.now()

	if !d.sendDate.IsZero() && d.sendDate.After(utcDay(now)) {
		sg := ScheduledGift{
			ID:                uuid.NewString(),
			SessionID:         sess.ID,
			PurchaserEmail:    d.purchaser,
			RecipientEmail:    d.recipient,
			RecipientName:     d.name,
			Message:           d.message,
			AdditionalPets:    d.additionalPets,
			ScheduledSendDate: d.sendDate,
			Status:            ScheduleScheduled,
			CreatedAt:         now,
		}
		if err := s.repo.CreateScheduled(ctx, sg); err != nil {
			if errors.Is(err, ErrConflict) {
				existing, gerr := s.repo.GetScheduledBySession(ctx, sess.ID)
				if gerr == nil {
					return PurchaseResult{Scheduled: &existing, AlreadyProcessed: true}, nil
				}
			}
			return PurchaseResult{}, err
		}
		s.send(ctx, email.Message{
			To:       sg.PurchaserEmail,
			Template: email.TemplateGiftScheduled,
			Model: map[string]any{
				"recipient_email": sg.RecipientEmail,
				"recipient_name":  sg.RecipientName,
				"send_date":       sg.ScheduledSendDate.Format(dateLayout),
			},
		})
		return PurchaseResult{Scheduled: &sg}, nil
	}

	g, err := s.createMembership(ctx, sess.ID, d)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			existing, gerr := s.repo.GetBySession(ctx, sess.ID)
			if gerr == nil {
				return PurchaseResult{Gift: &existing, AlreadyProcessed: true}, nil
			}
		}
		return PurchaseResult{}, err
	}
	if err := s.notifyGift(ctx, g); err != nil {
		s.log.Warn("gift emails failed", map[string]any{"gift_id": g.ID, "error": err})
	}
	return PurchaseResult{Gift: &g}, nil
}

// createMembership reintenta si el código generado choca. ErrConflict por sesión se propaga.
func (s *Service) createMembership(ctx context.Context, sessionID string, d giftDetails) (GiftMembership, error) {
	for i := 0; i < 5; i++ {
		code, err := codegen.Grouped("GIFT", 2, 4)
		if err != nil {
			return GiftMembership{}, err
		}
		g := GiftMembership{
			ID:             uuid.NewString(),
			Code:           code,
			SessionID:      sessionID,
			PurchaserEmail: d.purchaser,
			RecipientEmail: d.recipient,
			RecipientName:  d.name,
			Message:        d.message,
			AdditionalPets: d.additionalPets,
			Status:         StatusPending,
			CreatedAt:      s.now(),
		}
		err = s.repo.Create(ctx, g)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, ErrConflict) {
			return GiftMembership{}, err
		}
		if _, gerr := s.repo.GetBySession(ctx, sessionID); gerr == nil {
			return GiftMembership{}, err
		}
	}
	return GiftMembership{}, fmt.Errorf("could not allocate gift code: %w", ErrConflict)
}

// notifyGift: aviso al destinatario + confirmación al comprador.
func (s *Service) notifyGift(ctx context.Context, g GiftMembership) error {
	redeemURL := strings.TrimRight(s.cfg.AppURL, "/") + "/gift/redeem?code=" + url.QueryEscape(g.Code)
	model := map[string]any{
		"gift_code":       g.Code,
		"recipient_name":  g.RecipientName,
		"recipient_email": g.RecipientEmail,
		"purchaser_email": g.PurchaserEmail,
		"message":         g.Message,
		"additional_pets": g.AdditionalPets,
		"redeem_url":      redeemURL,
	}
	if s.sender == nil {
		return email.ErrNotConfigured
	}
	if err := s.sender.Send(ctx, email.Message{To: g.RecipientEmail, Template: email.TemplateGiftReceived, Model: model}); err != nil {
		return fmt.Errorf("recipient email: %w", err)
	}
	if g.PurchaserEmail != "" {
		if err := s.sender.Send(ctx, email.Message{To: g.PurchaserEmail, Template: email.TemplateGiftPurchaseConfirm, Model: model}); err != nil {
			return fmt.Errorf("purchaser email: %w", err)
		}
	}
	return nil
}

func (s *Service) send(ctx context.Context, msg email.Message) {
	if s.sender == nil {
		return
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.log.Warn("email failed", map[string]any{"template": msg.Template, "to": msg.To, "error": err})
	}
}

// Redeem canjea el código para la cuenta autenticada (pending => active, una sola vez)
// y otorga 1 + additional_pets slots al suscriptor.
func (s *Service) Redeem(ctx context.Context, userID, userEmail, code string) (GiftMembership, error) {
	code = codegen.Normalize(code)
	userEmail = normalizeEmail(userEmail)
	if code == "" || strings.TrimSpace(userID) == "" || userEmail == "" {
		return GiftMembership{}, ErrInvalidInput
	}

	now := s.now()
	g, err := s.repo.Redeem(ctx, code, userID, userEmail, now, ExpiryFrom(now))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return GiftMembership{}, ErrGiftNotFound
		case errors.Is(err, ErrNotPending):
			return GiftMembership{}, ErrAlreadyRedeemed
		}
		return GiftMembership{}, err
	}

	_, err = s.ents.GrantGift(ctx, subscribers.GiftGrant{
		Email:          userEmail,
		UserID:         userID,
		AdditionalPets: g.AdditionalPets,
		ExpiresAt:      *g.ExpiresAt,
	})
	if err != nil {
		// el gift ya quedó activo; el reintento del canje no aplica
		s.log.Error("gift redeemed but entitlement upsert failed", map[string]any{
			"gift_id": g.ID,
			"email":   userEmail,
			"error":   err,
		})
		return g, fmt.Errorf("grant gift entitlement: %w", err)
	}

	s.log.Info("gift redeemed", map[string]any{"gift_id": g.ID, "user_id": userID})
	return g, nil
}

// SendScheduled convierte los gifts programados con fecha <= hoy. Un fallo marca la fila
// failed con el mensaje y no se reintenta.
func (s *Service) SendScheduled(ctx context.Context) (ScheduledSummary, error) {
	out := ScheduledSummary{Errors: []string{}}
	now := s.now()

	due, err := s.repo.ListDueScheduled(ctx, utcDay(now))
	if err != nil {
		return out, err
	}
	out.Due = len(due)

	for _, sg := range due {
		g, err := s.createMembership(ctx, sg.SessionID, giftDetails{
			purchaser:      sg.PurchaserEmail,
			recipient:      sg.RecipientEmail,
			name:           sg.RecipientName,
			message:        sg.Message,
			additionalPets: sg.AdditionalPets,
		})
		if err == nil {
			err = s.notifyGift(ctx, g)
		}
		if err != nil {
			out.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("scheduled gift %s: %v", sg.ID, err))
			// g.ID queda vacío si falló la creación; si no, Recover puede reenviar
			if merr := s.repo.MarkScheduledFailed(ctx, sg.ID, g.ID, err.Error()); merr != nil {
				s.log.Error("mark scheduled gift failed", map[string]any{"id": sg.ID, "error": merr})
			}
			continue
		}

		if err := s.repo.MarkScheduledSent(ctx, sg.ID, g.ID, now); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("scheduled gift %s: %v", sg.ID, err))
			continue
		}
		out.Sent++
	}
	return out, nil
}

// Expire vence los gifts activos y quita el entitlement del suscriptor.
func (s *Service) Expire(ctx context.Context) (ExpireSummary, error) {
	out := ExpireSummary{Errors: []string{}}

	expired, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return out, err
	}
	out.Expired = len(expired)

	for _, g := range expired {
		if g.RedeemedByEmail == "" {
			continue
		}
		if err := s.ents.RevokeGift(ctx, g.RedeemedByEmail); err != nil {
			if errors.Is(err, subscribers.ErrNotFound) {
				continue
			}
			out.Errors = append(out.Errors, fmt.Sprintf("gift %s: %v", g.ID, err))
			continue
		}
		out.Downgraded++
	}
	return out, nil
}

// SendRenewalReminders avisa una sola vez a los gifts que vencen en los próximos 30 días.
func (s *Service) SendRenewalReminders(ctx context.Context) (ReminderSummary, error) {
	out := ReminderSummary{Errors: []string{}}
	now := s.now()

	list, err := s.repo.ListExpiring(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return out, err
	}
	out.Candidates = len(list)

	for _, g := range list {
		to := g.RedeemedByEmail
		if to == "" {
			to = g.RecipientEmail
		}
		if s.sender == nil {
			return out, email.ErrNotConfigured
		}
		if g.ExpiresAt == nil {
			continue
		}
		days := int(g.ExpiresAt.Sub(now).Hours() / 24)
		err := s.sender.Send(ctx, email.Message{
			To:       to,
			Template: email.TemplateGiftRenewalReminder,
			Model: map[string]any{
				"expires_at":     g.ExpiresAt.Format(dateLayout),
				"days_remaining": days,
				"renew_url":      strings.TrimRight(s.cfg.AppURL, "/") + "/pricing",
			},
		})
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("gift %s: %v", g.ID, err))
			continue
		}
		if err := s.repo.MarkReminderSent(ctx, g.ID, now); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("gift %s: %v", g.ID, err))
			continue
		}
		out.Sent++
	}
	return out, nil
}

// Recover re-crea el gift desde una sesión pagada (filas perdidas por el bug de permisos).
// Si ya existe devuelve el existente y created=false; un gift pendiente cuyo envío
// programado falló se vuelve a notificar.
func (s *Service) Recover(ctx context.Context, sessionID string) (GiftMembership, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if g, err := s.repo.GetBySession(ctx, sessionID); err == nil {
		if err := s.resendFailedScheduled(ctx, g); err != nil {
			return g, false, err
		}
		return g, false, nil
	}

	sess, d, err := s.paidGiftSession(ctx, sessionID)
	if err != nil {
		return GiftMembership{}, false, err
	}

	g, err := s.createMembership(ctx, sess.ID, d)
	if err != nil {
		return GiftMembership{}, false, err
	}

	// si quedó una fila programada sin enviar, la cerramos con este gift
	if sg, err := s.repo.GetScheduledBySession(ctx, sess.ID); err == nil && sg.Status != ScheduleSent {
		if err := s.repo.MarkScheduledSent(ctx, sg.ID, g.ID, s.now()); err != nil {
			s.log.Warn("recover: could not close scheduled gift", map[string]any{"id": sg.ID, "error": err})
		}
	}
	if err := s.notifyGift(ctx, g); err != nil {
		s.log.Warn("recover: gift emails failed", map[string]any{"gift_id": g.ID, "error": err})
	}

	s.log.Info("gift recovered", map[string]any{"gift_id": g.ID, "session_id": sess.ID})
	return g, true, nil
}

func (s *Service) resendFailedScheduled(ctx context.Context, g GiftMembership) error {
	if g.Status != StatusPending {
		return nil
	}
	sg, err := s.repo.GetScheduledBySession(ctx, g.SessionID)
	if err != nil || sg.Status != ScheduleFailed {
		return nil
	}
	if err := s.notifyGift(ctx, g); err != nil {
		return fmt.Errorf("resend gift emails: %w", err)
	}
	if err := s.repo.MarkScheduledSent(ctx, sg.ID, g.ID, s.now()); err != nil {
		return err
	}
	s.log.Info("scheduled gift resent", map[string]any{"gift_id": g.ID, "scheduled_id": sg.ID})
	return nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (GiftMembership, error) {
	code = codegen.Normalize(code)
	if code == "" {
		return GiftMembership{}, ErrInvalidInput
	}
	g, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return GiftMembership{}, ErrGiftNotFound
	}
	return g, err
}

func (s *Service) List(ctx context.Context) ([]GiftMembership, error) {
	return s.repo.List(ctx)
}

// Audit implementa integrity.Auditor.
func (s *Service) Audit(ctx context.Context) ([]integrity.Issue, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	issues := make([]integrity.Issue, 0)
	for _, g := range list {
		switch {
		case g.Status == StatusActive && (g.ActivatedAt == nil || g.ExpiresAt == nil):
			issues = append(issues, integrity.Issue{Kind: "gift_active_without_dates", Ref: g.ID, Detail: "active gift without activated_at/expires_at"})
		case g.Status == StatusActive && g.RedeemedByUserID == "":
			issues = append(issues, integrity.Issue{Kind: "gift_active_without_redeemer", Ref: g.ID, Detail: "active gift has no redeeming user"})
		case g.Status == StatusActive && g.ExpiresAt.Before(now):
			issues = append(issues, integrity.Issue{Kind: "gift_overdue", Ref: g.ID, Detail: "active gift past expires_at"})
		case g.Status == StatusPending && g.RedeemedByUserID != "":
			issues = append(issues, integrity.Issue{Kind: "gift_pending_redeemed", Ref: g.ID, Detail: "pending gift carries a redeeming user"})
		}
	}

	scheduled, err := s.repo.ListScheduled(ctx)
	if err != nil {
		return nil, err
	}
	today := utcDay(now)
	for _, sg := range scheduled {
		switch {
		case sg.Status == ScheduleScheduled && sg.ScheduledSendDate.Before(today):
			issues = append(issues, integrity.Issue{Kind: "scheduled_gift_overdue", Ref: sg.ID, Detail: "scheduled gift not sent after its send date"})
		case sg.Status == ScheduleSent && sg.GiftMembershipID == "":
			issues = append(issues, integrity.Issue{Kind: "scheduled_gift_orphan", Ref: sg.ID, Detail: "sent scheduled gift without gift membership"})
		case sg.Status == ScheduleFailed && sg.GiftMembershipID != "":
			issues = append(issues, integrity.Issue{Kind: "scheduled_gift_failed_with_membership", Ref: sg.ID, Detail: "gift created but scheduled emails failed; run recover for " + sg.SessionID})
		}
	}
	return issues, nil
}
