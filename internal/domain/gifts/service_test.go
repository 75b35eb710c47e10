package gifts

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"petport/internal/domain/subscribers"
	"petport/internal/ports/email"
	"petport/internal/ports/email/emailtest"
	"petport/internal/ports/payments"
	"petport/internal/ports/payments/paymentstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test doubles
// -------------------------

type testRepo struct {
	mu        sync.Mutex
	gifts     map[string]GiftMembership
	scheduled map[string]ScheduledGift
}

func newTestRepo() *testRepo {
	return &testRepo{gifts: map[string]GiftMembership{}, scheduled: map[string]ScheduledGift{}}
}

func (r *testRepo) Create(_ context.Context, g GiftMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.gifts {
		if existing.Code == g.Code || (g.SessionID != "" && existing.SessionID == g.SessionID) {
			return ErrConflict
		}
	}
	r.gifts[g.ID] = g
	return nil
}

func (r *testRepo) find(keep func(GiftMembership) bool) (GiftMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.gifts {
		if keep(g) {
			return g, nil
		}
	}
	return GiftMembership{}, ErrNotFound
}

func (r *testRepo) GetByCode(_ context.Context, code string) (GiftMembership, error) {
	return r.find(func(g GiftMembership) bool { return g.Code == code })
}

func (r *testRepo) GetBySession(_ context.Context, sid string) (GiftMembership, error) {
	return r.find(func(g GiftMembership) bool { return sid != "" && g.SessionID == sid })
}

func (r *testRepo) List(_ context.Context) ([]GiftMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GiftMembership, 0, len(r.gifts))
	for _, g := range r.gifts {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *testRepo) Redeem(_ context.Context, code, userID, addr string, activatedAt, expiresAt time.Time) (GiftMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, g := range r.gifts {
		if g.Code != code {
			continue
		}
		if g.Status != StatusPending {
			return GiftMembership{}, ErrNotPending
		}
		g.Status = StatusActive
		g.RedeemedByUserID = userID
		g.RedeemedByEmail = addr
		g.ActivatedAt = &activatedAt
		g.ExpiresAt = &expiresAt
		r.gifts[id] = g
		return g, nil
	}
	return GiftMembership{}, ErrNotFound
}

func (r *testRepo) ExpireDue(_ context.Context, now time.Time) ([]GiftMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GiftMembership, 0)
	for id, g := range r.gifts {
		if g.Status == StatusActive && g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
			g.Status = StatusExpired
			r.gifts[id] = g
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListExpiring(_ context.Context, now, before time.Time) ([]GiftMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GiftMembership, 0)
	for _, g := range r.gifts {
		if g.Status == StatusActive && g.ReminderSentAt == nil && g.ExpiresAt != nil &&
			g.ExpiresAt.After(now) && !g.ExpiresAt.After(before) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) MarkReminderSent(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gifts[id]
	if !ok {
		return ErrNotFound
	}
	g.ReminderSentAt = &at
	r.gifts[id] = g
	return nil
}

func (r *testRepo) CreateScheduled(_ context.Context, s ScheduledGift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.scheduled {
		if existing.SessionID == s.SessionID {
			return ErrConflict
		}
	}
	r.scheduled[s.ID] = s
	return nil
}

func (r *testRepo) GetScheduledBySession(_ context.Context, sid string) (ScheduledGift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.scheduled {
		if sid != "" && s.SessionID == sid {
			return s, nil
		}
	}
	return ScheduledGift{}, ErrNotFound
}

func (r *testRepo) ListDueScheduled(_ context.Context, day time.Time) ([]ScheduledGift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ScheduledGift, 0)
	for _, s := range r.scheduled {
		if s.Status == ScheduleScheduled && !s.ScheduledSendDate.After(day) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *testRepo) ListScheduled(_ context.Context) ([]ScheduledGift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ScheduledGift, 0, len(r.scheduled))
	for _, s := range r.scheduled {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *testRepo) MarkScheduledSent(_ context.Context, id, giftID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scheduled[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = ScheduleSent
	s.GiftMembershipID = giftID
	s.SentAt = &at
	r.scheduled[id] = s
	return nil
}

func (r *testRepo) MarkScheduledFailed(_ context.Context, id, giftID, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scheduled[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = ScheduleFailed
	s.ErrorMessage = msg
	if giftID != "" {
		s.GiftMembershipID = giftID
	}
	r.scheduled[id] = s
	return nil
}

type fakeEntitlements struct {
	grants  []subscribers.GiftGrant
	revoked []string
	err     error
}

func (f *fakeEntitlements) GrantGift(_ context.Context, in subscribers.GiftGrant) (subscribers.Subscriber, error) {
	if f.err != nil {
		return subscribers.Subscriber{}, f.err
	}
	f.grants = append(f.grants, in)
	return subscribers.Subscriber{Email: in.Email}, nil
}

func (f *fakeEntitlements) RevokeGift(_ context.Context, addr string) error {
	f.revoked = append(f.revoked, addr)
	return nil
}

// failOn falla solo para un template.
type failOn struct {
	emailtest.Recorder
	template string
}

func (f *failOn) Send(ctx context.Context, msg email.Message) error {
	if msg.Template == f.template {
		return errors.New("provider down")
	}
	return f.Recorder.Send(ctx, msg)
}

type fixture struct {
	svc   *Service
	repo  *testRepo
	proc  *paymentstest.Processor
	mail  *emailtest.Recorder
	ents  *fakeEntitlements
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  newTestRepo(),
		proc:  paymentstest.New(),
		mail:  &emailtest.Recorder{},
		ents:  &fakeEntitlements{},
		clock: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, f.proc, f.mail, f.ents, Config{
		AppURL:        "https://petport.app",
		PriceGift:     "price_gift",
		PriceExtraPet: "price_extra",
	}, nil)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) paidSession(id string, meta map[string]string) {
	m := map[string]string{
		"gift":            "true",
		"purchaser_email": "buyer@example.com",
		"recipient_email": "friend@example.com",
		"recipient_name":  "Ana",
		"additional_pets": "2",
	}
	for k, v := range meta {
		m[k] = v
	}
	f.proc.Sessions[id] = payments.CheckoutSession{
		ID:            id,
		Mode:          payments.ModePayment,
		Status:        "complete",
		PaymentStatus: "paid",
		Metadata:      m,
	}
}

// -------------------------
// Tests
// -------------------------

func TestCheckout_BuildsPaymentSession(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Checkout(context.Background(), CheckoutInput{
		PurchaserEmail: "Buyer@Example.com",
		RecipientEmail: "friend@example.com",
		AdditionalPets: 2,
		SendDate:       "2024-03-20",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.URL)

	require.Len(t, f.proc.Created, 1)
	p := f.proc.Created[0]
	assert.Equal(t, payments.ModePayment, p.Mode)
	assert.Equal(t, "buyer@example.com", p.CustomerEmail)
	assert.Equal(t, []payments.LineItem{
		{PriceID: "price_gift", Quantity: 1},
		{PriceID: "price_extra", Quantity: 2},
	}, p.LineItems)
	assert.Equal(t, "true", p.Metadata["gift"])
	assert.Equal(t, "2024-03-20", p.Metadata["send_date"])
}

func TestCheckout_RejectsPastSendDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), CheckoutInput{
		PurchaserEmail: "buyer@example.com",
		RecipientEmail: "friend@example.com",
		SendDate:       "2024-03-09",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerifyPurchase_ImmediateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.paidSession("cs_1", nil)
	ctx := context.Background()

	res, err := f.svc.VerifyPurchase(ctx, "cs_1")
	require.NoError(t, err)
	require.NotNil(t, res.Gift)
	assert.False(t, res.AlreadyProcessed)
	assert.Equal(t, StatusPending, res.Gift.Status)
	assert.Regexp(t, `^GIFT-[A-Z0-9]{4}-[A-Z0-9]{4}$`, res.Gift.Code)
	assert.Equal(t, 2, res.Gift.AdditionalPets)

	assert.Len(t, f.mail.ByTemplate(email.TemplateGiftReceived), 1)
	assert.Len(t, f.mail.ByTemplate(email.TemplateGiftPurchaseConfirm), 1)

	again, err := f.svc.VerifyPurchase(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, again.AlreadyProcessed)
	assert.Equal(t, res.Gift.ID, again.Gift.ID)
	assert.Len(t, f.repo.gifts, 1)
	assert.Len(t, f.mail.ByTemplate(email.TemplateGiftReceived), 1)
}

func TestVerifyPurchase_FutureDateSchedules(t *testing.T) {
	f := newFixture(t)
	f.paidSession("cs_2", map[string]string{"send_date": "2024-03-15"})

	res, err := f.svc.VerifyPurchase(context.Background(), "cs_2")
	require.NoError(t, err)
	require.NotNil(t, res.Scheduled)
	assert.Nil(t, res.Gift)
	assert.Equal(t, ScheduleScheduled, res.Scheduled.Status)
	assert.Empty(t, f.repo.gifts)
	assert.Len(t, f.mail.ByTemplate(email.TemplateGiftScheduled), 1)
	assert.Empty(t, f.mail.ByTemplate(email.TemplateGiftReceived))
}

func TestVerifyPurchase_SendDateTodayIsImmediate(t *testing.T) {
	f := newFixture(t)
	f.paidSession("cs_3", map[string]string{"send_date": "2024-03-10"})

	res, err := f.svc.VerifyPurchase(context.Background(), "cs_3")
	require.NoError(t, err)
	assert.NotNil(t, res.Gift)
	assert.Nil(t, res.Scheduled)
}

func TestVerifyPurchase_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.VerifyPurchase(ctx, "")
	assert.ErrorIs(t, err, ErrSessionRequired)

	_, err = f.svc.VerifyPurchase(ctx, "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	f.proc.Sessions["cs_open"] = payments.CheckoutSession{ID: "cs_open", Status: "open", Metadata: map[string]string{"gift": "true"}}
	_, err = f.svc.VerifyPurchase(ctx, "cs_open")
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	f.proc.Sessions["cs_sub"] = payments.CheckoutSession{ID: "cs_sub", Status: "complete", PaymentStatus: "paid"}
	_, err = f.svc.VerifyPurchase(ctx, "cs_sub")
	assert.ErrorIs(t, err, ErrNotGiftSession)
}

func TestRedeem_ExactlyOnce(t *testing.T) {
	f := newFixture(t)
	f.paidSession("cs_1", nil)
	ctx := context.Background()

	res, err := f.svc.VerifyPurchase(ctx, "cs_1")
	require.NoError(t, err)
	code := res.Gift.Code

	g, err := f.svc.Redeem(ctx, "user-1", "Friend@Example.com", " "+code+" ")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, g.Status)
	require.NotNil(t, g.ExpiresAt)
	assert.Equal(t, time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC), *g.ExpiresAt)

	require.Len(t, f.ents.grants, 1)
	assert.Equal(t, "friend@example.com", f.ents.grants[0].Email)
	assert.Equal(t, 2, f.ents.grants[0].AdditionalPets)

	_, err = f.svc.Redeem(ctx, "user-2", "other@example.com", code)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	assert.Len(t, f.ents.grants, 1)

	_, err = f.svc.Redeem(ctx, "user-2", "other@example.com", "GIFT-NOPE-NOPE")
	assert.ErrorIs(t, err, ErrGiftNotFound)
}

type subscriberRows struct {
	mu   sync.Mutex
	rows map[string]subscribers.Subscriber
}

func (r *subscriberRows) GetByEmail(_ context.Context, addr string) (subscribers.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[addr]
	if !ok {
		return subscribers.Subscriber{}, subscribers.ErrNotFound
	}
	return s, nil
}

func (r *subscriberRows) Upsert(_ context.Context, s subscribers.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.Email] = s
	return nil
}

func (r *subscriberRows) List(_ context.Context) ([]subscribers.Subscriber, error) {
	return nil, nil
}

func TestRedeem_NoExtraPetsGrantsOneSlot(t *testing.T) {
	f := newFixture(t)
	rows := &subscriberRows{rows: map[string]subscribers.Subscriber{}}
	subs := subscribers.NewService(rows, f.proc, f.mail, subscribers.Config{FreePetLimit: 1}, nil)
	f.svc = NewService(f.repo, f.proc, f.mail, subs, Config{AppURL: "https://petport.app", PriceGift: "price_gift"}, nil)
	f.svc.now = func() time.Time { return f.clock }

	f.paidSession("cs_zero", map[string]string{"additional_pets": "0"})
	ctx := context.Background()
	res, err := f.svc.VerifyPurchase(ctx, "cs_zero")
	require.NoError(t, err)

	g, err := f.svc.Redeem(ctx, "user-1", "friend@example.com", res.Gift.Code)
	require.NoError(t, err)
	assert.Equal(t, 0, g.AdditionalPets)

	row, ok := rows.rows["friend@example.com"]
	require.True(t, ok)
	assert.Equal(t, subscribers.StatusActive, row.Status)
	assert.Equal(t, subscribers.PlanGift, row.PlanInterval)
	assert.Equal(t, 1, row.PetSlots(f.clock))
}

func TestRedeem_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	f.paidSession("cs_1", nil)
	ctx := context.Background()
	res, err := f.svc.VerifyPurchase(ctx, "cs_1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Redeem(ctx, "user-1", "friend@example.com", res.Gift.Code); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestSendScheduled_ConvertsDueRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.paidSession("cs_today", map[string]string{"send_date": "2024-03-11"})
	f.paidSession("cs_later", map[string]string{"send_date": "2024-04-01"})
	_, err := f.svc.VerifyPurchase(ctx, "cs_today")
	require.NoError(t, err)
	_, err = f.svc.VerifyPurchase(ctx, "cs_later")
	require.NoError(t, err)

	f.clock = time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)
	sum, err := f.svc.SendScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Due)
	assert.Equal(t, 1, sum.Sent)
	assert.Empty(t, sum.Errors)

	due, _ := f.repo.GetScheduledBySession(ctx, "cs_today")
	assert.Equal(t, ScheduleSent, due.Status)
	assert.NotEmpty(t, due.GiftMembershipID)
	later, _ := f.repo.GetScheduledBySession(ctx, "cs_later")
	assert.Equal(t, ScheduleScheduled, later.Status)

	assert.Len(t, f.mail.ByTemplate(email.TemplateGiftReceived), 1)
	assert.Len(t, f.mail.ByTemplate(email.TemplateGiftPurchaseConfirm), 1)
}

func TestSendScheduled_EmailFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.paidSession("cs_today", map[string]string{"send_date": "2024-03-11"})
	_, err := f.svc.VerifyPurchase(ctx, "cs_today")
	require.NoError(t, err)

	f.svc.sender = &failOn{template: email.TemplateGiftReceived}
	f.clock = time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)

	sum, err := f.svc.SendScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)

	sg, _ := f.repo.GetScheduledBySession(ctx, "cs_today")
	assert.Equal(t, ScheduleFailed, sg.Status)
	assert.Contains(t, sg.ErrorMessage, "provider down")

	// no se reintenta
	sum, err = f.svc.SendScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Due)
}

func TestSendScheduled_EmailFailureIsRecoverable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.paidSession("cs_today", map[string]string{"send_date": "2024-03-11"})
	_, err := f.svc.VerifyPurchase(ctx, "cs_today")
	require.NoError(t, err)

	f.svc.sender = &failOn{template: email.TemplateGiftReceived}
	f.clock = time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)
	_, err = f.svc.SendScheduled(ctx)
	require.NoError(t, err)

	g, err := f.repo.GetBySession(ctx, "cs_today")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, g.Status)

	sg, _ := f.repo.GetScheduledBySession(ctx, "cs_today")
	assert.Equal(t, ScheduleFailed, sg.Status)
	assert.Equal(t, g.ID, sg.GiftMembershipID)

	issues, err := f.svc.Audit(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "scheduled_gift_failed_with_membership", issues[0].Kind)
	assert.Equal(t, sg.ID, issues[0].Ref)

	// el proveedor vuelve: recover reenvía el código y cierra la fila
	f.svc.sender = f.mail
	again, created, err := f.svc.Recover(ctx, "cs_today")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, g.ID, again.ID)
	require.Len(t, f.mail.ByTemplate(email.TemplateGiftReceived), 1)
	assert.Equal(t, "friend@example.com", f.mail.ByTemplate(email.TemplateGiftReceived)[0].To)

	sg, _ = f.repo.GetScheduledBySession(ctx, "cs_today")
	assert.Equal(t, ScheduleSent, sg.Status)
	issues, err = f.svc.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	// una segunda recuperación no vuelve a enviar
	_, _, err = f.svc.Recover(ctx, "cs_today")
	require.NoError(t, err)
	assert.Len(t, f.mail.ByTemplate(email.TemplateGiftReceived), 1)
}

func TestExpire_RevokesEntitlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.paidSession("cs_1", nil)
	res, err := f.svc.VerifyPurchase(ctx, "cs_1")
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, "user-1", "friend@example.com", res.Gift.Code)
	require.NoError(t, err)

	sum, err := f.svc.Expire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Expired)

	f.clock = f.clock.AddDate(1, 0, 1)
	sum, err = f.svc.Expire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Expired)
	assert.Equal(t, 1, sum.Downgraded)
	assert.Equal(t, []string{"friend@example.com"}, f.ents.revoked)
}

func TestSendRenewalReminders_Once(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.paidSession("cs_1", nil)
	res, err := f.svc.VerifyPurchase(ctx, "cs_1")
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, "user-1", "friend@example.com", res.Gift.Code)
	require.NoError(t, err)

	sum, err := f.svc.SendRenewalReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Candidates)

	f.clock = f.clock.AddDate(0, 11, 15)
	sum, err = f.svc.SendRenewalReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sent)

	sum, err = f.svc.SendRenewalReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Candidates)
	assert.Len(t, f.mail.ByTemplate(email.TemplateGiftRenewalReminder), 1)
}

func TestRecover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.paidSession("cs_lost", nil)

	g, created, err := f.svc.Recover(ctx, "cs_lost")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "cs_lost", g.SessionID)

	again, created, err := f.svc.Recover(ctx, "cs_lost")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, g.ID, again.ID)
}

func TestAudit_FlagsBrokenRows(t *testing.T) {
	f := newFixture(t)
	f.repo.gifts["g1"] = GiftMembership{ID: "g1", Code: "A", Status: StatusActive, RedeemedByUserID: "u"}
	f.repo.gifts["g2"] = GiftMembership{ID: "g2", Code: "B", Status: StatusPending}
	f.repo.scheduled["s1"] = ScheduledGift{ID: "s1", SessionID: "cs", Status: ScheduleScheduled,
		ScheduledSendDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

	issues, err := f.svc.Audit(context.Background())
	require.NoError(t, err)
	kinds := make([]string, 0, len(issues))
	for _, is := range issues {
		kinds = append(kinds, is.Kind)
	}
	assert.ElementsMatch(t, []string{"gift_active_without_dates", "scheduled_gift_overdue"}, kinds)
}
