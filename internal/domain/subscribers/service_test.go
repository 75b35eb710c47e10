package subscribers

import (
	"context"
	"errors"
	"testing"
	"time"

	"petport/internal/ports/email"
	"petport/internal/ports/email/emailtest"
	"petport/internal/ports/payments"
	"petport/internal/ports/payments/paymentstest"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byEmail map[string]Subscriber
}

func newTestRepo() *testRepo {
	return &testRepo{byEmail: map[string]Subscriber{}}
}

func (r *testRepo) GetByEmail(_ context.Context, email string) (Subscriber, error) {
	s, ok := r.byEmail[email]
	if !ok {
		return Subscriber{}, ErrNotFound
	}
	return s, nil
}

func (r *testRepo) Upsert(_ context.Context, s Subscriber) error {
	r.byEmail[s.Email] = s
	return nil
}

func (r *testRepo) List(_ context.Context) ([]Subscriber, error) {
	out := make([]Subscriber, 0, len(r.byEmail))
	for _, s := range r.byEmail {
		out = append(out, s)
	}
	return out, nil
}

type testLinker struct {
	calls []ReferralLink
	err   error
}

func (l *testLinker) LinkReferral(_ context.Context, in ReferralLink) error {
	l.calls = append(l.calls, in)
	return l.err
}

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *testRepo, *paymentstest.Processor, *emailtest.Recorder) {
	repo := newTestRepo()
	proc := paymentstest.New()
	mail := &emailtest.Recorder{}
	svc := NewService(repo, proc, mail, Config{
		AppURL:       "https://app.test",
		PriceMonthly: "price_m",
		PriceYearly:  "price_y",
		TrialDays:    7,
		FreePetLimit: 1,
		GracePeriod:  7 * 24 * time.Hour,
	}, nil)
	svc.now = func() time.Time { return testNow }
	return svc, repo, proc, mail
}

func paidSession(id, addr, interval string, amount int64) payments.CheckoutSession {
	return payments.CheckoutSession{
		ID:              id,
		Mode:            payments.ModeSubscription,
		Status:          "complete",
		PaymentStatus:   "paid",
		CustomerID:      "cus_1",
		CustomerEmail:   addr,
		SubscriptionID:  "sub_1",
		PriceUnitAmount: amount,
		Interval:        interval,
		ProductMetadata: map[string]string{"pet_limit": "3"},
		Metadata:        map[string]string{},
		CreatedAt:       testNow,
	}
}

// -------------------------
// Tests
// -------------------------

func TestTierSchedules(t *testing.T) {
	cases := []struct {
		amount   int64
		checkout Tier
		polling  Tier
	}{
		{0, TierBasic, TierBasic},
		{299, TierBasic, TierBasic},
		{300, TierPremium, TierBasic},
		{999, TierPremium, TierBasic},
		{1499, TierPremium, TierPremium},
		{1500, TierEnterprise, TierPremium},
		{1999, TierEnterprise, TierPremium},
		{2000, TierEnterprise, TierEnterprise},
	}
	for _, tc := range cases {
		if got := CheckoutTiers.Tier(tc.amount); got != tc.checkout {
			t.Errorf("checkout tier(%d) = %s, want %s", tc.amount, got, tc.checkout)
		}
		if got := PollingTiers.Tier(tc.amount); got != tc.polling {
			t.Errorf("polling tier(%d) = %s, want %s", tc.amount, got, tc.polling)
		}
	}
}

func TestVerifyCheckout_Errors(t *testing.T) {
	svc, _, proc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.VerifyCheckout(ctx, " ", ""); !errors.Is(err, ErrSessionRequired) {
		t.Fatalf("expected ErrSessionRequired, got %v", err)
	}
	if _, err := svc.VerifyCheckout(ctx, "cs_missing", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	unpaid := paidSession("cs_unpaid", "a@b.c", "year", 4999)
	unpaid.Status = "open"
	unpaid.PaymentStatus = "unpaid"
	proc.Sessions[unpaid.ID] = unpaid
	if _, err := svc.VerifyCheckout(ctx, unpaid.ID, ""); !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("expected ErrPaymentIncomplete, got %v", err)
	}

	noEmail := paidSession("cs_noemail", "", "year", 4999)
	proc.Sessions[noEmail.ID] = noEmail
	if _, err := svc.VerifyCheckout(ctx, noEmail.ID, ""); !errors.Is(err, ErrNoEmail) {
		t.Fatalf("expected ErrNoEmail, got %v", err)
	}
}

func TestVerifyCheckout_FirstTimeSendsInvitationOnce(t *testing.T) {
	svc, repo, proc, mail := newTestService()
	ctx := context.Background()

	proc.Sessions["cs_1"] = paidSession("cs_1", "owner@example.com", "month", 999)

	res, err := svc.VerifyCheckout(ctx, "cs_1", "")
	if err != nil {
		t.Fatalf("VerifyCheckout: %v", err)
	}
	if !res.FirstTime {
		t.Fatalf("expected first time")
	}
	if res.Subscriber.Tier != TierPremium {
		t.Fatalf("expected checkout tier Premium for 999, got %s", res.Subscriber.Tier)
	}
	if res.Subscriber.PlanInterval != PlanMonthly || res.Subscriber.BasePets != 3 {
		t.Fatalf("unexpected subscriber %#v", res.Subscriber)
	}

	// re-verificar no reenvía invitación
	res2, err := svc.VerifyCheckout(ctx, "cs_1", "user-1")
	if err != nil {
		t.Fatalf("VerifyCheckout second: %v", err)
	}
	if res2.FirstTime {
		t.Fatalf("expected not first time on second verify")
	}
	if got := len(mail.ByTemplate(email.TemplateAccountSetup)); got != 1 {
		t.Fatalf("expected 1 invitation, got %d", got)
	}
	if repo.byEmail["owner@example.com"].UserID != "user-1" {
		t.Fatalf("expected user id attached on second verify")
	}
}

func TestVerifyCheckout_LinksReferralOnlyForYearly(t *testing.T) {
	svc, _, proc, _ := newTestService()
	linker := &testLinker{}
	svc.SetReferralLinker(linker)
	ctx := context.Background()

	monthly := paidSession("cs_m", "m@example.com", "month", 999)
	monthly.Metadata["referral_code"] = "REF123"
	proc.Sessions[monthly.ID] = monthly

	yearly := paidSession("cs_y", "y@example.com", "year", 4999)
	yearly.Metadata["referral_code"] = "REF123"
	proc.Sessions[yearly.ID] = yearly

	if _, err := svc.VerifyCheckout(ctx, "cs_m", "u-m"); err != nil {
		t.Fatalf("verify monthly: %v", err)
	}
	res, err := svc.VerifyCheckout(ctx, "cs_y", "u-y")
	if err != nil {
		t.Fatalf("verify yearly: %v", err)
	}

	if len(linker.calls) != 1 || linker.calls[0].ReferredEmail != "y@example.com" {
		t.Fatalf("expected one link for yearly, got %#v", linker.calls)
	}
	if !res.ReferralLinked {
		t.Fatalf("expected referral linked flag")
	}
}

func TestVerifyCheckout_LinkFailureDoesNotFail(t *testing.T) {
	svc, _, proc, _ := newTestService()
	svc.SetReferralLinker(&testLinker{err: errors.New("boom")})

	s := paidSession("cs_y", "y@example.com", "year", 4999)
	s.Metadata["referral_code"] = "NOPE"
	proc.Sessions[s.ID] = s

	res, err := svc.VerifyCheckout(context.Background(), "cs_y", "")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.ReferralLinked {
		t.Fatalf("expected referral not linked")
	}
}

func TestResolveStatus_GraceRules(t *testing.T) {
	grace := 7 * 24 * time.Hour

	st, ends := ResolveStatus("trialing", Subscriber{}, testNow, grace)
	if st != StatusActive || ends != nil {
		t.Fatalf("trialing => active, got %s %v", st, ends)
	}

	st, ends = ResolveStatus("past_due", Subscriber{}, testNow, grace)
	if st != StatusGrace || ends == nil || !ends.Equal(testNow.Add(grace)) {
		t.Fatalf("past_due => grace until now+grace, got %s %v", st, ends)
	}

	// la fecha de fin de gracia no se corre en cada poll
	later := testNow.Add(3 * 24 * time.Hour)
	st, ends2 := ResolveStatus("past_due", Subscriber{GraceEndsAt: ends}, later, grace)
	if st != StatusGrace || !ends2.Equal(*ends) {
		t.Fatalf("expected same grace end, got %s %v", st, ends2)
	}

	st, _ = ResolveStatus("unpaid", Subscriber{GraceEndsAt: ends}, testNow.Add(8*24*time.Hour), grace)
	if st != StatusSuspended {
		t.Fatalf("expected suspended after grace, got %s", st)
	}

	st, _ = ResolveStatus("incomplete_expired", Subscriber{}, testNow, grace)
	if st != StatusCanceled {
		t.Fatalf("expected canceled, got %s", st)
	}
}

func TestCheckSubscription_PicksActiveAndUsesPollingTiers(t *testing.T) {
	svc, repo, proc, _ := newTestService()
	ctx := context.Background()

	proc.Customers["owner@example.com"] = "cus_9"
	proc.Subscriptions["cus_9"] = []payments.Subscription{
		{ID: "sub_old", Status: "canceled", UnitAmount: 4999, Interval: "year", CreatedAt: testNow.Add(-time.Hour)},
		{ID: "sub_new", Status: "active", UnitAmount: 999, Interval: "year", CreatedAt: testNow.Add(-2 * time.Hour)},
	}

	ent, err := svc.CheckSubscription(ctx, "Owner@Example.com", "user-9")
	if err != nil {
		t.Fatalf("CheckSubscription: %v", err)
	}
	if ent.Status != StatusActive || ent.Tier != TierBasic || ent.PlanInterval != PlanYearly {
		t.Fatalf("unexpected entitlement %#v", ent)
	}
	stored := repo.byEmail["owner@example.com"]
	if stored.SubscriptionID != "sub_new" || stored.CustomerID != "cus_9" {
		t.Fatalf("unexpected stored subscriber %#v", stored)
	}
}

func TestCheckSubscription_NoCustomerIsFree(t *testing.T) {
	svc, repo, _, _ := newTestService()

	ent, err := svc.CheckSubscription(context.Background(), "nobody@example.com", "")
	if err != nil {
		t.Fatalf("CheckSubscription: %v", err)
	}
	if ent.Subscribed || ent.PetSlots != 1 {
		t.Fatalf("expected free entitlement, got %#v", ent)
	}
	if len(repo.byEmail) != 0 {
		t.Fatalf("expected no row for free user")
	}
}

func TestPetSlots(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	if n, _ := svc.PetSlots(ctx, "free@example.com"); n != 1 {
		t.Fatalf("free user slots = %d, want 1", n)
	}

	repo.byEmail["paid@example.com"] = Subscriber{
		Email: "paid@example.com", Status: StatusGrace, PlanInterval: PlanYearly,
		BasePets: 3, AdditionalPets: 2,
	}
	if n, _ := svc.PetSlots(ctx, "paid@example.com"); n != 5 {
		t.Fatalf("grace user slots = %d, want 5", n)
	}

	repo.byEmail["susp@example.com"] = Subscriber{
		Email: "susp@example.com", Status: StatusSuspended, PlanInterval: PlanYearly, BasePets: 3,
	}
	if n, _ := svc.PetSlots(ctx, "susp@example.com"); n != 1 {
		t.Fatalf("suspended user slots = %d, want free limit", n)
	}
}

func TestGrantGift_NewAndStacked(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	exp := testNow.AddDate(1, 0, 0)

	sub, err := svc.GrantGift(ctx, GiftGrant{Email: "r@example.com", UserID: "u-r", AdditionalPets: 2, ExpiresAt: exp})
	if err != nil {
		t.Fatalf("GrantGift: %v", err)
	}
	if sub.PlanInterval != PlanGift || sub.PetSlots(testNow) != 3 {
		t.Fatalf("expected 1+2 slots gift subscriber, got %#v slots=%d", sub, sub.PetSlots(testNow))
	}

	sub, err = svc.GrantGift(ctx, GiftGrant{Email: "r@example.com", AdditionalPets: 1, ExpiresAt: exp.AddDate(0, 1, 0)})
	if err != nil {
		t.Fatalf("GrantGift second: %v", err)
	}
	if sub.GiftPets != 3 || !sub.GiftExpiresAt.Equal(exp.AddDate(0, 1, 0)) {
		t.Fatalf("expected stacked gift, got %#v", sub)
	}
}

func TestGrantGift_NoExtraPetsStillEntitles(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	sub, err := svc.GrantGift(ctx, GiftGrant{Email: "z@example.com", AdditionalPets: 0, ExpiresAt: testNow.AddDate(1, 0, 0)})
	if err != nil {
		t.Fatalf("GrantGift: %v", err)
	}
	if sub.Status != StatusActive || sub.PlanInterval != PlanGift || sub.PetSlots(testNow) != 1 {
		t.Fatalf("expected active gift subscriber with 1 slot, got %#v slots=%d", sub, sub.PetSlots(testNow))
	}

	ent, err := svc.Entitlement(ctx, "z@example.com")
	if err != nil {
		t.Fatalf("Entitlement: %v", err)
	}
	if !ent.Subscribed || ent.PetSlots != 1 {
		t.Fatalf("expected subscribed entitlement with 1 slot, got %#v", ent)
	}
}

func TestGrantGift_LapsedSubscriberNoExtraPets(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.byEmail["l@example.com"] = Subscriber{
		Email: "l@example.com", Status: StatusCanceled, PlanInterval: PlanMonthly, BasePets: 3, SubscriptionID: "sub_old",
	}

	sub, err := svc.GrantGift(context.Background(), GiftGrant{Email: "l@example.com", AdditionalPets: 0, ExpiresAt: testNow.AddDate(1, 0, 0)})
	if err != nil {
		t.Fatalf("GrantGift: %v", err)
	}
	if sub.Status != StatusActive || sub.PlanInterval != PlanGift || sub.PetSlots(testNow) != 1 {
		t.Fatalf("expected gift plan with 1 slot, got %#v slots=%d", sub, sub.PetSlots(testNow))
	}
	if sub.PetSlots(testNow.AddDate(2, 0, 0)) != 0 {
		t.Fatalf("expected no slots after gift expiry")
	}
}

func TestGrantGift_ExpiredGiftPetsReset(t *testing.T) {
	svc, repo, _, _ := newTestService()
	past := testNow.Add(-time.Hour)
	repo.byEmail["e@example.com"] = Subscriber{
		Email: "e@example.com", Status: StatusActive, PlanInterval: PlanGift, BasePets: 1, GiftPets: 4, GiftExpiresAt: &past,
	}

	sub, err := svc.GrantGift(context.Background(), GiftGrant{Email: "e@example.com", AdditionalPets: 0, ExpiresAt: testNow.AddDate(1, 0, 0)})
	if err != nil {
		t.Fatalf("GrantGift: %v", err)
	}
	if sub.GiftPets != 0 || sub.PetSlots(testNow) != 1 {
		t.Fatalf("expected expired gift pets reset, got %#v slots=%d", sub, sub.PetSlots(testNow))
	}
}

func TestGrantGift_OnPaidSubscriberAddsPets(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.byEmail["p@example.com"] = Subscriber{
		Email: "p@example.com", Status: StatusActive, PlanInterval: PlanYearly, BasePets: 3, SubscriptionID: "sub_1",
	}

	sub, err := svc.GrantGift(context.Background(), GiftGrant{Email: "p@example.com", AdditionalPets: 2, ExpiresAt: testNow.AddDate(1, 0, 0)})
	if err != nil {
		t.Fatalf("GrantGift: %v", err)
	}
	if sub.PlanInterval != PlanYearly || sub.PetSlots(testNow) != 5 {
		t.Fatalf("expected yearly plan with 5 slots, got %#v", sub)
	}
}

func TestRevokeGift(t *testing.T) {
	svc, repo, _, _ := newTestService()
	past := testNow.Add(-time.Hour)
	repo.byEmail["g@example.com"] = Subscriber{
		Email: "g@example.com", Status: StatusActive, PlanInterval: PlanGift, BasePets: 1, GiftPets: 1, GiftExpiresAt: &past,
	}

	if err := svc.RevokeGift(context.Background(), "g@example.com"); err != nil {
		t.Fatalf("RevokeGift: %v", err)
	}
	got := repo.byEmail["g@example.com"]
	if got.Status != StatusCanceled || got.GiftPets != 0 {
		t.Fatalf("expected canceled gift subscriber, got %#v", got)
	}
}

func TestCreateCheckout(t *testing.T) {
	svc, _, proc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateCheckout(ctx, CheckoutInput{Plan: "weekly"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.CreateCheckout(ctx, CheckoutInput{Plan: PlanYearly, ExtraPets: 2}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable without extra pet price, got %v", err)
	}

	sess, err := svc.CreateCheckout(ctx, CheckoutInput{
		Email: "Owner@Example.com", UserID: "u1", Plan: PlanYearly, ReferralCode: "ref123",
	})
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if sess.URL == "" {
		t.Fatalf("expected url")
	}
	got := proc.Created[len(proc.Created)-1]
	if got.TrialDays != 7 || got.LineItems[0].PriceID != "price_y" || got.Metadata["referral_code"] != "REF123" {
		t.Fatalf("unexpected checkout params %#v", got)
	}
	if got.CustomerEmail != "owner@example.com" {
		t.Fatalf("expected normalized email, got %q", got.CustomerEmail)
	}
}
