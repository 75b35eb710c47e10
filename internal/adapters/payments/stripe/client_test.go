package stripe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"petport/internal/ports/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionJSON = `{
  "id": "cs_test_1",
  "url": "https://checkout.stripe.com/c/pay/cs_test_1",
  "mode": "subscription",
  "status": "complete",
  "payment_status": "paid",
  "customer": "cus_1",
  "customer_email": null,
  "customer_details": {"email": "Owner@Example.com"},
  "subscription": "sub_1",
  "amount_total": 4999,
  "currency": "usd",
  "created": 1704067200,
  "metadata": {"referral_code": "REF123"},
  "line_items": {"data": [{"price": {
    "id": "price_yearly", "unit_amount": 4999,
    "recurring": {"interval": "year"},
    "product": {"id": "prod_1", "metadata": {"pet_limit": "3"}}
  }}]}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{SecretKey: "sk_test", APIBase: srv.URL})
	require.NoError(t, err)
	return c
}

func TestGetCheckoutSession_ParsesExpandedSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query()["expand[]"], "line_items")
		_, _ = io.WriteString(w, sessionJSON)
	})

	s, err := c.GetCheckoutSession(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.True(t, s.Paid())
	assert.Equal(t, "owner@example.com", s.CustomerEmail)
	assert.Equal(t, "cus_1", s.CustomerID)
	assert.Equal(t, "sub_1", s.SubscriptionID)
	assert.Equal(t, int64(4999), s.PriceUnitAmount)
	assert.Equal(t, payments.IntervalYear, s.Interval)
	assert.Equal(t, "3", s.ProductMetadata["pet_limit"])
	assert.Equal(t, "REF123", s.Metadata["referral_code"])
}

func TestGetCheckoutSession_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"resource_missing","message":"No such checkout.session"}}`)
	})

	_, err := c.GetCheckoutSession(context.Background(), "cs_missing")
	assert.True(t, errors.Is(err, payments.ErrNotFound))
}

func TestCreateTransfer_SendsIdempotencyKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transfers", r.URL.Path)
		assert.Equal(t, "payout-abc", r.Header.Get("Idempotency-Key"))
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		assert.Equal(t, "4000", form.Get("amount"))
		assert.Equal(t, "acct_1", form.Get("destination"))
		assert.Equal(t, "r1,r2", form.Get("metadata[referral_ids]"))
		_, _ = io.WriteString(w, `{"id":"tr_1","amount":4000,"destination":"acct_1"}`)
	})

	tr, err := c.CreateTransfer(context.Background(), payments.TransferParams{
		AmountCents:    4000,
		Destination:    "acct_1",
		Metadata:       map[string]string{"referral_ids": "r1,r2"},
		IdempotencyKey: "payout-abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "tr_1", tr.ID)
	assert.Equal(t, int64(4000), tr.AmountCents)
}

func TestListSubscriptions_ReadsItemPeriodEnd(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cus_1", r.URL.Query().Get("customer"))
		assert.Contains(t, r.URL.Query()["expand[]"], "data.items.data.price.product")
		_, _ = io.WriteString(w, `{"data":[{"id":"sub_1","customer":"cus_1","status":"past_due","created":1704067200,
			"items":{"data":[{"current_period_end":1735689600,"price":{"id":"p","unit_amount":999,"recurring":{"interval":"month"},
			"product":{"id":"prod_1","metadata":{"pet_limit":"4"}}}}]}}]}`)
	})

	subs, err := c.ListSubscriptions(context.Background(), "cus_1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "past_due", subs[0].Status)
	assert.Equal(t, int64(999), subs[0].UnitAmount)
	assert.Equal(t, int64(1735689600), subs[0].CurrentPeriodEnd.Unix())
	assert.Equal(t, "4", subs[0].ProductMetadata["pet_limit"])
}

func TestUnconfiguredClient(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	_, err = c.GetConnectAccount(context.Background(), "acct_1")
	assert.ErrorIs(t, err, payments.ErrNotConfigured)
}
