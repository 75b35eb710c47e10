package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"petport/internal/platform/httpclient"
	"petport/internal/ports/payments"

	"github.com/tidwall/gjson"
)

var (
	ErrStripeUpstream = errors.New("stripe upstream error")
)

// Config del cliente Stripe. SecretKey vacío => no configurado.
type Config struct {
	SecretKey string
	// Opcional, para tests o stripe-mock.
	APIBase string
	Timeout time.Duration

	// Transport opcional (tests).
	Transport http.RoundTripper
}

// Client implementa payments.Processor sobre la API REST de Stripe
// (form-encoded). Las respuestas se leen con gjson: solo tomamos los campos
// que usa el dominio.
type Client struct {
	http      *httpclient.Client
	secretKey string
}

var _ payments.Processor = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.APIBase)
	if base == "" {
		base = "https://api.stripe.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:    base,
		Timeout:    timeout,
		RetryCount: 2,
		Transport:  cfg.Transport,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		http:      hc,
		secretKey: strings.TrimSpace(cfg.SecretKey),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.secretKey != ""
}

func (c *Client) call(ctx context.Context, method, path string, query, form url.Values, idempotencyKey string) (gjson.Result, error) {
	if !c.IsConfigured() {
		return gjson.Result{}, payments.ErrNotConfigured
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.secretKey,
	}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	raw, err := c.http.Do(ctx, httpclient.Request{
		Method:  method,
		Path:    path,
		Headers: headers,
		Query:   query,
		Form:    form,
	})
	if err != nil {
		if httpclient.StatusOf(err) == http.StatusNotFound {
			return gjson.Result{}, payments.ErrNotFound
		}
		var he *httpclient.HTTPError
		if errors.As(err, &he) {
			msg := gjson.Get(he.Body, "error.message").String()
			if msg == "" {
				msg = he.Body
			}
			return gjson.Result{}, fmt.Errorf("%w: status=%d: %s", ErrStripeUpstream, he.StatusCode, msg)
		}
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrStripeUpstream, err)
	}
	return gjson.ParseBytes(raw), nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, in payments.CheckoutParams) (payments.CheckoutSession, error) {
	if len(in.LineItems) == 0 {
		return payments.CheckoutSession{}, errors.New("stripe: at least one line item required")
	}

	form := url.Values{}
	form.Set("mode", in.Mode)
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	if in.CustomerEmail != "" {
		form.Set("customer_email", in.CustomerEmail)
	}
	if in.ClientReferenceID != "" {
		form.Set("client_reference_id", in.ClientReferenceID)
	}
	for i, li := range in.LineItems {
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		form.Set(fmt.Sprintf("line_items[%d][price]", i), li.PriceID)
		form.Set(fmt.Sprintf("line_items[%d][quantity]", i), strconv.FormatInt(qty, 10))
	}
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}
	if in.Mode == payments.ModeSubscription {
		if in.TrialDays > 0 {
			form.Set("subscription_data[trial_period_days]", strconv.Itoa(in.TrialDays))
		}
		for k, v := range in.Metadata {
			form.Set("subscription_data[metadata]["+k+"]", v)
		}
	}

	res, err := c.call(ctx, http.MethodPost, "/v1/checkout/sessions", nil, form, "")
	if err != nil {
		return payments.CheckoutSession{}, err
	}
	return parseSession(res), nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, id string) (payments.CheckoutSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return payments.CheckoutSession{}, payments.ErrNotFound
	}

	q := url.Values{}
	q.Add("expand[]", "line_items")
	q.Add("expand[]", "line_items.data.price.product")

	res, err := c.call(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), q, nil, "")
	if err != nil {
		return payments.CheckoutSession{}, err
	}
	return parseSession(res), nil
}

func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	q := url.Values{}
	q.Set("email", strings.TrimSpace(email))
	q.Set("limit", "1")

	res, err := c.call(ctx, http.MethodGet, "/v1/customers", q, nil, "")
	if err != nil {
		return "", err
	}
	id := res.Get("data.0.id").String()
	if id == "" {
		return "", payments.ErrNotFound
	}
	return id, nil
}

func (c *Client) ListSubscriptions(ctx context.Context, customerID string) ([]payments.Subscription, error) {
	q := url.Values{}
	q.Set("customer", customerID)
	q.Set("status", "all")
	q.Set("limit", "20")
	q.Add("expand[]", "data.items.data.price.product")

	res, err := c.call(ctx, http.MethodGet, "/v1/subscriptions", q, nil, "")
	if err != nil {
		return nil, err
	}

	out := make([]payments.Subscription, 0)
	res.Get("data").ForEach(func(_, s gjson.Result) bool {
		out = append(out, parseSubscription(s))
		return true
	})
	return out, nil
}

func (c *Client) CreateConnectAccount(ctx context.Context, email string) (payments.ConnectAccount, error) {
	form := url.Values{}
	form.Set("type", "express")
	if email != "" {
		form.Set("email", email)
	}
	form.Set("capabilities[transfers][requested]", "true")

	res, err := c.call(ctx, http.MethodPost, "/v1/accounts", nil, form, "")
	if err != nil {
		return payments.ConnectAccount{}, err
	}
	return parseAccount(res), nil
}

func (c *Client) GetConnectAccount(ctx context.Context, id string) (payments.ConnectAccount, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return payments.ConnectAccount{}, payments.ErrNotFound
	}
	res, err := c.call(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(id), nil, nil, "")
	if err != nil {
		return payments.ConnectAccount{}, err
	}
	return parseAccount(res), nil
}

func (c *Client) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("refresh_url", refreshURL)
	form.Set("return_url", returnURL)
	form.Set("type", "account_onboarding")

	res, err := c.call(ctx, http.MethodPost, "/v1/account_links", nil, form, "")
	if err != nil {
		return "", err
	}
	return res.Get("url").String(), nil
}

func (c *Client) CreateTransfer(ctx context.Context, in payments.TransferParams) (payments.Transfer, error) {
	if in.AmountCents <= 0 {
		return payments.Transfer{}, errors.New("stripe: transfer amount must be positive")
	}
	currency := in.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(in.AmountCents, 10))
	form.Set("currency", currency)
	form.Set("destination", in.Destination)
	if in.Description != "" {
		form.Set("description", in.Description)
	}
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	res, err := c.call(ctx, http.MethodPost, "/v1/transfers", nil, form, in.IdempotencyKey)
	if err != nil {
		return payments.Transfer{}, err
	}
	return payments.Transfer{
		ID:          res.Get("id").String(),
		AmountCents: res.Get("amount").Int(),
		Destination: res.Get("destination").String(),
	}, nil
}

func parseSession(r gjson.Result) payments.CheckoutSession {
	email := r.Get("customer_details.email").String()
	if email == "" {
		email = r.Get("customer_email").String()
	}

	s := payments.CheckoutSession{
		ID:              r.Get("id").String(),
		URL:             r.Get("url").String(),
		Mode:            r.Get("mode").String(),
		Status:          r.Get("status").String(),
		PaymentStatus:   r.Get("payment_status").String(),
		CustomerID:      idOf(r.Get("customer")),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(email)),
		SubscriptionID:  idOf(r.Get("subscription")),
		AmountTotal:     r.Get("amount_total").Int(),
		Currency:        r.Get("currency").String(),
		PriceID:         r.Get("line_items.data.0.price.id").String(),
		PriceUnitAmount: r.Get("line_items.data.0.price.unit_amount").Int(),
		Interval:        r.Get("line_items.data.0.price.recurring.interval").String(),
		ProductMetadata: stringMap(r.Get("line_items.data.0.price.product.metadata")),
		Metadata:        stringMap(r.Get("metadata")),
	}
	if created := r.Get("created").Int(); created > 0 {
		s.CreatedAt = time.Unix(created, 0).UTC()
	}
	return s
}

func parseSubscription(r gjson.Result) payments.Subscription {
	s := payments.Subscription{
		ID:              r.Get("id").String(),
		CustomerID:      idOf(r.Get("customer")),
		Status:          r.Get("status").String(),
		PriceID:         r.Get("items.data.0.price.id").String(),
		UnitAmount:      r.Get("items.data.0.price.unit_amount").Int(),
		Interval:        r.Get("items.data.0.price.recurring.interval").String(),
		ProductMetadata: stringMap(r.Get("items.data.0.price.product.metadata")),
		Metadata:        stringMap(r.Get("metadata")),
	}

	// current_period_end vive en el item en versiones nuevas de la API.
	end := r.Get("current_period_end").Int()
	if end == 0 {
		end = r.Get("items.data.0.current_period_end").Int()
	}
	if end > 0 {
		s.CurrentPeriodEnd = time.Unix(end, 0).UTC()
	}
	if created := r.Get("created").Int(); created > 0 {
		s.CreatedAt = time.Unix(created, 0).UTC()
	}
	return s
}

func parseAccount(r gjson.Result) payments.ConnectAccount {
	return payments.ConnectAccount{
		ID:               r.Get("id").String(),
		Email:            r.Get("email").String(),
		DetailsSubmitted: r.Get("details_submitted").Bool(),
		PayoutsEnabled:   r.Get("payouts_enabled").Bool(),
		ChargesEnabled:   r.Get("charges_enabled").Bool(),
	}
}

// idOf acepta un id plano o un objeto expandido.
func idOf(r gjson.Result) string {
	if r.IsObject() {
		return r.Get("id").String()
	}
	return r.String()
}

func stringMap(r gjson.Result) map[string]string {
	out := map[string]string{}
	r.ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = v.String()
		return true
	})
	return out
}
