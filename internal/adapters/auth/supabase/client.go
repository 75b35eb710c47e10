package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"petport/internal/platform/httpclient"
	"petport/internal/ports/auth"
)

var (
	ErrSupabaseNotConfigured = errors.New("supabase client not configured")
	ErrSupabaseUnauthorized  = errors.New("supabase unauthorized")
	ErrSupabaseUpstream      = errors.New("supabase upstream error")
)

// Config del cliente de Supabase Auth.
type Config struct {
	URL     string
	AnonKey string

	Timeout   time.Duration
	Transport http.RoundTripper
}

type Client struct {
	http    *httpclient.Client
	url     string
	anonKey string
}

func NewClient(cfg Config) (*Client, error) {
	u := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   u,
		Timeout:   timeout,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		http:    hc,
		url:     u,
		anonKey: strings.TrimSpace(cfg.AnonKey),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.url != "" && c.anonKey != ""
}

// GetUser valida el token contra GET /auth/v1/user y devuelve claims.
// Se usa cuando no tenemos el JWT secret para validar localmente.
func (c *Client) GetUser(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrSupabaseNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrSupabaseUnauthorized
	}

	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	err := c.http.DoJSON(ctx, http.MethodGet, "/auth/v1/user", map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + token,
	}, nil, &out)
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, ErrSupabaseUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrSupabaseUpstream, err)
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return auth.Claims{}, errors.New("supabase response missing user id")
	}

	return auth.Claims{
		UserID: out.ID,
		Email:  strings.ToLower(strings.TrimSpace(out.Email)),
		Role:   strings.TrimSpace(out.Role),
	}, nil
}
