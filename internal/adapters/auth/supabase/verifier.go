package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"petport/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenEmpty = errors.New("token is empty")
)

type accessTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier.
// Con JWT secret valida el access token localmente (HS256, aud=authenticated);
// si no, delega en el endpoint /auth/v1/user.
type Verifier struct {
	secret []byte
	client *Client
}

func NewVerifier(jwtSecret string, client *Client) *Verifier {
	return &Verifier{
		secret: []byte(strings.TrimSpace(jwtSecret)),
		client: client,
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil {
		return auth.Claims{}, ErrSupabaseNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	if len(v.secret) == 0 {
		if v.client == nil {
			return auth.Claims{}, ErrSupabaseNotConfigured
		}
		claims, err := v.client.GetUser(ctx, token)
		if err != nil {
			return auth.Claims{}, fmt.Errorf("supabase verify failed: %w", err)
		}
		return claims, nil
	}

	var c accessTokenClaims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience("authenticated"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("supabase verify failed: %w", err)
	}

	sub := strings.TrimSpace(c.Subject)
	if sub == "" {
		return auth.Claims{}, errors.New("supabase claims missing sub")
	}

	return auth.Claims{
		UserID: sub,
		Email:  strings.ToLower(strings.TrimSpace(c.Email)),
		Role:   c.Role,
	}, nil
}
