package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims accessTokenClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestVerifier_LocalHS256(t *testing.T) {
	v := NewVerifier("top-secret", nil)

	token := signToken(t, "top-secret", accessTokenClaims{
		Email: "Owner@Example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "owner@example.com" {
		t.Fatalf("unexpected claims %#v", claims)
	}
}

func TestVerifier_RejectsExpiredAndWrongSecret(t *testing.T) {
	v := NewVerifier("top-secret", nil)

	expired := signToken(t, "top-secret", accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	if _, err := v.Verify(context.Background(), expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	forged := signToken(t, "other", accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if _, err := v.Verify(context.Background(), forged); err == nil {
		t.Fatalf("expected forged token to fail")
	}
}

func TestVerifier_RemoteFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" || r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"user-9","email":"nine@example.com","role":"authenticated"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, AnonKey: "anon"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	v := NewVerifier("", client)

	claims, err := v.Verify(context.Background(), "good")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-9" {
		t.Fatalf("unexpected claims %#v", claims)
	}

	if _, err := v.Verify(context.Background(), "bad"); err == nil {
		t.Fatalf("expected unauthorized")
	}
}
