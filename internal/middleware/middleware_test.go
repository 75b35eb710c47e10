package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petport/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthContext_DevHeaders(t *testing.T) {
	var got auth.Claims
	h := AuthContext(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetClaims(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "u1")
	req.Header.Set("X-Debug-User-Email", "Owner@Example.com")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "owner@example.com", got.Email)
}

func TestAdminOnly(t *testing.T) {
	h := AuthContext(nil)(AdminOnly([]string{"admin@petport.app"})(okHandler()))

	cases := []struct {
		name   string
		email  string
		user   string
		status int
	}{
		{"anonymous", "", "", http.StatusUnauthorized},
		{"not admin", "someone@example.com", "u1", http.StatusForbidden},
		{"admin", "ADMIN@petport.app", "u2", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != "" {
				req.Header.Set("X-Debug-User-ID", tc.user)
				req.Header.Set("X-Debug-User-Email", tc.email)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestCronAuth(t *testing.T) {
	h := CronAuth("s3cret")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/jobs/expire-gifts", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	CronAuth("")(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, nil)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	h := rl.Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/gifts/redeem", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rl.now = func() time.Time { return fixed.Add(time.Hour) }
	assert.Equal(t, 1, rl.Cleanup(time.Minute))
}

func TestRecover_WritesJSON500(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
