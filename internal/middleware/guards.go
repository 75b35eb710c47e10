package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"petport/internal/platform/httpx"
)

// AdminOnly exige claims con un email incluido en ADMIN_EMAILS.
func AdminOnly(adminEmails []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, ok := allowed[strings.ToLower(claims.Email)]; !ok {
				httpx.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAdmin es la versión sin middleware, para handlers mixtos.
func IsAdmin(r *http.Request, adminEmails []string) bool {
	claims, ok := GetClaims(r.Context())
	if !ok || claims.Email == "" {
		return false
	}
	for _, e := range adminEmails {
		if strings.EqualFold(strings.TrimSpace(e), claims.Email) {
			return true
		}
	}
	return false
}

// CronAuth protege los endpoints de jobs con "Authorization: Bearer $CRON_SECRET".
// Secret vacío => endpoints deshabilitados (503).
func CronAuth(secret string) func(http.Handler) http.Handler {
	secret = strings.TrimSpace(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				httpx.WriteError(w, http.StatusServiceUnavailable, "cron endpoints disabled")
				return
			}
			token := bearerToken(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
