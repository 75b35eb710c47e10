package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS abierto a cualquier origen (el SPA y las share pages viven en otros dominios).
// No usamos cookies, así que AllowCredentials queda en false.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Authorization", "Content-Type", "apikey", "X-Client-Info",
			"X-Debug-User-ID", "X-Debug-User-Email",
		},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}
