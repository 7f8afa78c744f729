// Package middleware provides the HTTP middleware of the notifier's
// operational surface: request logging, CORS and body-size limiting.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler returns a middleware that applies CORS headers for
// allowedOrigins (full origins, no trailing slash). An empty list disables
// cross-origin access. The ops surface only reads status and triggers runs,
// so GET and POST are the only methods allowed.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	})
	return c.Handler
}
