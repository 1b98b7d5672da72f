package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS allows credentialed requests, and with them the refresh cookie, only
// for an explicit origin list. A wildcard or empty list answers any origin
// without credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         3600,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		options.AllowedOrigins = []string{"*"}
		options.AllowCredentials = false
	} else {
		options.AllowedOrigins = origins
		options.AllowCredentials = true
	}

	return cors.New(options).Handler
}
