package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS wraps h with the allowed origins. A single "*" allows any origin.
func CORS(h http.Handler, allowedOrigins []string) http.Handler {
	opts := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:         12 * 3600,
	}
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(opts).Handler(h)
}
