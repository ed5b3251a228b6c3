package server

import (
	"net/http"
	"strconv"
	"strings"
)

// DefaultAllowedHeaders are the request headers browser clients of the
// dashboard send with prediction calls.
var DefaultAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CORSConfig controls the cross-origin headers added to every response.
type CORSConfig struct {
	// AllowedOrigins lists permitted origins. Empty means any origin ("*").
	AllowedOrigins []string

	// AllowedHeaders overrides DefaultAllowedHeaders.
	AllowedHeaders []string

	// AllowCredentials sets Access-Control-Allow-Credentials. Requires
	// explicit origins.
	AllowCredentials bool

	// MaxAge is the pre-flight cache lifetime in seconds. Nil omits the header.
	MaxAge *int
}

// corsMiddleware writes CORS headers on every response and answers
// pre-flight OPTIONS requests with 204 and an empty body.
func corsMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = DefaultAllowedHeaders
	}
	allowHeaders := strings.Join(headers, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin, ok := cfg.allowOrigin(r.Header.Get("Origin")); ok {
				h.Set("Access-Control-Allow-Origin", origin)
				if origin != "*" {
					h.Add("Vary", "Origin")
				}
			}
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if cfg.MaxAge != nil {
				h.Set("Access-Control-Max-Age", strconv.Itoa(*cfg.MaxAge))
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin.
// With no allowlist every origin is permitted via "*".
func (c CORSConfig) allowOrigin(origin string) (string, bool) {
	if len(c.AllowedOrigins) == 0 {
		return "*", true
	}
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return origin, true
		}
	}
	return "", false
}
