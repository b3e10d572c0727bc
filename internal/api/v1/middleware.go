package v1

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// requireAPIKey rejects requests without the configured X-Api-Key.
// An empty key leaves the handler open.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	if s.cfg.APIKey == "" {
		return next
	}
	want := []byte(s.cfg.APIKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-Api-Key")
		if got == "" {
			got = r.URL.Query().Get("apikey")
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit caps requests per client IP per minute. Zero disables the limit.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.cfg.RateLimit <= 0 {
		return next
	}
	return httprate.Limit(
		s.cfg.RateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
		}),
	)(next)
}

// guarded applies rate limiting and API key checks to a handler.
func (s *Server) guarded(h http.HandlerFunc) http.Handler {
	return s.rateLimit(s.requireAPIKey(h))
}
