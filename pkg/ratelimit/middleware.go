package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// Middleware rejects requests with 429 once the client address exhausts its
// attempt budget. Applied to the login route only; the rest of the API sits
// behind the session gate.
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !limiter.Allow(key) {
				slog.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, map[string]string{"error": "too many attempts, try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client address, preferring X-Forwarded-For set by the
// fronting proxy. The header may carry a comma-separated chain; the first
// entry is the originating client.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
