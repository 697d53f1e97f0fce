// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// middleware.go - HTTP middleware for the cmdai web surface.
//
// The chain applied by the server, outermost first:
//   - Panic recovery with stack trace logging
//   - Security headers
//   - Request logging
//   - Per-IP rate limiting (protects the single upstream API key)
package server

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ============================================================================
// MIDDLEWARE CHAIN HELPER
// ============================================================================

// Chain composes multiple middleware functions into a single middleware.
// Middlewares are applied in the order provided.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		// Apply middlewares in reverse order so they execute in order
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// ============================================================================
// RECOVERY MIDDLEWARE
// ============================================================================

// RecoveryMiddleware returns HTTP middleware that recovers from panics,
// logs the stack trace, and answers 500 instead of crashing the server.
func RecoveryMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Interface("error", err).
						Str("stack", string(debug.Stack())).
						Msg("PANIC_RECOVERED")

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// SECURITY HEADERS MIDDLEWARE
// ============================================================================

// SecurityHeadersMiddleware returns HTTP middleware that adds security
// headers to every response.
//
// The CSP permits inline styles: the page ships its stylesheet in a <style>
// element and chroma emits style attributes. Scripts stay blocked; the page
// uses none.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Content Security Policy
			w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")

			// Chat transcripts must never land in shared caches
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

			// Referrer Policy
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// REQUEST LOGGING MIDDLEWARE
// ============================================================================

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// newResponseWriter creates a wrapped response writer.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before writing it.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware returns HTTP middleware that logs every request with
// method, path, status and timing.
func LoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Str("ip", GetClientIP(r)).
				Msg("HTTP_REQUEST")
		})
	}
}

// ============================================================================
// RATE LIMITER
// ============================================================================

const (
	// defaultRequestsPerMinute is the sustained per-IP budget.
	defaultRequestsPerMinute = 100

	// defaultBurst allows short request bursts above the sustained rate.
	defaultBurst = 20

	// staleVisitorAfter is how long an idle IP entry is kept before it is
	// pruned on the next insert.
	staleVisitorAfter = 10 * time.Minute
)

// visitor pairs a token bucket with its last activity time.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-IP token bucket.
//
// Stale entries are pruned synchronously when a new IP arrives, so the
// limiter needs no background timer.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing perMinute sustained requests
// per IP with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

// DefaultRateLimiter returns a limiter with default settings: 100 requests
// per minute with a burst of 20.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(defaultRequestsPerMinute, defaultBurst)
}

// Allow reports whether a request from the given IP fits its budget.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		rl.pruneLocked()
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()

	return v.limiter.Allow()
}

// pruneLocked drops entries idle longer than staleVisitorAfter.
// Caller must hold rl.mu.
func (rl *RateLimiter) pruneLocked() {
	cutoff := time.Now().Add(-staleVisitorAfter)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// RateLimitMiddleware returns HTTP middleware that enforces the per-IP
// limit, answering 429 with a Retry-After hint when exceeded.
func RateLimitMiddleware(limiter *RateLimiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetClientIP(r)

			if !limiter.Allow(ip) {
				logger.Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("RATE_LIMIT_EXCEEDED")

				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// IP EXTRACTION HELPER
// ============================================================================

// GetClientIP extracts the client address for logging and rate limiting.
//
// SECURITY: X-Forwarded-For and X-Real-IP are only honored when the direct
// peer is a loopback address, so a remote caller cannot spoof its identity.
// The server binds to 127.0.0.1, which makes any forwarded header the work
// of a local reverse proxy.
func GetClientIP(r *http.Request) string {
	connIP := remoteIP(r.RemoteAddr)

	if !isLoopback(connIP) {
		return connIP
	}

	// X-Forwarded-For may contain a chain; the first entry is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return connIP
}

// remoteIP extracts the address part of "IP:port" or "[IPv6]:port".
func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// isLoopback reports whether the address parses to a loopback IP.
func isLoopback(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	return ip != nil && ip.IsLoopback()
}
