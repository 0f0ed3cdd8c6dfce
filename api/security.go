package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/linesmerrill/malkhana-api/config"
)

// SecurityHeaders adds security headers to responses
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		next.ServeHTTP(w, r)
	})
}

// DefaultLimiterIdleTTL is how long an IP's limiter is kept after its last request
const DefaultLimiterIdleTTL = 10 * time.Minute

// IPRateLimiter limits requests per client IP
type IPRateLimiter struct {
	// TrustProxy makes the limiter key on X-Forwarded-For and X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
	// IdleTTL bounds how long an idle IP is remembered
	IdleTTL time.Duration

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows perMinute requests per minute per IP, all of which
// may arrive at once.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = config.DefaultLoginRatePerMinute
	}
	return &IPRateLimiter{
		IdleTTL:   DefaultLimiterIdleTTL,
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		lastSweep: time.Now(),
	}
}

// GetLimiter returns the rate limiter for an IP
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := time.Now()
	i.sweep(now)
	e, exists := i.limiters[ip]
	if !exists {
		e = &limiterEntry{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep drops idle limiters at most once per IdleTTL. Must be called with mu held.
func (i *IPRateLimiter) sweep(now time.Time) {
	if i.IdleTTL <= 0 || now.Sub(i.lastSweep) < i.IdleTTL {
		return
	}
	for ip, e := range i.limiters {
		if now.Sub(e.lastSeen) >= i.IdleTTL {
			delete(i.limiters, ip)
		}
	}
	i.lastSweep = now
}

// Len returns the number of IPs currently tracked
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// Middleware returns the rate limiting middleware
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, i.TrustProxy)
		if !i.GetLimiter(ip).Allow() {
			zap.S().Warnw("rate limited", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			config.ErrorStatus("Too many requests. Please try again later.", http.StatusTooManyRequests, w, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP from request. The forwarding headers are
// client controlled, so they are only read when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteHost(r)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
