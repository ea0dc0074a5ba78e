package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bikerly/api/internal/apperrors"
	"github.com/bikerly/api/internal/logging"
)

// RateLimiter is an exact sliding-window log limiter: it keeps the
// timestamps of admitted requests per client identity and decides admission
// from the precise count inside the window. Memory is O(window size) per
// active identity, bounded by the periodic cleanup.
//
// All state lives behind one mutex, so the prune/check/append sequence for a
// call is atomic with respect to concurrent calls on the same identifier —
// two simultaneous requests can never both pass on the last remaining slot.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time

	cleanupInterval time.Duration
	maxEntryAge     time.Duration
	lastCleanup     time.Time

	// now is injectable for tests.
	now func() time.Time
}

// NewRateLimiter creates a rate limiter. Cleanup runs inline on whichever
// call crosses the interval boundary; there is no background goroutine.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		requests:        make(map[string][]time.Time),
		cleanupInterval: 5 * time.Minute,
		maxEntryAge:     1 * time.Hour,
		now:             time.Now,
	}
	rl.lastCleanup = rl.now()
	return rl
}

// Allow reports whether a request from identifier is admitted under a budget
// of maxRequests per windowSeconds. On rejection it returns the number of
// seconds until the oldest retained request leaves the window, floored at 1.
// Rejected attempts are not recorded, so they never extend the window.
func (rl *RateLimiter) Allow(identifier string, maxRequests, windowSeconds int) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupLocked()

	now := rl.now()
	window := time.Duration(windowSeconds) * time.Second
	cutoff := now.Add(-window)

	history := rl.pruneLocked(identifier, cutoff)

	if len(history) >= maxRequests {
		oldest := history[0]
		retryAfter := int(oldest.Add(window).Sub(now).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	rl.requests[identifier] = append(history, now)
	return true, 0
}

// pruneLocked drops timestamps at or before cutoff for one identifier.
// Timestamps are appended in arrival order, so pruning pops from the front.
func (rl *RateLimiter) pruneLocked(identifier string, cutoff time.Time) []time.Time {
	history := rl.requests[identifier]

	keep := 0
	for keep < len(history) && !history[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		history = append([]time.Time(nil), history[keep:]...)
		if len(history) == 0 {
			delete(rl.requests, identifier)
		} else {
			rl.requests[identifier] = history
		}
	}
	return history
}

// cleanupLocked sweeps the whole map at most once per cleanup interval,
// dropping timestamps past the retention horizon and removing identifiers
// whose history empties out.
func (rl *RateLimiter) cleanupLocked() {
	now := rl.now()
	if now.Sub(rl.lastCleanup) < rl.cleanupInterval {
		return
	}

	cutoff := now.Add(-rl.maxEntryAge)
	for key, history := range rl.requests {
		keep := 0
		for keep < len(history) && !history[keep].After(cutoff) {
			keep++
		}
		if keep == len(history) {
			delete(rl.requests, key)
		} else if keep > 0 {
			rl.requests[key] = append([]time.Time(nil), history[keep:]...)
		}
	}

	rl.lastCleanup = now
}

// ClientKey derives the rate-limit identity for a request: the originating
// address (first X-Forwarded-For entry when present, else the connection
// address) plus the first 50 characters of the User-Agent. Clients behind a
// shared proxy or NAT may collide; that approximation is accepted.
func ClientKey(r *http.Request) string {
	var clientIP string
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		clientIP = host
	}
	if clientIP == "" {
		clientIP = "unknown"
	}

	userAgent := r.UserAgent()
	if runes := []rune(userAgent); len(runes) > 50 {
		userAgent = string(runes[:50])
	}

	return clientIP + ":" + userAgent
}

// RateLimitMiddleware applies the global request budget to every request
// except the exempt paths (exact match for "/", prefix match otherwise).
func RateLimitMiddleware(rl *RateLimiter, calls, period int, exemptPaths []string, logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range exemptPaths {
				if r.URL.Path == path || (path != "/" && strings.HasPrefix(r.URL.Path, path)) {
					next.ServeHTTP(w, r)
					return
				}
			}

			rejectOrServe(rl, "global", calls, period, logger, next, w, r)
		})
	}
}

// RateLimit wraps a single handler with a stricter per-route budget, on top
// of whatever global budget already applies. The log is scoped by path so
// the two budgets count the same request independently.
func RateLimit(rl *RateLimiter, maxRequests, windowSeconds int, logger *logging.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rejectOrServe(rl, r.URL.Path, maxRequests, windowSeconds, logger, next, w, r)
		}
	}
}

func rejectOrServe(rl *RateLimiter, scope string, maxRequests, windowSeconds int, logger *logging.Logger, next http.Handler, w http.ResponseWriter, r *http.Request) {
	identifier := scope + "|" + ClientKey(r)
	allowed, retryAfter := rl.Allow(identifier, maxRequests, windowSeconds)
	if !allowed {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"identifier":  identifier,
			"path":        r.URL.Path,
			"method":      r.Method,
			"retry_after": retryAfter,
		})
		apperrors.Write(w, r, apperrors.RateLimit(retryAfter))
		return
	}

	next.ServeHTTP(w, r)
}
