package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/aqar/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// Requests is the number of requests allowed per Window.
	Requests int
	Window   time.Duration
	// Burst allows temporary bursts above the steady rate.
	Burst int
	// TrustProxy keys on X-Forwarded-For/X-Real-IP. Only set it when every
	// request arrives through a proxy that overwrites those headers,
	// otherwise clients pick their own key.
	TrustProxy bool
}

func (c RateLimitConfig) ipKey() KeyExtractor {
	if c.TrustProxy {
		return ForwardedIPKeyExtractor
	}
	return IPKeyExtractor
}

// Default profiles. The application overrides them from its configuration.
var (
	// LoginLimit slows down password guessing.
	LoginLimit = RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5}

	// AdminLimit applies to authenticated admin operations.
	AdminLimit = RateLimitConfig{Requests: 60, Window: time.Minute, Burst: 20}
)

// KeyExtractor groups requests for rate limiting (client IP, user id, ...).
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the peer address of the connection. Forwarding
// headers are ignored.
func IPKeyExtractor(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ForwardedIPKeyExtractor prefers the first X-Forwarded-For hop, then
// X-Real-IP, then the peer address. The headers are client controlled unless
// a trusted proxy rewrites them.
func ForwardedIPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return IPKeyExtractor(r)
}

// IdentityKeyExtractor returns the authenticated user id, or "" for
// anonymous requests.
func IdentityKeyExtractor(r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok {
		return id.ID
	}
	return ""
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// limiterSet holds one token bucket per key.
type limiterSet struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (ls *limiterSet) get(key string) *rate.Limiter {
	if l, ok := ls.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	actual, _ := ls.limiters.LoadOrStore(key, rate.NewLimiter(ls.rate, ls.burst))
	ls.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters (full buckets) at most every 5 minutes.
func (ls *limiterSet) maybeCleanup() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if time.Since(ls.lastCleanup) < 5*time.Minute {
		return
	}
	ls.lastCleanup = time.Now()

	ls.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(ls.burst) {
			ls.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit limits requests per key. Requests without a key pass.
func RateLimit(cfg RateLimitConfig, key KeyExtractor) Middleware {
	ls := &limiterSet{
		rate:        rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			k := key(r)
			if k == "" {
				log.Debug("rate limit: no key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := ls.get(k)
			if !limiter.Allow() {
				res := limiter.Reserve()
				retryAfter := max(int(res.Delay().Seconds()), 1)
				res.Cancel()

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
				w.Header().Set("X-RateLimit-Window", cfg.Window.String())

				log.Warn("rate limit exceeded", "key", k, "retry_after", retryAfter)
				WriteError(w, http.StatusTooManyRequests, MsgTooManyRequests, CodeRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits by client IP.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, cfg.ipKey())
}

// RateLimitByIdentity limits by authenticated user and client IP. Anonymous
// requests are keyed by IP alone.
func RateLimitByIdentity(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, CompositeKeyExtractor(":", IdentityKeyExtractor, cfg.ipKey()))
}
