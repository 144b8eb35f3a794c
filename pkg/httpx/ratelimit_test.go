package httpx_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name      string
		extractor httpx.KeyExtractor
		xff       string
		realIP    string
		want      string
	}{
		{"remote addr", httpx.IPKeyExtractor, "", "", "192.168.1.1"},
		{"forwarding headers ignored", httpx.IPKeyExtractor, "203.0.113.1", "203.0.113.2", "192.168.1.1"},
		{"proxied remote addr", httpx.ForwardedIPKeyExtractor, "", "", "192.168.1.1"},
		{"x-forwarded-for first hop", httpx.ForwardedIPKeyExtractor, "203.0.113.1, 192.168.1.1", "", "203.0.113.1"},
		{"x-real-ip", httpx.ForwardedIPKeyExtractor, "", "203.0.113.2", "203.0.113.2"},
		{"x-forwarded-for wins", httpx.ForwardedIPKeyExtractor, "203.0.113.1", "203.0.113.2", "203.0.113.1"},
		{"blank first hop", httpx.ForwardedIPKeyExtractor, " , 203.0.113.1", "", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			require.Equal(t, tt.want, tt.extractor(req))
		})
	}
}

func TestIdentityKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, httpx.IdentityKeyExtractor(req))

	req = withIdentity(req, "u1", "user")
	require.Equal(t, "u1", httpx.IdentityKeyExtractor(req))

	req.RemoteAddr = "10.0.0.1:999"
	key := httpx.CompositeKeyExtractor(":", httpx.IdentityKeyExtractor, httpx.IPKeyExtractor)(req)
	require.Equal(t, "u1:10.0.0.1", key)
}

func TestRateLimit(t *testing.T) {
	cfg := httpx.RateLimitConfig{Requests: 3, Window: time.Minute, Burst: 3}
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), httpx.RateLimitByIP(cfg))

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(h, req)
	}

	for i := range 3 {
		require.Equal(t, http.StatusOK, call("192.0.2.1").Code, "request %d", i+1)
	}

	rec := call("192.0.2.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, httpx.CodeRateLimited, decodeError(t, rec).Code)

	require.Equal(t, http.StatusOK, call("192.0.2.2").Code, "other clients are unaffected")
}

func TestRateLimitIgnoresSpoofedForwardingHeaders(t *testing.T) {
	handler := func(cfg httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}), httpx.RateLimitByIP(cfg))
	}
	call := func(h http.Handler, xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", xff)
		return serve(h, req).Code
	}

	t.Run("direct", func(t *testing.T) {
		h := handler(httpx.RateLimitConfig{Requests: 2, Window: time.Minute, Burst: 2})
		require.Equal(t, http.StatusOK, call(h, "203.0.113.1"))
		require.Equal(t, http.StatusOK, call(h, "203.0.113.2"))
		require.Equal(t, http.StatusTooManyRequests, call(h, "203.0.113.3"))
	})

	t.Run("behind trusted proxy", func(t *testing.T) {
		h := handler(httpx.RateLimitConfig{Requests: 2, Window: time.Minute, Burst: 2, TrustProxy: true})
		for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
			require.Equal(t, http.StatusOK, call(h, ip), ip)
		}
		require.Equal(t, http.StatusOK, call(h, "203.0.113.1"))
		require.Equal(t, http.StatusTooManyRequests, call(h, "203.0.113.1"))
	})
}

func TestRateLimitWithoutKeyPasses(t *testing.T) {
	cfg := httpx.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 1}
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), httpx.RateLimit(cfg, func(*http.Request) string { return "" }))

	for range 5 {
		require.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestRateLimitByIdentity(t *testing.T) {
	cfg := httpx.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 1}
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), httpx.RateLimitByIdentity(cfg))

	for i, user := range []string{"u1", "u2", "u1"} {
		req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), user, "admin")
		want := http.StatusOK
		if i == 2 {
			want = http.StatusTooManyRequests
		}
		require.Equal(t, want, serve(h, req).Code, fmt.Sprintf("request %d for %s", i, user))
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), nil, mw("second"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"first", "second", "handler"}, order)
}
