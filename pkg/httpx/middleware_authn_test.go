package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/jwtx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestStrictRejectsMissingToken(t *testing.T) {
	authn := httpx.NewAuthenticator(newCodec(t, nil), rbac.DefaultRegistry())
	var got captured

	rec := httptest.NewRecorder()
	httpx.Chain(got.handler(), authn.Strict()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, got.called)
	body := decodeError(t, rec)
	require.Equal(t, "غير مصرح", body.Error)
	require.Equal(t, "Unauthorized", body.ErrorEn)
	require.Empty(t, body.Code)
}

func TestStrictRejectsExpiredToken(t *testing.T) {
	signer := newCodec(t, nil)
	tok := signToken(t, signer, "u1", "user")

	later := newCodec(t, func() time.Time { return time.Now().Add(8 * 24 * time.Hour) })
	authn := httpx.NewAuthenticator(later, rbac.DefaultRegistry())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	httpx.Chain(http.NotFoundHandler(), authn.Strict()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Session expired", decodeError(t, rec).ErrorEn)
}

func TestStrictRejectionMessages(t *testing.T) {
	codec := newCodec(t, nil)
	other, err := jwtx.NewCodec(jwtx.Options{
		Secret:   []byte("another-secret-another-secret-xx"),
		Issuer:   testIssuer,
		Audience: testAudience,
	})
	require.NoError(t, err)
	wrongAud, err := jwtx.NewCodec(jwtx.Options{
		Secret:   []byte(testSecret),
		Issuer:   testIssuer,
		Audience: "someone-else",
	})
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "u1",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		wantEn string
	}{
		{"garbage", "not-a-jwt", "Invalid session"},
		{"wrong secret", signToken(t, other, "u1", "admin"), "Invalid session"},
		{"wrong audience", signToken(t, wrongAud, "u1", "admin"), "Invalid session"},
		{"missing role claim", noRole, "Invalid token claims"},
	}

	authn := httpx.NewAuthenticator(codec, rbac.DefaultRegistry())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: httpx.TokenCookie, Value: tt.token})
			rec := httptest.NewRecorder()
			httpx.Chain(http.NotFoundHandler(), authn.Strict()).ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, tt.wantEn, decodeError(t, rec).ErrorEn)
		})
	}
}

func TestStrictPopulatesIdentity(t *testing.T) {
	codec := newCodec(t, nil)
	authn := httpx.NewAuthenticator(codec, rbac.DefaultRegistry())
	var got captured

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, codec, "u42", "finance_admin"))
	rec := httptest.NewRecorder()
	httpx.Chain(got.handler(), authn.Strict()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, got.hasID)
	require.Equal(t, httpx.Identity{ID: "u42", Role: "finance_admin", RoleLevel: 80}, got.identity)
}

func TestCustomRoleIdentityHasLevelZero(t *testing.T) {
	codec := newCodec(t, nil)
	authn := httpx.NewAuthenticator(codec, rbac.DefaultRegistry())
	var got captured

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, codec, "u7", "marketing_lead"))
	httpx.Chain(got.handler(), authn.Strict()).ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, got.hasID)
	require.Equal(t, 0, got.identity.RoleLevel)
}

func TestCookieTakesPrecedenceOverBearer(t *testing.T) {
	codec := newCodec(t, nil)
	authn := httpx.NewAuthenticator(codec, rbac.DefaultRegistry())

	t.Run("both valid", func(t *testing.T) {
		var got captured
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: httpx.TokenCookie, Value: signToken(t, codec, "cookie-user", "user")})
		req.Header.Set("Authorization", "Bearer "+signToken(t, codec, "header-user", "admin"))
		httpx.Chain(got.handler(), authn.Strict()).ServeHTTP(httptest.NewRecorder(), req)

		require.Equal(t, "cookie-user", got.identity.ID)
		require.Equal(t, "user", got.identity.Role)
	})

	t.Run("bad cookie is not rescued by header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: httpx.TokenCookie, Value: "garbage"})
		req.Header.Set("Authorization", "Bearer "+signToken(t, codec, "header-user", "admin"))
		rec := httptest.NewRecorder()
		httpx.Chain(http.NotFoundHandler(), authn.Strict()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"none", "", "", ""},
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"basic auth ignored", "Basic dXNlcjpwYXNz", "", ""},
		{"empty bearer", "Bearer   ", "", ""},
		{"cookie", "", "xyz", "xyz"},
		{"cookie wins", "Bearer abc", "xyz", "xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: httpx.TokenCookie, Value: tt.cookie})
			}
			require.Equal(t, tt.want, httpx.TokenFromRequest(req))
		})
	}
}

func TestOptional(t *testing.T) {
	codec := newCodec(t, nil)
	authn := httpx.NewAuthenticator(codec, rbac.DefaultRegistry())

	tests := []struct {
		name   string
		token  string
		wantID bool
	}{
		{"no token", "", false},
		{"invalid token", "garbage", false},
		{"valid token", signToken(t, codec, "u1", "user"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got captured
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			httpx.Chain(got.handler(), authn.Optional()).ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			require.True(t, got.called)
			require.Equal(t, tt.wantID, got.hasID)
		})
	}
}

func TestCombined(t *testing.T) {
	codec := newCodec(t, nil)

	linked := fallbackFunc(func(context.Context, *http.Request) (httpx.Principal, error) {
		return httpx.Principal{UserID: "oauth-user", Role: "support_admin"}, nil
	})
	noSession := fallbackFunc(func(context.Context, *http.Request) (httpx.Principal, error) {
		return httpx.Principal{}, httpx.ErrNoCredentials
	})
	broken := fallbackFunc(func(context.Context, *http.Request) (httpx.Principal, error) {
		return httpx.Principal{}, errors.New("redis: connection refused")
	})
	incomplete := fallbackFunc(func(context.Context, *http.Request) (httpx.Principal, error) {
		return httpx.Principal{UserID: "x"}, nil
	})

	tests := []struct {
		name     string
		fallback httpx.FallbackAuthenticator
		token    string
		wantCode int
		wantID   string
	}{
		{"valid token skips fallback", broken, signToken(t, codec, "u1", "user"), http.StatusOK, "u1"},
		{"fallback after missing token", linked, "", http.StatusOK, "oauth-user"},
		{"fallback after bad token", linked, "garbage", http.StatusOK, "oauth-user"},
		{"no fallback session", noSession, "", http.StatusUnauthorized, ""},
		{"fallback error", broken, "garbage", http.StatusUnauthorized, ""},
		{"incomplete principal", incomplete, "", http.StatusUnauthorized, ""},
		{"nil fallback", nil, "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn := &httpx.Authenticator{Codec: codec, Registry: rbac.DefaultRegistry(), Fallback: tt.fallback}
			var got captured

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			httpx.Chain(got.handler(), authn.Combined()).ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				require.False(t, got.called)
				require.Equal(t, "Unauthorized", decodeError(t, rec).ErrorEn)
				return
			}
			require.Equal(t, tt.wantID, got.identity.ID)
		})
	}
}

func TestCombinedFallbackLevel(t *testing.T) {
	authn := &httpx.Authenticator{
		Codec:    newCodec(t, nil),
		Registry: rbac.DefaultRegistry(),
		Fallback: fallbackFunc(func(context.Context, *http.Request) (httpx.Principal, error) {
			return httpx.Principal{UserID: "o1", Role: "support_admin"}, nil
		}),
	}
	var got captured
	httpx.Chain(got.handler(), authn.Combined()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 70, got.identity.RoleLevel)
}

func TestAuthenticationIsRepeatable(t *testing.T) {
	codec := newCodec(t, nil)
	authn := httpx.NewAuthenticator(codec, rbac.DefaultRegistry())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, codec, "u1", "content_admin"))

	var first, second captured
	httpx.Chain(first.handler(), authn.Strict()).ServeHTTP(httptest.NewRecorder(), req)
	httpx.Chain(second.handler(), authn.Strict()).ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, first.hasID)
	require.Equal(t, first.identity, second.identity)
}

func TestAuthenticatorObserve(t *testing.T) {
	codec := newCodec(t, nil)
	var outcomes []string
	authn := &httpx.Authenticator{
		Codec:    codec,
		Registry: rbac.DefaultRegistry(),
		Observe:  func(variant, outcome string) { outcomes = append(outcomes, variant+"/"+outcome) },
	}

	h := http.NotFoundHandler()
	httpx.Chain(h, authn.Strict()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	httpx.Chain(h, authn.Optional()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, codec, "u1", "user"))
	httpx.Chain(h, authn.Combined()).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, []string{"strict/rejected", "optional/anonymous", "combined/authenticated"}, outcomes)
}
