package httpx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/jwtx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testIssuer   = "aqar-api"
	testAudience = "aqar-web"
)

func newCodec(t *testing.T, now func() time.Time) *jwtx.Codec {
	t.Helper()
	c, err := jwtx.NewCodec(jwtx.Options{
		Secret:   []byte(testSecret),
		Issuer:   testIssuer,
		Audience: testAudience,
		Now:      now,
	})
	require.NoError(t, err)
	return c
}

func signToken(t *testing.T, c *jwtx.Codec, userID, role string) string {
	t.Helper()
	tok, err := c.Sign(userID, role, time.Now())
	require.NoError(t, err)
	return tok
}

// captured records what reached the innermost handler.
type captured struct {
	called   bool
	identity httpx.Identity
	hasID    bool
	csrf     string
}

func (c *captured) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.identity, c.hasID = httpx.IdentityFrom(r.Context())
		c.csrf = httpx.CSRFTokenFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.ErrorBody {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func withIdentity(r *http.Request, id, role string) *http.Request {
	return r.WithContext(httpx.WithIdentity(r.Context(), httpx.Identity{
		ID:        id,
		Role:      role,
		RoleLevel: rbac.DefaultRegistry().LevelOf(role),
	}))
}

// roleStore is an in-memory custom-role table.
type roleStore struct {
	active  map[string]bool
	granted map[string]bool
	err     error
}

func (s *roleStore) ActiveRoleExists(_ context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.active[key], nil
}

func (s *roleStore) PermissionGranted(_ context.Context, role, perm string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.granted[role+"|"+perm], nil
}

// fallbackFunc adapts a function to httpx.FallbackAuthenticator.
type fallbackFunc func(ctx context.Context, r *http.Request) (httpx.Principal, error)

func (f fallbackFunc) Authenticate(ctx context.Context, r *http.Request) (httpx.Principal, error) {
	return f(ctx, r)
}
