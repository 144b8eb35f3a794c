package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/aqar/internal/api/metrics"
	"github.com/aussiebroadwan/aqar/internal/api/service"
	"github.com/aussiebroadwan/aqar/internal/api/session"
	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"

	_ "github.com/aussiebroadwan/aqar/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/unrolled/secure"
)

// Options carries the router's dependencies. Sessions may be nil, in which
// case the combined endpoints accept tokens only.
type Options struct {
	BuildVersion string
	Production   bool
	Logger       *slog.Logger

	Store         store.Store
	Sessions      *session.RedisProvider
	Authenticator *httpx.Authenticator
	Authorizer    *rbac.Authorizer
	CSRF          *httpx.CSRFGuard
	Metrics       *metrics.Metrics

	UserService  *service.UserService
	RolesService *service.RolesService

	LoginLimit httpx.RateLimitConfig
	AdminLimit httpx.RateLimitConfig
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	opts      Options
	startTime time.Time
}

func NewRouter(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = slogx.Discard()
	}
	if opts.LoginLimit.Requests == 0 {
		opts.LoginLimit = httpx.LoginLimit
	}
	if opts.AdminLimit.Requests == 0 {
		opts.AdminLimit = httpx.AdminLimit
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		opts:      opts,
		startTime: time.Now(),
	}

	headers := secure.New(secure.Options{
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:        !opts.Production,
	})

	// Outermost first. Metrics must stay last so it sees the matched pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(opts.Logger),
		headers.Handler,
		opts.CSRF.ProtectLite,
	}
	if opts.Metrics != nil {
		r.middlewares = append(r.middlewares, opts.Metrics.Middleware)
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Aqar Marketplace API
//	@version		0.1.0
//	@description	Session and administration endpoints of the Aqar real estate marketplace.
//	@description
//	@description	Errors carry an Arabic message in "error", an English one in "errorEn" and sometimes a machine code in "code".
//	@description	Cookie sessions must echo the csrf_token cookie in the X-CSRF-Token header on unsafe methods. Bearer requests are exempt.
//
//	@contact.name	Aqar Platform Team
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}". Browsers use the token cookie instead.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		UserService: r.opts.UserService,
		Registry:    r.opts.Authorizer.Registry,
		Sessions:    r.opts.Sessions,
		Secure:      r.opts.Production,
	}
	authn := r.opts.Authenticator

	// POST /login - strict per-IP limit against credential stuffing
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.opts.LoginLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout", http.HandlerFunc(h.HandleLogout))

	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe), authn.Optional()),
	)
	r.Mux.Handle("GET /v1/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleSession), authn.Combined()),
	)
	r.Mux.Handle("GET /v1/auth/csrf", http.HandlerFunc(h.HandleCSRF))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		UserService:  r.opts.UserService,
		RolesService: r.opts.RolesService,
		Registry:     r.opts.Authorizer.Registry,
	}
	authn := r.opts.Authenticator
	authz := r.opts.Authorizer
	limit := httpx.RateLimitByIdentity(r.opts.AdminLimit)

	r.Mux.Handle("GET /v1/admin/roles",
		httpx.Chain(http.HandlerFunc(h.HandleListRoles),
			authn.Strict(),
			httpx.RequireAdmin(authz),
			limit,
		),
	)
	r.Mux.Handle("GET /v1/admin/users",
		httpx.Chain(http.HandlerFunc(h.HandleListUsers),
			authn.Strict(),
			httpx.RequirePermission(authz, "users:view"),
			limit,
		),
	)
	r.Mux.Handle("PUT /v1/admin/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleAssignRole),
			authn.Strict(),
			httpx.RequirePermission(authz, "users:edit"),
			limit,
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.opts.BuildVersion))

	var sessions Pinger
	if r.opts.Sessions != nil {
		sessions = r.opts.Sessions
	}
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.opts.BuildVersion, r.opts.Store, sessions))

	if r.opts.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.opts.Metrics.Handler())
	}
}
