package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/aqar/internal/api/http"
	"github.com/aussiebroadwan/aqar/internal/api/metrics"
	"github.com/aussiebroadwan/aqar/internal/api/service"
	"github.com/aussiebroadwan/aqar/internal/api/session"
	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/internal/api/store/drivers/postgres"
	"github.com/aussiebroadwan/aqar/internal/api/store/drivers/sqlite"
	"github.com/aussiebroadwan/aqar/pkg/cryptox"
	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/jwtx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application is the API process with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	redis   *redis.Client
	codec   *jwtx.Codec
	metrics *metrics.Metrics

	registry   *rbac.Registry
	authorizer *rbac.Authorizer
	sessions   *session.RedisProvider

	userService      *service.UserService
	rolesService     *service.RolesService
	bootstrapService *service.BootstrapService

	server *http.Server
	router *httpapi.Router
}

// New builds the application. Any error here is fatal for the process.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "aqar-api",
			Version: BuildVersion,
			Env:     cfg.AppEnv,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	codec, err := jwtx.NewCodec(jwtx.Options{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
		Leeway:   cfg.JWTLeeway,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	ctx := context.Background()
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	app.initSessions(ctx)

	if err := app.initServices(ctx); err != nil {
		_ = app.close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("aqar api starting", "addr", app.cfg.HTTPAddr, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down aqar api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.close(); err != nil {
		return err
	}
	app.logger.Info("aqar api stopped")
	return nil
}

func (app *Application) close() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DBDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DBDSN)
	default:
		db, err = sqlite.NewStore(sqliteDSN(app.cfg.DBDSN))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)
	return nil
}

// sqliteDSN turns a bare path into a DSN with WAL and a busy timeout.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

// initSessions connects the OAuth session store. An unreachable Redis is
// logged and readiness reports it; token authentication keeps working.
func (app *Application) initSessions(ctx context.Context) {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("oauth session fallback disabled (REDIS_ADDR unset)")
		return
	}

	app.redis = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := app.redis.Ping(pingCtx).Err(); err != nil {
		app.logger.Warn("redis ping failed", "error", err)
	}
	app.sessions = session.NewRedisProvider(app.redis)
}

func (app *Application) initServices(ctx context.Context) error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	hasher := cryptox.NewHasher(pepper)

	app.registry = rbac.DefaultRegistry()
	resolver := rbac.NewResolver(app.db.CustomRoles(),
		rbac.WithLookupTimeout(app.cfg.CustomRoleTimeout),
		rbac.WithLogger(app.logger),
		rbac.WithObserver(app.metrics.ObserveRoleLookup),
	)
	app.authorizer = rbac.NewAuthorizer(app.registry, resolver)

	app.userService = &service.UserService{
		Store:  app.db,
		Codec:  app.codec,
		Hasher: hasher,
		Authz:  app.authorizer,
	}
	app.rolesService = &service.RolesService{Store: app.db, Registry: app.registry}
	app.bootstrapService = &service.BootstrapService{Store: app.db, Hasher: hasher}

	if app.cfg.BootstrapAdminEmail != "" {
		bctx := slogx.WithContext(ctx, app.logger)
		if _, err := app.bootstrapService.EnsureSuperAdmin(bctx, app.cfg.BootstrapAdminEmail, app.cfg.BootstrapAdminPassword, "Super Admin"); err != nil {
			return fmt.Errorf("failed to bootstrap super admin: %w", err)
		}
	}
	return nil
}

func (app *Application) initHTTP() {
	authn := httpx.NewAuthenticator(app.codec, app.registry)
	authn.Observe = app.metrics.ObserveAuth
	if app.sessions != nil {
		authn.Fallback = &session.Authenticator{
			Provider: app.sessions,
			Linker:   &session.Linker{Users: app.db.Users(), EmailLinking: app.cfg.OAuthEmailLinking},
		}
	}

	csrf := httpx.NewCSRFGuard(httpx.CSRFConfig{
		TTL:      app.cfg.CSRFTTL,
		Secure:   app.cfg.IsProduction(),
		OnReject: app.metrics.ObserveCSRFReject,
	})

	app.router = httpapi.NewRouter(httpapi.Options{
		BuildVersion:  BuildVersion,
		Production:    app.cfg.IsProduction(),
		Logger:        app.logger,
		Store:         app.db,
		Sessions:      app.sessions,
		Authenticator: authn,
		Authorizer:    app.authorizer,
		CSRF:          csrf,
		Metrics:       app.metrics,
		UserService:   app.userService,
		RolesService:  app.rolesService,
		LoginLimit:    app.cfg.loginLimit(),
		AdminLimit:    app.cfg.adminLimit(),
	})
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              app.cfg.HTTPAddr,
		Handler:           app.router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
