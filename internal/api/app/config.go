package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/jwtx"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration, read from the environment.
type Config struct {
	AppEnv              string        `envconfig:"APP_ENV" default:"development"`
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownGracePeriod time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer   string        `envconfig:"JWT_ISSUER" default:"aqar-api"`
	JWTAudience string        `envconfig:"JWT_AUDIENCE" default:"aqar-web"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"168h"`
	JWTLeeway   time.Duration `envconfig:"JWT_LEEWAY" default:"30s"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"aqar.db"`

	// RedisAddr enables the OAuth session fallback. Empty disables it.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	OAuthEmailLinking bool          `envconfig:"OAUTH_EMAIL_LINKING" default:"true"`
	CustomRoleTimeout time.Duration `envconfig:"CUSTOM_ROLE_TIMEOUT" default:"2s"`
	CSRFTTL           time.Duration `envconfig:"CSRF_TTL" default:"24h"`

	PepperFile string `envconfig:"PEPPER_FILE" default:"pepper"`

	// Requests per minute.
	LoginRateLimit int `envconfig:"LOGIN_RATE_LIMIT" default:"5"`
	AdminRateLimit int `envconfig:"ADMIN_RATE_LIMIT" default:"60"`

	// TrustProxyHeaders keys rate limits on X-Forwarded-For. Enable only
	// behind a proxy that overwrites the header.
	TrustProxyHeaders bool `envconfig:"TRUST_PROXY_HEADERS" default:"false"`

	BootstrapAdminEmail    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD"`
}

var (
	ErrUnknownDBDriver = errors.New("DB_DRIVER must be sqlite or postgres")
	ErrBadRateLimit    = errors.New("rate limits must be positive")
)

// LoadConfig reads and validates the configuration. A missing JWT_SECRET is
// an error.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET: %w", jwtx.ErrMissingSecret)
	}
	if len(c.JWTSecret) < jwtx.MinSecretLength {
		return fmt.Errorf("%w: JWT_SECRET needs at least %d bytes", jwtx.ErrWeakSecret, jwtx.MinSecretLength)
	}
	// envconfig only applies defaults to unset variables, so JWT_ISSUER= lands here.
	if c.JWTIssuer == "" {
		return fmt.Errorf("JWT_ISSUER: %w", jwtx.ErrMissingIssuer)
	}
	if c.JWTAudience == "" {
		return fmt.Errorf("JWT_AUDIENCE: %w", jwtx.ErrMissingAudience)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w, got %q", ErrUnknownDBDriver, c.DBDriver)
	}
	if c.LoginRateLimit <= 0 || c.AdminRateLimit <= 0 {
		return ErrBadRateLimit
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c Config) loginLimit() httpx.RateLimitConfig {
	return httpx.RateLimitConfig{
		Requests:   c.LoginRateLimit,
		Window:     time.Minute,
		Burst:      c.LoginRateLimit,
		TrustProxy: c.TrustProxyHeaders,
	}
}

func (c Config) adminLimit() httpx.RateLimitConfig {
	return httpx.RateLimitConfig{
		Requests:   c.AdminRateLimit,
		Window:     time.Minute,
		Burst:      max(c.AdminRateLimit/3, 1),
		TrustProxy: c.TrustProxyHeaders,
	}
}
