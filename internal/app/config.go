package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (PIZZA_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL; when empty, orders are stored as local JSON files" flag:"database-url"`
	OrdersDir    string `default:"orders" usage:"Directory for order JSON files when no database is configured" flag:"orders-dir"`
	ImageBaseURL string `default:"" usage:"Base URL for menu item images (e.g. https://cdn.example.com/)" flag:"image-base-url"`
	SMTP         SMTPConfig
	Notify       NotifyConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// SMTPConfig holds the outgoing mail transport settings. An empty Host
// disables email and routes confirmations to the log.
type SMTPConfig struct {
	Host     string `usage:"SMTP server host (empty disables email delivery)"`
	Port     int    `default:"587" usage:"SMTP server port"`
	Username string `usage:"SMTP username"`
	Password string `usage:"SMTP password"`
	From     string `usage:"Sender address for confirmation emails"`
}

// NotifyConfig bounds the post-finalize sink calls.
type NotifyConfig struct {
	Timeout time.Duration `default:"10s" usage:"Per-sink timeout for notification and persistence"`
}

// SessionConfig controls order session lifetime.
type SessionConfig struct {
	TTL             time.Duration `default:"30m" usage:"Idle time before an order session is discarded"`
	CleanupInterval time.Duration `default:"5m"  usage:"How often idle sessions are evicted" flag:"session-cleanup-interval"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PIZZA",
		Files:     []string{"config.yaml", "/etc/pizza-shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.SMTP.Host != "" && cfg.SMTP.From == "" {
		return nil, errors.New("SMTP is configured but PIZZA_SMTP_FROM is empty")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's PIZZA_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
