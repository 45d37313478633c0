package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	BaseURL         string        `yaml:"base_url"` // public origin used for redirect targets
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // host:port or redis:// URL; empty disables redis
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PlanConfig struct {
	Name    string `yaml:"name"`
	PriceID string `yaml:"price_id"`
	Amount  int64  `yaml:"amount"` // display only, minor units
}

type BillingConfig struct {
	SecretKey       string        `yaml:"secret_key"`
	PublishableKey  string        `yaml:"publishable_key"`
	WebhookSecret   string        `yaml:"webhook_secret"`
	SuccessURL      string        `yaml:"success_url"`
	CancelURL       string        `yaml:"cancel_url"`
	PortalReturnURL string        `yaml:"portal_return_url"`
	Currency        string        `yaml:"currency"`
	DonationName    string        `yaml:"donation_name"`
	Plans           []PlanConfig  `yaml:"plans"`
	Timeout         time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
}

type SchedulerConfig struct {
	GrantSweepInterval time.Duration `yaml:"grant_sweep_interval"`
	SyncWorkers        int           `yaml:"sync_workers"`
}

type RateLimitConfig struct {
	CheckoutLimit  int           `yaml:"checkout_limit"` // per user per window; 0 disables
	CheckoutWindow time.Duration `yaml:"checkout_window"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Billing   BillingConfig   `yaml:"billing"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (optional when empty or missing),
// loads a .env file if present, applies environment overrides and defaults,
// and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	envs := []struct {
		key string
		dst *string
	}{
		{"STRIPE_SECRET_KEY", &cfg.Billing.SecretKey},
		{"STRIPE_PUBLISHABLE_KEY", &cfg.Billing.PublishableKey},
		{"STRIPE_WEBHOOK_SECRET", &cfg.Billing.WebhookSecret},
		{"DATABASE_URL", &cfg.Database.URL},
		{"REDIS_URL", &cfg.Redis.URL},
		{"AUTH_SECRET", &cfg.Auth.Secret},
	}
	for _, e := range envs {
		if v, ok := os.LookupEnv(e.key); ok && strings.TrimSpace(v) != "" {
			*e.dst = strings.TrimSpace(v)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.BaseURL == "" {
		cfg.HTTP.BaseURL = "http://localhost:8080"
	}
	cfg.HTTP.BaseURL = strings.TrimRight(cfg.HTTP.BaseURL, "/")
	cfg.HTTP.ReadTimeout = orDefault(cfg.HTTP.ReadTimeout, 10*time.Second)
	cfg.HTTP.WriteTimeout = orDefault(cfg.HTTP.WriteTimeout, 30*time.Second)
	cfg.HTTP.RequestTimeout = orDefault(cfg.HTTP.RequestTimeout, 20*time.Second)
	cfg.HTTP.ShutdownTimeout = orDefault(cfg.HTTP.ShutdownTimeout, 10*time.Second)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = orDefault(cfg.Redis.TTL, time.Hour)

	if cfg.Billing.SuccessURL == "" {
		cfg.Billing.SuccessURL = cfg.HTTP.BaseURL + "/membership/success/"
	}
	if cfg.Billing.CancelURL == "" {
		cfg.Billing.CancelURL = cfg.HTTP.BaseURL + "/membership/select/"
	}
	if cfg.Billing.PortalReturnURL == "" {
		cfg.Billing.PortalReturnURL = cfg.HTTP.BaseURL + "/membership/select/"
	}
	if cfg.Billing.Currency == "" {
		cfg.Billing.Currency = "usd"
	}
	if cfg.Billing.DonationName == "" {
		cfg.Billing.DonationName = "480pDreams Donation"
	}
	cfg.Billing.Timeout = orDefault(cfg.Billing.Timeout, 10*time.Second)

	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "session"
	}
	cfg.Auth.TTL = orDefault(cfg.Auth.TTL, 24*time.Hour)

	cfg.Scheduler.GrantSweepInterval = orDefault(cfg.Scheduler.GrantSweepInterval, time.Hour)
	if cfg.Scheduler.SyncWorkers <= 0 {
		cfg.Scheduler.SyncWorkers = 4
	}
	cfg.RateLimit.CheckoutWindow = orDefault(cfg.RateLimit.CheckoutWindow, time.Minute)
}

// Validate reports the first missing or inconsistent value.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Billing.SecretKey == "" {
		return errors.New("billing.secret_key is required")
	}
	if c.Billing.WebhookSecret == "" {
		return errors.New("billing.webhook_secret is required")
	}
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	seen := make(map[string]struct{}, len(c.Billing.Plans))
	for i, p := range c.Billing.Plans {
		if p.PriceID == "" {
			return fmt.Errorf("billing.plans[%d].price_id is required", i)
		}
		if _, dup := seen[p.PriceID]; dup {
			return fmt.Errorf("billing.plans[%d]: duplicate price_id %q", i, p.PriceID)
		}
		seen[p.PriceID] = struct{}{}
	}
	if c.RateLimit.CheckoutLimit < 0 {
		return errors.New("ratelimit.checkout_limit must not be negative")
	}
	return nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
