package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
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
	URL          string `yaml:"url"`
	MaxConns     int32  `yaml:"max_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
	MigrationURL string `yaml:"migration_url"` // lib/pq DSN, defaults to url
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CartTTL  time.Duration `yaml:"cart_ttl"`  // session cart record lifetime
	CacheTTL time.Duration `yaml:"cache_ttl"` // catalog cache
}

type AuthConfig struct {
	Secret       string        `yaml:"secret"`
	CookieName   string        `yaml:"cookie_name"`
	CookieDomain string        `yaml:"cookie_domain"`
	SecureCookie bool          `yaml:"secure_cookie"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

type CheckoutConfig struct {
	LockTTL     time.Duration `yaml:"lock_ttl"`     // upper bound of one submission
	RateLimit   int           `yaml:"rate_limit"`   // submissions per window per session
	RateWindow  time.Duration `yaml:"rate_window"`
	SubmitLimit time.Duration `yaml:"submit_limit"` // timeout for the submission exchange
}

type FulfillmentConfig struct {
	SLAMinutes          int           `yaml:"sla_minutes"`
	InviteSLAMinutes    int           `yaml:"invite_sla_minutes"`
	CredentialDomain    string        `yaml:"credential_domain"`
	DownloadBaseURL     string        `yaml:"download_base_url"`
	WatchdogInterval    time.Duration `yaml:"watchdog_interval"`
	NotificationWorkers int           `yaml:"notification_workers"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SupportConfig struct {
	TelegramToken string  `yaml:"telegram_token"`
	ChatIDs       []int64 `yaml:"chat_ids"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 32 bytes, seals delivered secrets at rest
	DeliverySeed  string `yaml:"delivery_seed"`  // HMAC key for illustrative identifiers
}

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Checkout    CheckoutConfig    `yaml:"checkout"`
	Fulfillment FulfillmentConfig `yaml:"fulfillment"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Support     SupportConfig     `yaml:"support"`
	Security    SecurityConfig    `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Load reads the YAML file at path, applies defaults and validates required keys.
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse is Load without the file read.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev

	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.Secret == "" {
		return nil, errors.New("auth.secret is required")
	}
	if k := len(cfg.Security.EncryptionKey); k != 0 && k != 16 && k != 24 && k != 32 {
		return nil, fmt.Errorf("security.encryption_key must be 16, 24 or 32 bytes; got %d", k)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	c.HTTP.ReadTimeout = orDuration(c.HTTP.ReadTimeout, 10*time.Second)
	c.HTTP.WriteTimeout = orDuration(c.HTTP.WriteTimeout, 15*time.Second)
	c.HTTP.RequestTimeout = orDuration(c.HTTP.RequestTimeout, 10*time.Second)
	c.HTTP.ShutdownTimeout = orDuration(c.HTTP.ShutdownTimeout, 10*time.Second)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.MigrationURL == "" {
		c.Database.MigrationURL = c.Database.URL
	}

	c.Redis.CartTTL = orDuration(c.Redis.CartTTL, 30*24*time.Hour)
	c.Redis.CacheTTL = orDuration(c.Redis.CacheTTL, time.Hour)

	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "storefront_session"
	}
	c.Auth.SessionTTL = orDuration(c.Auth.SessionTTL, 30*24*time.Hour)

	c.Checkout.LockTTL = orDuration(c.Checkout.LockTTL, 30*time.Second)
	c.Checkout.SubmitLimit = orDuration(c.Checkout.SubmitLimit, 20*time.Second)
	c.Checkout.RateWindow = orDuration(c.Checkout.RateWindow, time.Minute)
	if c.Checkout.RateLimit <= 0 {
		c.Checkout.RateLimit = 10
	}

	if c.Fulfillment.SLAMinutes <= 0 {
		c.Fulfillment.SLAMinutes = 30
	}
	if c.Fulfillment.InviteSLAMinutes <= 0 {
		c.Fulfillment.InviteSLAMinutes = 30
	}
	if c.Fulfillment.CredentialDomain == "" {
		c.Fulfillment.CredentialDomain = "accounts.example.com"
	}
	if c.Fulfillment.DownloadBaseURL == "" {
		c.Fulfillment.DownloadBaseURL = "https://downloads.example.com/d"
	}
	c.Fulfillment.WatchdogInterval = orDuration(c.Fulfillment.WatchdogInterval, 5*time.Minute)
	if c.Fulfillment.NotificationWorkers <= 0 {
		c.Fulfillment.NotificationWorkers = 2
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "storefront.events"
	}
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
