// Package config handles loading and validating the collector configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/meli-collector/internal/meli"
)

// TokenEnv is the environment variable read when no access token is
// configured explicitly.
const TokenEnv = "MELI_ACCESS_TOKEN"

// DefaultTerms are searched when the configuration lists none.
var DefaultTerms = []string{"chromecast", "macbook", "monitor portátil", "Galaxy S23"}

// Config is the top-level application configuration.
type Config struct {
	Marketplace   MarketplaceConfig   `yaml:"marketplace"`
	Collection    CollectionConfig    `yaml:"collection"`
	Export        ExportConfig        `yaml:"export"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// MarketplaceConfig defines marketplace API settings.
type MarketplaceConfig struct {
	BaseURL     string          `yaml:"base_url"`
	SiteID      string          `yaml:"site_id"`
	AccessToken string          `yaml:"access_token"`
	Timeout     time.Duration   `yaml:"timeout"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Retry       RetryConfig     `yaml:"retry"`
}

// RateLimitConfig defines API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"` // 0 disables the daily quota
}

// RetryConfig defines the backoff applied to failed API calls.
type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Multiplier      float64       `yaml:"multiplier"`
	MaxAttempts     int           `yaml:"max_attempts"`     // 0 retries forever
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time"` // 0 retries forever
	GiveUpOn        []int         `yaml:"give_up_on"`
}

// Policy converts the settings into a client retry policy.
func (r RetryConfig) Policy() meli.RetryPolicy {
	return meli.RetryPolicy{
		InitialInterval: r.InitialInterval,
		MaxInterval:     r.MaxInterval,
		Multiplier:      r.Multiplier,
		MaxAttempts:     r.MaxAttempts,
		MaxElapsedTime:  r.MaxElapsedTime,
		GiveUpOn:        r.GiveUpOn,
	}
}

// CollectionConfig defines what is searched and how much of it.
type CollectionConfig struct {
	Terms           []string `yaml:"terms"`
	Limit           int      `yaml:"limit"`
	Offset          int      `yaml:"offset"`
	MaxPages        int      `yaml:"max_pages"`
	DetailCacheSize int      `yaml:"detail_cache_size"`
}

// ExportConfig defines where and how the CSV file is written.
type ExportConfig struct {
	OutputDir string   `yaml:"output_dir"`
	Columns   []string `yaml:"columns"` // empty uses the built-in allow-list
}

// MetricsConfig defines the optional Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// NotificationsConfig defines where run reports are delivered.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyMarketplaceDefaults(&cfg.Marketplace)
	applyCollectionDefaults(&cfg.Collection)
	applyExportDefaults(&cfg.Export)
	applyLoggingDefaults(&cfg.Logging)
}

func applyMarketplaceDefaults(m *MarketplaceConfig) {
	if m.BaseURL == "" {
		m.BaseURL = "https://api.mercadolibre.com"
	}
	if m.SiteID == "" {
		m.SiteID = "MLA"
	}
	if m.AccessToken == "" {
		m.AccessToken = os.Getenv(TokenEnv)
	}
	if m.Timeout == 0 {
		m.Timeout = 30 * time.Second
	}
	applyRateLimitDefaults(&m.RateLimit)
	applyRetryDefaults(&m.Retry)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 5.0
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
}

func applyRetryDefaults(r *RetryConfig) {
	def := meli.DefaultRetryPolicy()
	if r.InitialInterval == 0 {
		r.InitialInterval = def.InitialInterval
	}
	if r.MaxInterval == 0 {
		r.MaxInterval = def.MaxInterval
	}
	if r.Multiplier == 0 {
		r.Multiplier = def.Multiplier
	}
}

func applyCollectionDefaults(c *CollectionConfig) {
	if len(c.Terms) == 0 {
		c.Terms = append([]string(nil), DefaultTerms...)
	}
	if c.Limit == 0 {
		c.Limit = 50
	}
	if c.MaxPages == 0 {
		c.MaxPages = 1
	}
}

func applyExportDefaults(e *ExportConfig) {
	if e.OutputDir == "" {
		e.OutputDir = "output"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

// Validate reports every problem with cfg at once. It is exported so that
// command-line overrides can be checked after they are applied.
func (cfg *Config) Validate() error {
	var errs []error

	m := cfg.Marketplace
	if m.AccessToken == "" {
		errs = append(errs, fmt.Errorf("marketplace.access_token is required (or set %s)", TokenEnv))
	}
	if m.Timeout < 0 {
		errs = append(errs, errors.New("marketplace.timeout must not be negative"))
	}
	if m.RateLimit.PerSecond < 0 {
		errs = append(errs, errors.New("marketplace.rate_limit.per_second must not be negative"))
	}
	if m.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("marketplace.rate_limit.burst must be at least 1"))
	}
	if m.RateLimit.DailyLimit < 0 {
		errs = append(errs, errors.New("marketplace.rate_limit.daily_limit must not be negative"))
	}
	errs = append(errs, validateRetry(m.Retry)...)

	c := cfg.Collection
	if len(c.Terms) == 0 {
		errs = append(errs, errors.New("collection.terms must list at least one term"))
	}
	for i, term := range c.Terms {
		if term == "" {
			errs = append(errs, fmt.Errorf("collection.terms[%d] is empty", i))
		}
	}
	if c.Limit < 1 {
		errs = append(errs, fmt.Errorf("collection.limit must be positive (got %d)", c.Limit))
	}
	if c.Offset < 0 {
		errs = append(errs, fmt.Errorf("collection.offset must not be negative (got %d)", c.Offset))
	}
	if c.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("collection.max_pages must not be negative (got %d)", c.MaxPages))
	}
	if c.DetailCacheSize < 0 {
		errs = append(errs, fmt.Errorf(
			"collection.detail_cache_size must not be negative (got %d)", c.DetailCacheSize,
		))
	}

	if cfg.Export.OutputDir == "" {
		errs = append(errs, errors.New("export.output_dir is required"))
	}

	if d := cfg.Notifications.Discord; d.Enabled && d.WebhookURL == "" {
		errs = append(errs, errors.New(
			"notifications.discord.webhook_url is required when discord is enabled",
		))
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.format must be one of: text, json (got %q)", cfg.Logging.Format,
		))
	}

	return errors.Join(errs...)
}

func validateRetry(r RetryConfig) []error {
	var errs []error
	if r.InitialInterval < 0 {
		errs = append(errs, errors.New("marketplace.retry.initial_interval must not be negative"))
	}
	if r.MaxInterval < r.InitialInterval {
		errs = append(errs, fmt.Errorf(
			"marketplace.retry.max_interval (%s) must not be below initial_interval (%s)",
			r.MaxInterval, r.InitialInterval,
		))
	}
	if r.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("marketplace.retry.multiplier must be at least 1 (got %g)", r.Multiplier))
	}
	if r.MaxAttempts < 0 {
		errs = append(errs, errors.New("marketplace.retry.max_attempts must not be negative"))
	}
	if r.MaxElapsedTime < 0 {
		errs = append(errs, errors.New("marketplace.retry.max_elapsed_time must not be negative"))
	}
	for _, code := range r.GiveUpOn {
		if code < 400 || code > 599 {
			errs = append(errs, fmt.Errorf("marketplace.retry.give_up_on: %d is not an HTTP error status", code))
		}
	}
	return errs
}
