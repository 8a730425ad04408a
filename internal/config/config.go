// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/market-suggest/pkg/outlier"
	"github.com/donaldgifford/market-suggest/pkg/pipeline"
	"github.com/donaldgifford/market-suggest/pkg/tier"
)

// Source selection modes.
const (
	SourceAuto   = "auto"
	SourceManual = "manual"
)

// Scrape fetch modes.
const (
	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Source        SourceConfig        `yaml:"source"`
	Output        OutputConfig        `yaml:"output"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Scrape        ScrapeConfig        `yaml:"scrape"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings. Run history is
// disabled when Host is empty.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// Enabled reports whether a database is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// PipelineConfig holds the analysis parameters. DiscountRates accepts
// fractions ("0.05") or percentages ("5%"); their order is the tier order.
type PipelineConfig struct {
	CleaningMode  string   `yaml:"cleaning_mode"` // quantile, fixed-range
	IQRMultiplier float64  `yaml:"iqr_multiplier"`
	FixedRangeMin float64  `yaml:"fixed_range_min"`
	FixedRangeMax float64  `yaml:"fixed_range_max"`
	PriceFloor    float64  `yaml:"price_floor"`
	DiscountRates []string `yaml:"discount_rates"`
	TierLabels    []string `yaml:"tier_labels"`
}

// ToPipeline converts the YAML section into a pipeline.Config.
func (p *PipelineConfig) ToPipeline() (pipeline.Config, error) {
	rates, err := tier.ParseRates(p.DiscountRates)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("pipeline.discount_rates: %w", err)
	}
	return pipeline.Config{
		CleaningMode:  p.CleaningMode,
		FixedRangeMin: p.FixedRangeMin,
		FixedRangeMax: p.FixedRangeMax,
		IQRMultiplier: p.IQRMultiplier,
		PriceFloor:    p.PriceFloor,
		DiscountRates: rates,
		TierLabels:    p.TierLabels,
	}, nil
}

// SourceConfig selects the listings table to analyze.
type SourceConfig struct {
	Mode    string `yaml:"mode"` // auto, manual
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
	File    string `yaml:"file"`
}

// OutputConfig defines where run reports are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Charts bool   `yaml:"charts"`
}

// ScheduleConfig defines cron intervals.
type ScheduleConfig struct {
	Enabled        bool          `yaml:"enabled"`
	SourceInterval time.Duration `yaml:"source_interval"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	GoogleChat WebhookConfig   `yaml:"google_chat"`
	Discord    WebhookConfig   `yaml:"discord"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	// Tiers limits delivery to these tier indexes; empty means all tiers.
	Tiers []int `yaml:"tiers"`
}

// WebhookConfig defines a chat webhook target.
type WebhookConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// RateLimitConfig defines outbound request pacing.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// ScrapeConfig defines the listing page fetcher.
type ScrapeConfig struct {
	Mode       string          `yaml:"mode"` // http, browser
	UserAgent  string          `yaml:"user_agent"`
	Timeout    time.Duration   `yaml:"timeout"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	ChromePath string          `yaml:"chrome_path"`
	Headless   *bool           `yaml:"headless"`
	Selectors  SelectorsConfig `yaml:"selectors"`
}

// SelectorsConfig holds the CSS selectors used to parse an item page.
type SelectorsConfig struct {
	Name       string `yaml:"name"`
	Price      string `yaml:"price"`
	Condition  string `yaml:"condition"`
	PostedDate string `yaml:"posted_date"`
}

// TelemetryConfig defines OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config content.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied, for commands
// run without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyPipelineDefaults(&cfg.Pipeline)
	applySourceDefaults(&cfg.Source)
	applyOutputDefaults(&cfg.Output)
	applyScheduleDefaults(&cfg.Schedule)
	applyRateLimitDefaults(&cfg.Notifications.RateLimit, 1, 1)
	applyScrapeDefaults(&cfg.Scrape)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyPipelineDefaults(p *PipelineConfig) {
	def := pipeline.DefaultConfig()
	if p.CleaningMode == "" {
		p.CleaningMode = def.CleaningMode
	}
	if p.IQRMultiplier == 0 {
		p.IQRMultiplier = def.IQRMultiplier
	}
	if p.FixedRangeMin == 0 && p.FixedRangeMax == 0 {
		p.FixedRangeMin = def.FixedRangeMin
		p.FixedRangeMax = def.FixedRangeMax
	}
	if p.PriceFloor == 0 {
		p.PriceFloor = def.PriceFloor
	}
	if p.DiscountRates == nil {
		for _, r := range def.DiscountRates {
			p.DiscountRates = append(p.DiscountRates, fmt.Sprint(r))
		}
	}
}

func applySourceDefaults(s *SourceConfig) {
	if s.Mode == "" {
		s.Mode = SourceAuto
	}
	if s.Dir == "" {
		s.Dir = "data/products"
	}
	if s.Pattern == "" {
		s.Pattern = "*.csv"
	}
}

func applyOutputDefaults(o *OutputConfig) {
	if o.Dir == "" {
		o.Dir = "data/runs"
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.SourceInterval == 0 {
		s.SourceInterval = time.Hour
	}
}

func applyRateLimitDefaults(r *RateLimitConfig, perSecond float64, burst int) {
	if r.PerSecond == 0 {
		r.PerSecond = perSecond
	}
	if r.Burst == 0 {
		r.Burst = burst
	}
}

func applyScrapeDefaults(s *ScrapeConfig) {
	if s.Mode == "" {
		s.Mode = FetchHTTP
	}
	if s.UserAgent == "" {
		s.UserAgent = "market-suggest/1.0"
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.Headless == nil {
		headless := true
		s.Headless = &headless
	}
	applyRateLimitDefaults(&s.RateLimit, 0.5, 1)
	applySelectorDefaults(&s.Selectors)
}

func applySelectorDefaults(s *SelectorsConfig) {
	if s.Name == "" {
		s.Name = `[data-testid="name"]`
	}
	if s.Price == "" {
		s.Price = `[data-testid="price"]`
	}
	if s.Condition == "" {
		s.Condition = `[data-testid="商品の状態"]`
	}
	if s.PostedDate == "" {
		s.PostedDate = `[data-testid="posted-date"]`
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.ServiceName == "" {
		t.ServiceName = "market-suggest"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
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

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Enabled() {
		if cfg.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required"))
		}
	}

	errs = append(errs, validatePipeline(&cfg.Pipeline)...)

	switch cfg.Source.Mode {
	case SourceAuto:
	case SourceManual:
		if cfg.Source.File == "" {
			errs = append(errs, fmt.Errorf("source.file is required when mode is manual"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"source.mode must be one of: auto, manual (got %q)", cfg.Source.Mode,
		))
	}

	if cfg.Notifications.GoogleChat.Enabled && cfg.Notifications.GoogleChat.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.google_chat.webhook_url is required when enabled"))
	}
	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when enabled"))
	}

	switch cfg.Scrape.Mode {
	case FetchHTTP, FetchBrowser:
	default:
		errs = append(errs, fmt.Errorf(
			"scrape.mode must be one of: http, browser (got %q)", cfg.Scrape.Mode,
		))
	}

	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio must be within [0, 1]"))
	}

	return errors.Join(errs...)
}

func validatePipeline(p *PipelineConfig) []error {
	var errs []error

	if _, err := outlier.New(p.CleaningMode, p.IQRMultiplier, p.FixedRangeMin, p.FixedRangeMax); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.cleaning_mode: %w", err))
	}
	if p.PriceFloor < 0 {
		errs = append(errs, fmt.Errorf("pipeline.price_floor must not be negative"))
	}
	if len(p.DiscountRates) == 0 {
		errs = append(errs, fmt.Errorf("pipeline.discount_rates: %w", tier.ErrNoRates))
	} else if _, err := tier.ParseRates(p.DiscountRates); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.discount_rates: %w", err))
	}
	if len(p.TierLabels) > len(p.DiscountRates) {
		errs = append(errs, fmt.Errorf(
			"pipeline.tier_labels has %d entries for %d discount rates",
			len(p.TierLabels), len(p.DiscountRates),
		))
	}

	return errs
}
