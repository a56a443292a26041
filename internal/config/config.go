package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"StockPulse/internal/collector"
	"StockPulse/internal/logger"
)

// Config holds all application configuration.
type Config struct {
	Log        logger.Config    `yaml:"log"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Routes     RoutesConfig     `yaml:"routes"`
	Sources    SourcesConfig    `yaml:"sources"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Server     ServerConfig     `yaml:"server"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Database   DatabaseConfig   `yaml:"database"`
}

// FetchConfig tunes the resilient fetcher.
type FetchConfig struct {
	MaxRounds      int           `yaml:"max_rounds" default:"2" validate:"min=1,max=10"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" default:"8s" validate:"gt=0"`
	BackoffBase    time.Duration `yaml:"backoff_base" default:"300ms" validate:"gt=0"`
	BackoffStep    time.Duration `yaml:"backoff_step" default:"200ms" validate:"gte=0"`
	RatePerSec     float64       `yaml:"rate_per_sec" validate:"gte=0"`
	UserAgent      string        `yaml:"user_agent" default:"Mozilla/5.0"`
	Proxy          string        `yaml:"proxy" validate:"omitempty,url"`
}

// RoutesConfig is the ordered relay list. A relay with an empty prefix is a direct call.
type RoutesConfig struct {
	Relays []collector.Relay `yaml:"relays" validate:"dive"`
}

// SourcesConfig selects and locates the upstream data sources.
type SourcesConfig struct {
	Provider      string  `yaml:"provider" default:"yahoo" validate:"oneof=yahoo mock"`
	YahooChartURL string  `yaml:"yahoo_chart_url" default:"https://query1.finance.yahoo.com/v8/finance/chart/" validate:"url"`
	YahooQuoteURL string  `yaml:"yahoo_quote_url" default:"https://query1.finance.yahoo.com/v7/finance/quote" validate:"url"`
	TWSEURL       string  `yaml:"twse_url" default:"https://mis.twse.com.tw/stock/api/getStockInfo.jsp" validate:"url"`
	TWSEEnabled   *bool   `yaml:"twse_enabled" default:"true"`
	MockPrice     float64 `yaml:"mock_price" default:"100"`
}

// AnalysisConfig holds request defaults.
type AnalysisConfig struct {
	DefaultInterval string `yaml:"default_interval" default:"1d" validate:"oneof=1d 5m 15m 30m 60m"`
}

// EnrichmentConfig selects the optional commentary provider.
type EnrichmentConfig struct {
	Provider string        `yaml:"provider" default:"none" validate:"oneof=none gemini claude webhook"`
	Model    string        `yaml:"model"`
	Endpoint string        `yaml:"endpoint" validate:"omitempty,url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout" default:"6s" validate:"gt=0"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
}

// Enabled reports whether the bot is configured.
func (t TelegramConfig) Enabled() bool { return t.BotToken != "" }

// ScheduleConfig drives the watchlist job.
type ScheduleConfig struct {
	WatchlistCron string   `yaml:"watchlist_cron" default:"0 30 14 * * 1-5"`
	Interval      string   `yaml:"interval" default:"1d" validate:"oneof=1d 5m 15m 30m 60m"`
	Symbols       []string `yaml:"symbols" validate:"dive,required"`
}

type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path" default:"data/stockpulse.db"`
}

var validate = validator.New()

// Load reads config from a YAML file, then applies environment variable
// overrides and struct defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(cfg.Routes.Relays) == 0 {
		cfg.Routes.Relays = collector.DefaultRelays()
	}
	return cfg, nil
}

// Environment variable overrides
func applyEnv(cfg *Config) {
	set := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set("STOCKPULSE_LOG_LEVEL", &cfg.Log.Level)
	set("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	set("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	set("HTTPS_PROXY", &cfg.Fetch.Proxy)
	set("STOCKPULSE_ADDR", &cfg.Server.Addr)
	set("SQLITE_PATH", &cfg.Database.SQLitePath)
	set("CRON_WATCHLIST", &cfg.Schedule.WatchlistCron)
	set("STOCKPULSE_ENRICHMENT_PROVIDER", &cfg.Enrichment.Provider)
	set("STOCKPULSE_WEBHOOK_URL", &cfg.Enrichment.Endpoint)

	switch cfg.Enrichment.Provider {
	case "gemini":
		set("GEMINI_API_KEY", &cfg.Enrichment.APIKey)
	case "claude":
		set("ANTHROPIC_API_KEY", &cfg.Enrichment.APIKey)
	}

	if v := os.Getenv("STOCKPULSE_WATCHLIST"); v != "" {
		cfg.Schedule.Symbols = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Schedule.Symbols = append(cfg.Schedule.Symbols, s)
			}
		}
	}
}

// Validate checks field rules and the cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Enrichment.Provider {
	case "gemini", "claude":
		if c.Enrichment.APIKey == "" {
			return fmt.Errorf("enrichment.api_key is required for provider %s", c.Enrichment.Provider)
		}
	case "webhook":
		if c.Enrichment.Endpoint == "" {
			return fmt.Errorf("enrichment.endpoint is required for provider webhook")
		}
	}
	if c.Enrichment.Provider != "none" && c.Enrichment.Timeout > c.Fetch.AttemptTimeout {
		return fmt.Errorf("enrichment.timeout (%s) must not exceed fetch.attempt_timeout (%s)",
			c.Enrichment.Timeout, c.Fetch.AttemptTimeout)
	}
	if len(c.Schedule.Symbols) > 0 && c.Schedule.WatchlistCron == "" {
		return fmt.Errorf("schedule.watchlist_cron is required when symbols are set")
	}
	return nil
}

// TWSE reports whether the domestic realtime source is used.
func (s SourcesConfig) TWSE() bool {
	return s.TWSEEnabled == nil || *s.TWSEEnabled
}
