package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"consumption-analytics/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Query    QueryConfig    `mapstructure:"query"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates warehouse (PostgreSQL) connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// QueryConfig holds defaults for the historical consumption queries.
type QueryConfig struct {
	DefaultAccountPattern string `mapstructure:"default_account_pattern"`
	DefaultLimit          int    `mapstructure:"default_limit"`
	MaxLimit              int    `mapstructure:"max_limit"`
	LookbackMonths        int    `mapstructure:"lookback_months"`
}

// ForecastConfig drives the organic-growth scenario.
type ForecastConfig struct {
	// Per-year growth percentages; index 0 is Yr1. Months beyond the last
	// entry fall back to the last entry's rate.
	GrowthPctByYear   []float64 `mapstructure:"growth_pct_by_year"`
	HorizonMonths     int       `mapstructure:"horizon_months"`
	AllowZeroBaseline bool      `mapstructure:"allow_zero_baseline"`
}

// RefreshConfig governs the snapshot refresh loop.
type RefreshConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// AlertingConfig defines contraction-alert thresholds and routing.
type AlertingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// ContractionPct triggers an alert when an account's latest MoM growth
	// is at or below this value (e.g. -20 for a 20% drop).
	ContractionPct float64        `mapstructure:"contraction_pct"`
	Channels       []string       `mapstructure:"channels"`
	Telegram       TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram alert channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxRows int `mapstructure:"max_rows"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("C360")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "c360")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("query.default_account_pattern", "%")
	v.SetDefault("query.default_limit", 500)
	v.SetDefault("query.max_limit", 10000)
	v.SetDefault("query.lookback_months", 12)

	v.SetDefault("forecast.growth_pct_by_year", []float64{5.0, 5.0, 5.0})
	v.SetDefault("forecast.horizon_months", 36)
	v.SetDefault("forecast.allow_zero_baseline", false)

	v.SetDefault("refresh.interval", "24h")
	v.SetDefault("refresh.align_to_bucket", true)
	v.SetDefault("refresh.advisory_lock_key", int64(0x63333630))
	v.SetDefault("refresh.startup_delay", "0s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.contraction_pct", -20.0)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_rows", 10000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("query.default_limit must be greater than zero")
	}
	if c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("query.max_limit must be at least query.default_limit")
	}
	if c.Query.LookbackMonths <= 0 {
		return fmt.Errorf("query.lookback_months must be greater than zero")
	}
	if len(c.Forecast.GrowthPctByYear) == 0 {
		return fmt.Errorf("forecast.growth_pct_by_year requires at least one rate")
	}
	if c.Forecast.HorizonMonths <= 0 {
		return fmt.Errorf("forecast.horizon_months must be greater than zero")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be greater than zero")
	}
	if c.Export.MaxRows <= 0 {
		return fmt.Errorf("export.max_rows must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ClampLimit bounds a caller-supplied row limit to the configured window,
// falling back to the default when the override is unset.
func (c *Config) ClampLimit(override int) int {
	if override <= 0 {
		return c.Query.DefaultLimit
	}
	if override > c.Query.MaxLimit {
		return c.Query.MaxLimit
	}
	return override
}

// GrowthRates converts the configured per-year percentages into the
// bucket-to-fraction map the projector consumes.
func (c *Config) GrowthRates() map[int]float64 {
	rates := make(map[int]float64, len(c.Forecast.GrowthPctByYear))
	for i, pct := range c.Forecast.GrowthPctByYear {
		rates[i+1] = pct / 100.0
	}
	return rates
}
