package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	HTTP struct {
		Addr           string        `yaml:"addr" envconfig:"HTTP_ADDR" validate:"required"`
		RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"HTTP_REQUEST_TIMEOUT" validate:"gte=0"`
	} `yaml:"http"`
	DataSource struct {
		ChartURL    string `yaml:"chart_url" envconfig:"YAHOO_CHART_URL" validate:"required,url"`
		SummaryURL  string `yaml:"summary_url" envconfig:"YAHOO_SUMMARY_URL" validate:"required,url"`
		Nifty50URL  string `yaml:"nifty50_url" envconfig:"NIFTY50_CSV_URL" validate:"required,url"`
		Nifty500URL string `yaml:"nifty500_url" envconfig:"NIFTY500_CSV_URL" validate:"required,url"`
		Universe    string `yaml:"universe" envconfig:"UNIVERSE" validate:"oneof=nifty50 nifty500"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database"`
	Cache struct {
		CandlesMaxAge        time.Duration `yaml:"candles_max_age" envconfig:"CACHE_CANDLES_MAX_AGE" validate:"gt=0"`
		FundamentalsMaxAge   time.Duration `yaml:"fundamentals_max_age" envconfig:"CACHE_FUNDAMENTALS_MAX_AGE" validate:"gt=0"`
		InstitutionalMaxAge  time.Duration `yaml:"institutional_max_age" validate:"gt=0"`
		SymbolListMaxAge     time.Duration `yaml:"symbol_list_max_age" validate:"gt=0"`
		CandlesStaleAge      time.Duration `yaml:"candles_stale_age" validate:"gtefield=CandlesMaxAge"`
		FundamentalsStaleAge time.Duration `yaml:"fundamentals_stale_age" validate:"gtefield=FundamentalsMaxAge"`
	} `yaml:"cache"`
	Batch struct {
		Size  int           `yaml:"size" envconfig:"BATCH_SIZE" validate:"gt=0"`
		Pause time.Duration `yaml:"pause" envconfig:"BATCH_PAUSE" validate:"gte=0"`
	} `yaml:"batch"`
	Retry struct {
		MaxRetries int           `yaml:"max_retries" envconfig:"RETRY_MAX" validate:"gte=0"`
		MaxBackoff time.Duration `yaml:"max_backoff" validate:"gt=0"`
	} `yaml:"retry"`
	Calendar struct {
		UTCOffsetMinutes int      `yaml:"utc_offset_minutes"`
		Open             string   `yaml:"open" validate:"datetime=15:04"`
		Close            string   `yaml:"close" validate:"datetime=15:04"`
		TradingDays      []string `yaml:"trading_days" validate:"min=1,dive,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
		MonthlyCutoffDay int      `yaml:"monthly_cutoff_day" validate:"min=1,max=31"`
	} `yaml:"calendar"`
	Analysis struct {
		ReversalRule string `yaml:"reversal_rule" envconfig:"REVERSAL_RULE" validate:"oneof=close open"`
	} `yaml:"analysis"`
	Schedule struct {
		ScanCron  string `yaml:"scan_cron" envconfig:"CRON_SCAN"`
		ClearCron string `yaml:"clear_cron" envconfig:"CRON_CLEAR"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID" validate:"required_with=BotToken"`
		TopN     int    `yaml:"top_n" validate:"gt=0"`
	} `yaml:"telegram"`
	Metrics struct {
		Subsystem string `yaml:"subsystem" validate:"required"`
	} `yaml:"metrics"`
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Proxy    string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable overrides
// and fills defaults for anything left unset.
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

	// Unset variables leave the YAML values in place.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8001"
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 15 * time.Minute
	}
	if c.DataSource.ChartURL == "" {
		c.DataSource.ChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if c.DataSource.SummaryURL == "" {
		c.DataSource.SummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	}
	if c.DataSource.Nifty50URL == "" {
		c.DataSource.Nifty50URL = "https://nsearchives.nseindia.com/content/indices/ind_nifty50list.csv"
	}
	if c.DataSource.Nifty500URL == "" {
		c.DataSource.Nifty500URL = "https://nsearchives.nseindia.com/content/indices/ind_nifty500list.csv"
	}
	if c.DataSource.Universe == "" {
		c.DataSource.Universe = "nifty500"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/trend_sentinel.db"
	}

	if c.Cache.CandlesMaxAge == 0 {
		c.Cache.CandlesMaxAge = 15 * time.Minute
	}
	if c.Cache.FundamentalsMaxAge == 0 {
		c.Cache.FundamentalsMaxAge = 24 * time.Hour
	}
	if c.Cache.InstitutionalMaxAge == 0 {
		c.Cache.InstitutionalMaxAge = 90 * 24 * time.Hour
	}
	if c.Cache.SymbolListMaxAge == 0 {
		c.Cache.SymbolListMaxAge = 24 * time.Hour
	}
	if c.Cache.CandlesStaleAge == 0 {
		c.Cache.CandlesStaleAge = 24 * time.Hour
	}
	if c.Cache.FundamentalsStaleAge == 0 {
		c.Cache.FundamentalsStaleAge = 7 * 24 * time.Hour
	}

	if c.Batch.Size == 0 {
		c.Batch.Size = 20
	}
	if c.Batch.Pause == 0 {
		c.Batch.Pause = 800 * time.Millisecond
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 5
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = 30 * time.Second
	}

	if c.Calendar.UTCOffsetMinutes == 0 {
		c.Calendar.UTCOffsetMinutes = 330
	}
	if c.Calendar.Open == "" {
		c.Calendar.Open = "09:15"
	}
	if c.Calendar.Close == "" {
		c.Calendar.Close = "15:30"
	}
	if len(c.Calendar.TradingDays) == 0 {
		c.Calendar.TradingDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	}
	if c.Calendar.MonthlyCutoffDay == 0 {
		c.Calendar.MonthlyCutoffDay = 24
	}

	if c.Analysis.ReversalRule == "" {
		c.Analysis.ReversalRule = "close"
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 45 15 * * 1-5"
	}
	if c.Telegram.TopN == 0 {
		c.Telegram.TopN = 10
	}
	if c.Metrics.Subsystem == "" {
		c.Metrics.Subsystem = "trend_sentinel"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether a bot token is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}
