package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/wolfcubecho/quil-monitor/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Node      NodeConfig      `mapstructure:"node"`
	Price     PriceConfig     `mapstructure:"price"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// NodeConfig identifies the monitored node process.
type NodeConfig struct {
	Name        string        `mapstructure:"name"`
	JournalUnit string        `mapstructure:"journal_unit"`
	Since       string        `mapstructure:"since"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// Binary is the node executable queried for --node-info; empty
	// disables the node-information section of reports.
	Binary string `mapstructure:"binary"`
}

// PriceConfig covers the external price API.
type PriceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	CoinID         string        `mapstructure:"coin_id"`
	Currency       string        `mapstructure:"currency"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// MetricsConfig sets shard duration bucket boundaries in seconds.
type MetricsConfig struct {
	FastUnder float64 `mapstructure:"fast_under"`
	SlowOver  float64 `mapstructure:"slow_over"`
}

// StorageConfig locates the on-disk state and CSV outputs.
type StorageConfig struct {
	HistoryFile string `mapstructure:"history_file"`
	DailyCSV    string `mapstructure:"daily_csv"`
	ShardsCSV   string `mapstructure:"shards_csv"`
}

// DatabaseConfig encapsulates the optional PostgreSQL mirror.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs the watch loop cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// TelegramConfig describes the report notification channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUILMON")
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
	v.SetDefault("app.name", "quilmon")
	v.SetDefault("app.environment", "production")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("node.name", "Node-1")
	v.SetDefault("node.journal_unit", "ceremonyclient.service")
	v.SetDefault("node.since", "today")
	v.SetDefault("node.read_timeout", "30s")
	v.SetDefault("node.binary", "")

	v.SetDefault("price.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("price.coin_id", "wrapped-quil")
	v.SetDefault("price.currency", "usd")
	v.SetDefault("price.cache_ttl", "5m")
	v.SetDefault("price.request_timeout", "10s")
	v.SetDefault("price.user_agent", "quilmon/1.0")

	v.SetDefault("metrics.fast_under", 30.0)
	v.SetDefault("metrics.slow_over", 60.0)

	v.SetDefault("storage.history_file", "quil_history.json")
	v.SetDefault("storage.daily_csv", "quil_daily.csv")
	v.SetDefault("storage.shards_csv", "quil_shards.csv")

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 10000)

	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
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
	if c.Node.JournalUnit == "" {
		return fmt.Errorf("node.journal_unit must be set")
	}
	if c.Storage.HistoryFile == "" {
		return fmt.Errorf("storage.history_file must be set")
	}
	if c.Metrics.FastUnder <= 0 {
		return fmt.Errorf("metrics.fast_under must be greater than zero")
	}
	if c.Metrics.SlowOver <= c.Metrics.FastUnder {
		return fmt.Errorf("metrics.slow_over must be greater than metrics.fast_under")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token must be set when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id must be set when telegram is enabled")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
