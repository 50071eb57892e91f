package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	HTTPAddr     string `mapstructure:"http_addr"`
	SitesFile    string `mapstructure:"sites_file"`
	ChannelsFile string `mapstructure:"channels_file"`
	LockPath     string `mapstructure:"lock_path"`

	ScrapeIntervalSeconds int64         `mapstructure:"scrape_interval"`
	ScrapeInterval        time.Duration `mapstructure:"-"`
	ScrapeTimeoutSeconds  int64         `mapstructure:"scrape_timeout_seconds"`
	ScrapeTimeout         time.Duration `mapstructure:"-"`
	ScrapeConcurrency     int           `mapstructure:"scrape_concurrency"`

	HTTPUserAgent      string        `mapstructure:"http_user_agent"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	StorageType string `mapstructure:"storage_type"`
	BBoltPath   string `mapstructure:"bbolt_path"`

	DefaultPageSize int `mapstructure:"default_page_size"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "rensai-release-tracker")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("sites_file", "./configs/sites.yaml")
	v.SetDefault("channels_file", "./configs/channels.yaml")
	v.SetDefault("lock_path", "./data/tracker.lock")
	v.SetDefault("scrape_interval", 900) // seconds
	v.SetDefault("scrape_timeout_seconds", 15)
	v.SetDefault("scrape_concurrency", 4)
	v.SetDefault("http_user_agent", "rensai-release-tracker/1.0")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/tracker.db")
	v.SetDefault("default_page_size", 20)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ScrapeIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid scrape_interval (must be positive seconds)")
	}
	cfg.ScrapeInterval = time.Duration(cfg.ScrapeIntervalSeconds) * time.Second

	if cfg.ScrapeTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid scrape_timeout_seconds (must be positive seconds)")
	}
	cfg.ScrapeTimeout = time.Duration(cfg.ScrapeTimeoutSeconds) * time.Second

	if cfg.ScrapeConcurrency <= 0 {
		return nil, fmt.Errorf("invalid scrape_concurrency (must be positive)")
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.DefaultPageSize <= 0 {
		return nil, fmt.Errorf("invalid default_page_size (must be positive)")
	}

	return &cfg, nil
}
