// Package config provides configuration management for the ingestion service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Market  MarketConfig  `mapstructure:"market"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst       int           `mapstructure:"rate_burst"`
	TickerCacheTTL  time.Duration `mapstructure:"ticker_cache_ttl"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	DBPath        string `mapstructure:"db_path"`
	HistoricalDir string `mapstructure:"historical_dir"`
}

// MarketConfig holds exchange-specific configuration.
type MarketConfig struct {
	Suffix string `mapstructure:"suffix"` // exchange qualifier, e.g. "AX"
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/asx-ingest"
	}
	return filepath.Join(home, ".config", "asx-ingest")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Missing config file is fine, defaults apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server.addr", "127.0.0.1:5000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.ticker_cache_ttl", time.Minute)
	v.SetDefault("store.db_path", filepath.Join(configDir, "market.db"))
	v.SetDefault("store.historical_dir", "")
	v.SetDefault("market.suffix", "AX")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "ingest.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ASX_INGEST_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ASX_INGEST_DB_PATH"); v != "" {
		cfg.Store.DBPath = v
	}
	if v := os.Getenv("ASX_INGEST_HISTORICAL_DIR"); v != "" {
		cfg.Store.HistoricalDir = v
	}
	if v := os.Getenv("ASX_INGEST_MARKET_SUFFIX"); v != "" {
		cfg.Market.Suffix = v
	}
	if v := os.Getenv("ASX_INGEST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ASX_INGEST_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimit = f
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive when rate limiting is enabled")
	}
	if c.Server.TickerCacheTTL < 0 {
		return fmt.Errorf("ticker_cache_ttl must be non-negative")
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Market.Suffix == "" {
		return fmt.Errorf("market suffix must not be empty")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
