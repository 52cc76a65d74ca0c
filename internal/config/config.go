package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultListenAddr    = "0.0.0.0:49257"
	defaultDataDir       = "."
	defaultLogLevel      = "info"
	defaultStatsInterval = time.Hour
	dbFileName           = "schematizer.db"
)

type Config struct {
	ListenAddr    string
	DataDir       string
	LogLevel      string
	StatsInterval time.Duration
}

// fileConfig is the TOML shape of the optional config file named by
// SCHEMATIZER_CONFIG. Durations are written as strings ("30m", "1h").
type fileConfig struct {
	ListenAddr    string `toml:"listen_addr"`
	DataDir       string `toml:"data_dir"`
	LogLevel      string `toml:"log_level"`
	StatsInterval string `toml:"stats_interval"`
}

// Load builds the configuration from defaults, then the optional config
// file, then environment variables. Later layers win.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    defaultListenAddr,
		DataDir:       defaultDataDir,
		LogLevel:      defaultLogLevel,
		StatsInterval: defaultStatsInterval,
	}

	if path := os.Getenv("SCHEMATIZER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if cfg.StatsInterval <= 0 {
		return nil, fmt.Errorf("stats interval must be positive, got %s", cfg.StatsInterval)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	var file fileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if file.ListenAddr != "" {
		c.ListenAddr = file.ListenAddr
	}
	if file.DataDir != "" {
		c.DataDir = file.DataDir
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.StatsInterval != "" {
		interval, err := time.ParseDuration(file.StatsInterval)
		if err != nil {
			return fmt.Errorf("parsing stats_interval: %w", err)
		}
		c.StatsInterval = interval
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.ListenAddr = getEnvOrDefault("SCHEMATIZER_LISTEN_ADDR", c.ListenAddr)
	c.DataDir = getEnvOrDefault("SCHEMATIZER_DATA_DIR", c.DataDir)
	c.LogLevel = getEnvOrDefault("SCHEMATIZER_LOG_LEVEL", c.LogLevel)

	if value := os.Getenv("SCHEMATIZER_STATS_INTERVAL"); value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parsing SCHEMATIZER_STATS_INTERVAL: %w", err)
		}
		c.StatsInterval = interval
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}
