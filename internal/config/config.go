// Package config loads quarry settings from a yaml file, QUARRY_*
// environment variables and defaults, in that order of precedence from
// lowest to highest: defaults < file < environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Log      LogConfig      `mapstructure:"log"`

	// Sources records where settings came from. Load runs before logging
	// is configured, so callers log it afterwards.
	Sources Sources `mapstructure:"-"`
}

// Sources names the files Load read. Empty means none was used.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

// DatabaseConfig contains SQLite settings
type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// SearchConfig contains query engine settings
type SearchConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
	// CacheSize is the number of parsed queries kept. Zero disables the cache.
	CacheSize int `mapstructure:"cache_size"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load reads configuration. An empty file means: look for quarry.yaml in
// the working directory and ./config, and carry on without one if absent.
// An explicitly named file must exist.
func Load(file string) (*Config, error) {
	var sources Sources
	if err := loadEnvFile(); err == nil {
		sources.EnvFile = ".env"
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QUARRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("quarry")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		sources.ConfigFile = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Sources = sources
	return &cfg, nil
}

// loadEnvFile loads environment variables from a .env file in the working
// directory. Variables already set are not overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		return err
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "quarry.db")
	v.SetDefault("database.max_connections", 4)

	v.SetDefault("search.default_page_size", 20)
	v.SetDefault("search.max_page_size", 100)
	v.SetDefault("search.cache_size", 512)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database.max_connections must be positive")
	}
	if c.Search.DefaultPageSize < 1 {
		return fmt.Errorf("search.default_page_size must be positive")
	}
	if c.Search.MaxPageSize < 1 {
		return fmt.Errorf("search.max_page_size must be positive")
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must not be negative")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}
