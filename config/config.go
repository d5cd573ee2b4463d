// Package config loads service configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata" // forecast timezone on hosts without zoneinfo

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Statute   StatuteConfig   `yaml:"statute"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ReadTimeout    string   `yaml:"read_timeout"`
	WriteTimeout   string   `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StatuteConfig points at an optional statute file. Empty uses the tables
// compiled into the binary.
type StatuteConfig struct {
	Path string `yaml:"path"`
}

type ForecastConfig struct {
	// Timezone decides which calendar day "today" is.
	Timezone string `yaml:"timezone"`
	// Workers bounds batch forecast concurrency; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// SchedulerConfig drives the periodic eligibility scan of the server.
type SchedulerConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Interval   string `yaml:"interval"`
	NoticeDays int    `yaml:"notice_days"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			ReadTimeout:    "15s",
			WriteTimeout:   "30s",
		},
		Database: DatabaseConfig{
			Path: "promotions.db",
		},
		Forecast: ForecastConfig{
			Timezone: "America/Sao_Paulo",
		},
		Scheduler: SchedulerConfig{
			Enabled:    true,
			Interval:   "24h",
			NoticeDays: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PROMO_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROMO_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("PROMO_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PROMO_STATUTE"); v != "" {
		c.Statute.Path = v
	}
	if v := os.Getenv("PROMO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PROMO_TZ"); v != "" {
		c.Forecast.Timezone = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path not configured (set database.path or PROMO_DB)")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := parseDuration("server.read_timeout", c.Server.ReadTimeout); err != nil {
		return err
	}
	if _, err := parseDuration("server.write_timeout", c.Server.WriteTimeout); err != nil {
		return err
	}
	if c.Scheduler.Enabled {
		if d, err := parseDuration("scheduler.interval", c.Scheduler.Interval); err != nil {
			return err
		} else if d <= 0 {
			return fmt.Errorf("scheduler.interval must be positive when the scheduler is enabled")
		}
	}
	if c.Scheduler.NoticeDays < 0 {
		return fmt.Errorf("invalid scheduler.notice_days: %d", c.Scheduler.NoticeDays)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}

// Location returns the forecast timezone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Forecast.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast timezone %q: %w", c.Forecast.Timezone, err)
	}
	return loc, nil
}

// Clock returns "now" in the forecast timezone.
func (c *Config) Clock() func() time.Time {
	loc, err := c.Location()
	if err != nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

func (c *Config) GetReadTimeout() time.Duration {
	d, _ := parseDuration("server.read_timeout", c.Server.ReadTimeout)
	return d
}

func (c *Config) GetWriteTimeout() time.Duration {
	d, _ := parseDuration("server.write_timeout", c.Server.WriteTimeout)
	return d
}

func (c *Config) GetSchedulerInterval() time.Duration {
	d, _ := parseDuration("scheduler.interval", c.Scheduler.Interval)
	return d
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	return d, nil
}
