package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/beanmart/salesmart/internal/core/reportjob"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

const envPrefix = "SALESMART_"

// Config represents the top-level application config plus the resolved report jobs.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Report    ReportConfig    `koanf:"report"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Loader    LoaderConfig    `koanf:"loader"`

	// Jobs is populated by Load after parsing job files.
	Jobs []reportjob.Job `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"` // postgres | memory
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type ReportConfig struct {
	Enabled       bool   `koanf:"enabled"`
	CheckInterval string `koanf:"check_interval"` // parsed and validated on startup
	JobsDir       string `koanf:"jobs_dir"`
	RequireJobs   bool   `koanf:"require_jobs"`
}

// AnalyticsConfig holds the monthly sales category boundaries as decimal strings.
// A month at or above HighThreshold is High, below LowThreshold is Low.
type AnalyticsConfig struct {
	HighThreshold string `koanf:"high_threshold"`
	LowThreshold  string `koanf:"low_threshold"`
}

type LoaderConfig struct {
	DataDir string `koanf:"data_dir"` // empty disables the startup load
}

// Interval returns the parsed scheduler check interval.
func (c ReportConfig) Interval() time.Duration {
	d, _ := time.ParseDuration(c.CheckInterval)
	return d
}

// Thresholds returns the parsed category boundaries.
func (c AnalyticsConfig) Thresholds() (high, low decimal.Decimal, err error) {
	high, err = decimal.NewFromString(c.HighThreshold)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid analytics.high_threshold %q: %w", c.HighThreshold, err)
	}
	low, err = decimal.NewFromString(c.LowThreshold)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid analytics.low_threshold %q: %w", c.LowThreshold, err)
	}
	return high, low, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Database.Type {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported database.type %q (must be postgres or memory)", c.Database.Type)
	}

	if c.Report.Enabled {
		interval, err := time.ParseDuration(c.Report.CheckInterval)
		if err != nil {
			return fmt.Errorf("invalid report.check_interval %q: %w", c.Report.CheckInterval, err)
		}
		if interval <= 0 {
			return fmt.Errorf("report.check_interval must be > 0")
		}
		if strings.TrimSpace(c.Report.JobsDir) == "" {
			return fmt.Errorf("report.jobs_dir is required when reports are enabled")
		}
	}

	high, low, err := c.Analytics.Thresholds()
	if err != nil {
		return err
	}
	if low.GreaterThan(high) {
		return fmt.Errorf("analytics.low_threshold %s exceeds high_threshold %s", low, high)
	}

	return nil
}

// Load parses config from file + env, validates it, then loads the report jobs.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":              8080,
		"server.host":              "0.0.0.0",
		"server.max_body_size_mb":  1,
		"server.mode":              "release",
		"database.type":            "memory",
		"database.dsn":             "",
		"database.max_open_conns":  25,
		"database.max_idle_conns":  25,
		"database.auto_migrate":    true,
		"report.enabled":           true,
		"report.check_interval":    "1h",
		"report.jobs_dir":          "./config/reports",
		"report.require_jobs":      false,
		"analytics.high_threshold": "1500",
		"analytics.low_threshold":  "800",
		"loader.data_dir":          "",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// SALESMART_DATABASE__DSN -> database.dsn
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.Report.Enabled {
		return &cfg, nil
	}

	repo, err := reportjob.NewFileSystemRepository(cfg.Report.JobsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load report jobs: %w", err)
	}
	cfg.Jobs = repo.Jobs()
	if cfg.Report.RequireJobs && len(reportjob.Enabled(cfg.Jobs)) == 0 {
		return nil, fmt.Errorf("no enabled report jobs found in %q", cfg.Report.JobsDir)
	}

	return &cfg, nil
}
