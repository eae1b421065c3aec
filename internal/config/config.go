package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	SWGCraft SWGCraftConfig `yaml:"swgcraft"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Rating   RatingConfig   `yaml:"rating"`
	Classes  ClassesConfig  `yaml:"classes"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`

	// WritesPerMinute throttles state-changing requests per client; 0
	// disables throttling.
	WritesPerMinute int `yaml:"writes_per_minute"`
}

type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type SWGCraftConfig struct {
	URL string `yaml:"url"`
	// Galaxy limits syncs to one galaxy; empty syncs every active galaxy.
	Galaxy string `yaml:"galaxy"`
	Token  string `yaml:"token"`
}

type TrackerConfig struct {
	Enabled         bool `yaml:"enabled"`
	SyncIntervalMs  int  `yaml:"sync_interval_ms"`
	StatsIntervalMs int  `yaml:"stats_interval_ms"`
	TopMatches      int  `yaml:"top_matches"`
	Workers         int  `yaml:"workers"`
}

type RatingConfig struct {
	ZeroIsMax    bool `yaml:"zero_is_max"`
	ReducedCap   bool `yaml:"reduced_cap"`
	DefaultLimit int  `yaml:"default_limit"`
}

type ClassesConfig struct {
	// Path to a YAML class table; empty uses the built-in table.
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Tracker.SyncIntervalMs) * time.Millisecond
}

func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Tracker.StatsIntervalMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            8700,
			MetricsPort:     8701,
			WritesPerMinute: 120,
		},
		Database: DatabaseConfig{
			Migrate: true,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		SWGCraft: SWGCraftConfig{
			URL: "https://swgcraft.org",
		},
		Tracker: TrackerConfig{
			Enabled:         true,
			SyncIntervalMs:  900000,
			StatsIntervalMs: 60000,
			TopMatches:      5,
			Workers:         4,
		},
		Rating: RatingConfig{
			ZeroIsMax:    false,
			ReducedCap:   true,
			DefaultLimit: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Tracker.SyncIntervalMs <= 0 {
		return fmt.Errorf("tracker.sync_interval_ms must be positive, got %d", c.Tracker.SyncIntervalMs)
	}
	if c.Tracker.StatsIntervalMs <= 0 {
		return fmt.Errorf("tracker.stats_interval_ms must be positive, got %d", c.Tracker.StatsIntervalMs)
	}
	if c.Rating.DefaultLimit <= 0 {
		return fmt.Errorf("rating.default_limit must be positive, got %d", c.Rating.DefaultLimit)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ASSAY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("ASSAY_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("ASSAY_WRITES_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.WritesPerMinute = n
		}
	}
	if v := os.Getenv("ASSAY_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("ASSAY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ASSAY_DATABASE_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.Migrate = b
		}
	}
	if v := os.Getenv("ASSAY_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("ASSAY_SWGCRAFT_URL"); v != "" {
		cfg.SWGCraft.URL = v
	}
	if v := os.Getenv("ASSAY_SWGCRAFT_GALAXY"); v != "" {
		cfg.SWGCraft.Galaxy = v
	}
	if v := os.Getenv("ASSAY_SWGCRAFT_TOKEN"); v != "" {
		cfg.SWGCraft.Token = v
	}
	if v := os.Getenv("ASSAY_TRACKER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracker.Enabled = b
		}
	}
	if v := os.Getenv("ASSAY_SYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracker.SyncIntervalMs = n
		}
	}
	if v := os.Getenv("ASSAY_ZERO_IS_MAX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Rating.ZeroIsMax = b
		}
	}
	if v := os.Getenv("ASSAY_REDUCED_CAP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Rating.ReducedCap = b
		}
	}
	if v := os.Getenv("ASSAY_CLASSES_PATH"); v != "" {
		cfg.Classes.Path = v
	}
	if v := os.Getenv("ASSAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
