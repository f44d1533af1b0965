package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Shop       ShopConfig       `yaml:"shop"`
	Hours      HoursConfig      `yaml:"hours"`
	Durations  []DurationOption `yaml:"durations"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Database   DatabaseConfig   `yaml:"database"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// ShopConfig identifies the venue's timezone. All "today" and "now"
// decisions are made in this zone.
type ShopConfig struct {
	Timezone         string `yaml:"timezone"`
	FallbackTimezone string `yaml:"fallback_timezone"`
}

// HoursConfig describes the bookable operating window and the slot
// granularity of the day grid.
type HoursConfig struct {
	OpenHour    int  `yaml:"open_hour"`
	CloseHour   int  `yaml:"close_hour"`
	SlotMinutes int  `yaml:"slot_minutes"`
	Open24Hours bool `yaml:"open_24_hours"`
	Enabled     bool `yaml:"enabled"`
}

// DurationOption is one entry of the offered duration catalog.
type DurationOption struct {
	Minutes      int    `yaml:"minutes" json:"minutes"`
	PriceDisplay string `yaml:"price_display" json:"priceDisplay"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in usable values for anything the file left out.
// Also used by tests that build a Config by hand.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 15
	}

	if cfg.Shop.FallbackTimezone == "" {
		cfg.Shop.FallbackTimezone = "UTC"
	}

	if cfg.Hours.SlotMinutes <= 0 {
		cfg.Hours.SlotMinutes = 30
	}
	if !cfg.Hours.Open24Hours && cfg.Hours.OpenHour == 0 && cfg.Hours.CloseHour == 0 {
		cfg.Hours.OpenHour = 10
		cfg.Hours.CloseHour = 22
	}

	if len(cfg.Durations) == 0 {
		cfg.Durations = []DurationOption{
			{Minutes: 30},
			{Minutes: 60},
			{Minutes: 120},
		}
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}

// DurationAllowed reports whether minutes is one of the offered
// duration options.
func (cfg *Config) DurationAllowed(minutes int) bool {
	for _, d := range cfg.Durations {
		if d.Minutes == minutes {
			return true
		}
	}
	return false
}
