package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Env        string           `yaml:"env"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Booking    BookingConfig    `yaml:"booking"`
	Queue      QueueConfig      `yaml:"queue"`
	Documents  DocumentsConfig  `yaml:"documents"`
	Redis      RedisConfig      `yaml:"redis"`
	Events     EventsConfig     `yaml:"events"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Archiver   ArchiverConfig   `yaml:"archiver"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	RateLimitPerSec    float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	MaxUploadBytes     int64    `yaml:"max_upload_bytes"`
	ShutdownTimeoutSec int      `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                    string `yaml:"driver"`
	DSN                       string `yaml:"dsn"`
	MaxOpenConns              int    `yaml:"max_open_conns"`
	MaxIdleConns              int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes    int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel                  string `yaml:"log_level"`
	Seed                      bool   `yaml:"seed"`
	EnableExclusionConstraint bool   `yaml:"enable_exclusion_constraint"`
}

// BookingConfig holds request interpretation and admission settings.
type BookingConfig struct {
	Timezone        string `yaml:"timezone"`
	EnforceFacility bool   `yaml:"enforce_facility"`
}

// QueueConfig holds the review queue estimate settings.
type QueueConfig struct {
	MinutesPerItem int `yaml:"minutes_per_item"`
}

// DocumentsConfig limits supporting document uploads.
type DocumentsConfig struct {
	MaxBytes     int64    `yaml:"max_bytes"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// RedisConfig configures the optional facility read cache.
type RedisConfig struct {
	Addr                    string `yaml:"addr"`
	Password                string `yaml:"password"`
	DB                      int    `yaml:"db"`
	FacilityCacheTTLSeconds int    `yaml:"facility_cache_ttl_seconds"`
}

// EventsConfig configures the booking event publisher.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// ArchiverConfig controls the sweeper that completes finished bookings.
type ArchiverConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	BatchSize       int           `yaml:"batch_size"`
	Interval        time.Duration `yaml:"-"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads the configuration from the given path. Environment variables
// referenced as ${VAR} are expanded before parsing.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 60
	}
	if c.Server.ShutdownTimeoutSec <= 0 {
		c.Server.ShutdownTimeoutSec = 5
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "file:booking.db?_foreign_keys=on"
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}

	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "Asia/Jakarta"
	}

	if c.Queue.MinutesPerItem <= 0 {
		c.Queue.MinutesPerItem = 30
	}

	if c.Documents.MaxBytes <= 0 {
		c.Documents.MaxBytes = 5 << 20
	}
	if len(c.Documents.AllowedTypes) == 0 {
		c.Documents.AllowedTypes = []string{"application/pdf"}
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = c.Documents.MaxBytes + 1<<20
	}

	if c.Redis.FacilityCacheTTLSeconds <= 0 {
		c.Redis.FacilityCacheTTLSeconds = 300
	}

	if c.Events.Exchange == "" {
		c.Events.Exchange = "booking.events"
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.WorkerPool.Size <= 0 {
		c.WorkerPool.Size = 1
	}
	if c.WorkerPool.QueueSize <= 0 {
		c.WorkerPool.QueueSize = 64
	}

	if c.Archiver.IntervalSeconds <= 0 {
		c.Archiver.IntervalSeconds = 300
	}
	if c.Archiver.BatchSize <= 0 {
		c.Archiver.BatchSize = 100
	}
	c.Archiver.Interval = time.Duration(c.Archiver.IntervalSeconds) * time.Second

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate rejects settings that cannot be served.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid booking.timezone %q: %w", c.Booking.Timezone, err)
	}
	return nil
}

// Location returns the time zone in which request dates and times are read.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ProcessingPerItem returns the assumed review time per queued booking.
func (c *Config) ProcessingPerItem() time.Duration {
	return time.Duration(c.Queue.MinutesPerItem) * time.Minute
}

// CacheTTL returns the HTTP response cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Server.CacheTTLSeconds) * time.Second
}
