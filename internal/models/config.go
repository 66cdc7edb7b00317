// Package models - Service configuration and operational settings.
// This file defines the configuration structures for every service component.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, storage, rate limits, channels, ...)
// - Defaults that run out of the box with no external services (memory storage, log senders)
// - Validation at load time so misconfigurations fail fast
// - Per-channel limits and drivers so each provider can be tuned independently
package models

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"
)

// Storage type constants
const (
	StorageTypeJSON     = "json"
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// Rate limiter backend constants
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Channel driver constants
const (
	ChannelDriverLog     = "log"
	ChannelDriverWebhook = "webhook"
)

// DefaultRateLimitMessage is returned on denial when a limiter has no message configured.
const DefaultRateLimitMessage = "Too many requests, please try again later."

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Storage: User profile persistence
// - RateLimits: Activity and per-channel fixed-window limits
// - Channels: Notification sender drivers and timeouts
// - Security: HTTP request throttling
// - Logging: Structured logging and output configuration
// - Metrics: Prometheus metrics server
// - Observability: OpenTelemetry tracing
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	RateLimits    RateLimitsConfig    `yaml:"rate_limits" json:"rate_limits"`
	Channels      ChannelsConfig      `yaml:"channels" json:"channels"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
	CORS         CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

type StorageConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Path     string         `yaml:"path" json:"path"`
	CacheTTL time.Duration  `yaml:"cache_ttl" json:"cache_ttl"`
	Database DatabaseConfig `yaml:"database" json:"database"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// LimitConfig configures one fixed-window limiter.
type LimitConfig struct {
	MaxRequests int           `yaml:"max_requests" json:"max_requests"`
	Window      time.Duration `yaml:"window" json:"window"`
	Message     string        `yaml:"message" json:"message"`
}

// RateLimitsConfig holds the activity limiter and the three channel limiters.
type RateLimitsConfig struct {
	Backend  string      `yaml:"backend" json:"backend"`
	Redis    RedisConfig `yaml:"redis" json:"redis"`
	Activity LimitConfig `yaml:"activity" json:"activity"`
	Email    LimitConfig `yaml:"email" json:"email"`
	SMS      LimitConfig `yaml:"sms" json:"sms"`
	Chat     LimitConfig `yaml:"chat" json:"chat"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// ChannelConfig selects and configures the sender for one channel.
type ChannelConfig struct {
	Driver     string `yaml:"driver" json:"driver"`
	URL        string `yaml:"url" json:"url"`
	AuthToken  string `yaml:"auth_token" json:"-"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
}

type ChannelsConfig struct {
	// Timeout bounds every individual channel send.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	Email   ChannelConfig `yaml:"email" json:"email"`
	SMS     ChannelConfig `yaml:"sms" json:"sms"`
	Chat    ChannelConfig `yaml:"chat" json:"chat"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig configures HTTP request throttling per client IP.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure" json:"insecure"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: Standard non-privileged HTTP port
// - Memory storage and memory limiters: no external services needed
// - Activity 50/hour, email 10/hour, sms 5/hour, chat 5/hour
// - Log senders: deliveries are written to the log until providers are configured
// - 10-second channel timeout so one provider cannot stall the others
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"*"},
				MaxAge:         86400,
			},
		},
		Storage: StorageConfig{
			Type:     StorageTypeMemory,
			Path:     "./data/profiles.json",
			CacheTTL: 5 * time.Minute,
			Database: DatabaseConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		RateLimits: RateLimitsConfig{
			Backend: RateLimitBackendMemory,
			Redis: RedisConfig{
				KeyPrefix: "notifier:ratelimit",
			},
			Activity: LimitConfig{
				MaxRequests: 50,
				Window:      time.Hour,
				Message:     "Too many activities. Please try again later.",
			},
			Email: LimitConfig{
				MaxRequests: 10,
				Window:      time.Hour,
				Message:     "Email notification limit reached. Please try again later.",
			},
			SMS: LimitConfig{
				MaxRequests: 5,
				Window:      time.Hour,
				Message:     "SMS notification limit reached. Please try again later.",
			},
			Chat: LimitConfig{
				MaxRequests: 5,
				Window:      time.Hour,
				Message:     "Chat notification limit reached. Please try again later.",
			},
		},
		Channels: ChannelsConfig{
			Timeout: 10 * time.Second,
			Email:   ChannelConfig{Driver: ChannelDriverLog, MaxRetries: 2},
			SMS:     ChannelConfig{Driver: ChannelDriverLog, MaxRetries: 2},
			Chat:    ChannelConfig{Driver: ChannelDriverLog, MaxRetries: 2},
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				BurstSize:         20,
				CleanupInterval:   5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "activity-notifier",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				Insecure:   true,
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}

	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("invalid rate limits config: %w", err)
	}

	if err := c.Channels.Validate(); err != nil {
		return fmt.Errorf("invalid channels config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (stc *StorageConfig) Validate() error {
	validTypes := []string{StorageTypeJSON, StorageTypeMemory, StorageTypePostgres, StorageTypeSQLite}
	if !slices.Contains(validTypes, stc.Type) {
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}

	if stc.Type == StorageTypeJSON && stc.Path == "" {
		return errors.New("path is required for JSON storage")
	}

	if (stc.Type == StorageTypePostgres || stc.Type == StorageTypeSQLite) && stc.Database.DSN == "" {
		return errors.New("database DSN is required for database storage")
	}

	return nil
}

func (rc *RateLimitsConfig) Validate() error {
	switch rc.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if rc.Redis.Addr == "" {
			return errors.New("redis address is required when backend is redis")
		}
	default:
		return fmt.Errorf("invalid rate limit backend: %s", rc.Backend)
	}

	limits := map[string]LimitConfig{
		"activity": rc.Activity,
		"email":    rc.Email,
		"sms":      rc.SMS,
		"chat":     rc.Chat,
	}
	for name, l := range limits {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (lc *LimitConfig) Validate() error {
	if lc.MaxRequests <= 0 {
		return errors.New("max requests must be positive")
	}
	if lc.Window <= 0 {
		return errors.New("window must be positive")
	}
	return nil
}

func (cc *ChannelsConfig) Validate() error {
	if cc.Timeout <= 0 {
		return errors.New("channel timeout must be positive")
	}
	channels := map[Channel]ChannelConfig{
		ChannelEmail: cc.Email,
		ChannelSMS:   cc.SMS,
		ChannelChat:  cc.Chat,
	}
	for name, ch := range channels {
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// For returns the configuration of the given channel.
func (cc *ChannelsConfig) For(c Channel) ChannelConfig {
	switch c {
	case ChannelSMS:
		return cc.SMS
	case ChannelChat:
		return cc.Chat
	default:
		return cc.Email
	}
}

func (ch *ChannelConfig) Validate() error {
	switch ch.Driver {
	case ChannelDriverLog:
		return nil
	case ChannelDriverWebhook:
		if ch.URL == "" {
			return errors.New("url is required for webhook driver")
		}
		u, err := url.Parse(ch.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid webhook url: %s", ch.URL)
		}
		if ch.MaxRetries < 0 {
			return errors.New("max retries cannot be negative")
		}
		return nil
	default:
		return fmt.Errorf("invalid channel driver: %s", ch.Driver)
	}
}

func (sec *SecurityConfig) Validate() error {
	if sec.RateLimit.Enabled {
		if sec.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("requests per minute must be positive")
		}
		if sec.RateLimit.BurstSize <= 0 {
			return errors.New("burst size must be positive")
		}
		if sec.RateLimit.CleanupInterval <= 0 {
			return errors.New("cleanup interval must be positive")
		}
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if !slices.Contains([]string{"json", "text"}, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	if !slices.Contains([]string{"stdout", "stderr", "file"}, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}

	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required when tracing exporter is otlp")
		}
	default:
		return fmt.Errorf("invalid tracing exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("tracing sample rate must be between 0 and 1")
	}

	return nil
}
