// Package config loads the notifier configuration: defaults, then an
// optional YAML file, then NOTIFIER_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"activitynotifier/internal/models"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NOTIFIER_"

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// legacyConfig mirrors renamed config keys so stale operator configs are
// reported instead of silently ignored.
type legacyConfig struct {
	RateLimits struct {
		WhatsApp interface{} `yaml:"whatsapp"`
	} `yaml:"rate_limits"`
	Channels struct {
		WhatsApp interface{} `yaml:"whatsapp"`
	} `yaml:"channels"`
}

// warnLegacyKeys logs a warning for each renamed key found in the YAML data.
func warnLegacyKeys(data []byte) {
	var legacy legacyConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return
	}
	if legacy.RateLimits.WhatsApp != nil {
		slog.Warn("Config key was renamed and is ignored; use rate_limits.chat.", "config_key", "rate_limits.whatsapp")
	}
	if legacy.Channels.WhatsApp != nil {
		slog.Warn("Config key was renamed and is ignored; use channels.chat.", "config_key", "channels.whatsapp")
	}
}

func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	warnLegacyKeys(data)
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// Malformed numeric, boolean and duration values are ignored and the
// previous value kept.
func envString(name string, dst *string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func envFloat(name string, dst *float64) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func loadFromEnvironment(config *models.Config) {
	// Server
	envInt("PORT", &config.Server.Port)
	envString("HOST", &config.Server.Host)
	envDuration("READ_TIMEOUT", &config.Server.ReadTimeout)
	envDuration("WRITE_TIMEOUT", &config.Server.WriteTimeout)
	envDuration("IDLE_TIMEOUT", &config.Server.IdleTimeout)
	envBool("TLS_ENABLED", &config.Server.TLSEnabled)
	envString("TLS_CERT_FILE", &config.Server.TLSCertFile)
	envString("TLS_KEY_FILE", &config.Server.TLSKeyFile)
	envBool("CORS_ENABLED", &config.Server.CORS.Enabled)
	if origins := os.Getenv(EnvPrefix + "CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.CORS.AllowedOrigins = splitList(origins)
	}

	// Storage
	envString("STORAGE_TYPE", &config.Storage.Type)
	envString("STORAGE_PATH", &config.Storage.Path)
	envDuration("STORAGE_CACHE_TTL", &config.Storage.CacheTTL)
	envString("DATABASE_DSN", &config.Storage.Database.DSN)
	envInt("DATABASE_MAX_OPEN_CONNS", &config.Storage.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &config.Storage.Database.MaxIdleConns)
	envDuration("DATABASE_CONN_MAX_LIFETIME", &config.Storage.Database.ConnMaxLifetime)

	// Rate limits
	envString("RATE_LIMIT_BACKEND", &config.RateLimits.Backend)
	envString("REDIS_ADDR", &config.RateLimits.Redis.Addr)
	envString("REDIS_PASSWORD", &config.RateLimits.Redis.Password)
	envInt("REDIS_DB", &config.RateLimits.Redis.DB)
	envString("REDIS_KEY_PREFIX", &config.RateLimits.Redis.KeyPrefix)
	for name, limit := range map[string]*models.LimitConfig{
		"ACTIVITY": &config.RateLimits.Activity,
		"EMAIL":    &config.RateLimits.Email,
		"SMS":      &config.RateLimits.SMS,
		"CHAT":     &config.RateLimits.Chat,
	} {
		envInt(name+"_LIMIT_MAX", &limit.MaxRequests)
		envDuration(name+"_LIMIT_WINDOW", &limit.Window)
		envString(name+"_LIMIT_MESSAGE", &limit.Message)
	}

	// Channels
	envDuration("CHANNEL_TIMEOUT", &config.Channels.Timeout)
	for name, ch := range map[string]*models.ChannelConfig{
		"EMAIL": &config.Channels.Email,
		"SMS":   &config.Channels.SMS,
		"CHAT":  &config.Channels.Chat,
	} {
		envString(name+"_DRIVER", &ch.Driver)
		envString(name+"_WEBHOOK_URL", &ch.URL)
		envString(name+"_WEBHOOK_TOKEN", &ch.AuthToken)
		envInt(name+"_MAX_RETRIES", &ch.MaxRetries)
	}

	// Security
	envBool("HTTP_RATE_LIMIT_ENABLED", &config.Security.RateLimit.Enabled)
	envInt("HTTP_RATE_LIMIT_RPM", &config.Security.RateLimit.RequestsPerMinute)
	envInt("HTTP_RATE_LIMIT_BURST", &config.Security.RateLimit.BurstSize)

	// Logging
	envString("LOG_LEVEL", &config.Logging.Level)
	envString("LOG_FORMAT", &config.Logging.Format)
	envString("LOG_OUTPUT", &config.Logging.Output)
	envString("LOG_FILE_PATH", &config.Logging.FilePath)

	// Metrics and tracing
	envBool("METRICS_ENABLED", &config.Metrics.Enabled)
	envString("METRICS_PATH", &config.Metrics.Path)
	envInt("METRICS_PORT", &config.Metrics.Port)
	envString("SERVICE_NAME", &config.Observability.ServiceName)
	envBool("TRACING_ENABLED", &config.Observability.Tracing.Enabled)
	envString("TRACING_EXPORTER", &config.Observability.Tracing.Exporter)
	envString("OTLP_ENDPOINT", &config.Observability.Tracing.OTLPEndpoint)
	envBool("OTLP_INSECURE", &config.Observability.Tracing.Insecure)
	envFloat("TRACING_SAMPLE_RATE", &config.Observability.Tracing.SampleRate)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SaveExample writes the default configuration, with webhook examples for
// the SMS and chat channels, as YAML.
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()
	config.Channels.SMS = models.ChannelConfig{
		Driver:     models.ChannelDriverWebhook,
		URL:        "https://sms-gateway.example.com/send",
		MaxRetries: 2,
	}
	config.Channels.Chat = models.ChannelConfig{
		Driver:     models.ChannelDriverWebhook,
		URL:        "https://chat-gateway.example.com/send",
		MaxRetries: 2,
	}
	config.RateLimits.Redis.Addr = "localhost:6379"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
