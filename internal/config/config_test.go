package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"activitynotifier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, models.StorageTypeMemory, config.Storage.Type)
	assert.Equal(t, models.RateLimitBackendMemory, config.RateLimits.Backend)
	assert.Equal(t, 50, config.RateLimits.Activity.MaxRequests)
	assert.Equal(t, time.Hour, config.RateLimits.Activity.Window)
	assert.Equal(t, 10, config.RateLimits.Email.MaxRequests)
	assert.Equal(t, 5, config.RateLimits.SMS.MaxRequests)
	assert.Equal(t, 5, config.RateLimits.Chat.MaxRequests)
	assert.Equal(t, models.ChannelDriverLog, config.Channels.Email.Driver)
	assert.Equal(t, 10*time.Second, config.Channels.Timeout)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  host: "127.0.0.1"
  read_timeout: 15s

storage:
  type: "json"
  path: "./data/profiles.json"

rate_limits:
  backend: redis
  redis:
    addr: "localhost:6379"
    key_prefix: "test:rl"
  activity:
    max_requests: 3
    window: 1m
    message: "Slow down."
  email:
    max_requests: 2
    window: 30s
  sms:
    max_requests: 1
    window: 30s
  chat:
    max_requests: 1
    window: 30s

channels:
  timeout: 2s
  sms:
    driver: webhook
    url: "https://sms.example.com/send"
    auth_token: "secret"
    max_retries: 1

logging:
  level: "debug"
  format: "text"
  output: "stdout"
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 15*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, config.Server.WriteTimeout, "unset keys keep defaults")

	assert.Equal(t, models.StorageTypeJSON, config.Storage.Type)

	assert.Equal(t, models.RateLimitBackendRedis, config.RateLimits.Backend)
	assert.Equal(t, "test:rl", config.RateLimits.Redis.KeyPrefix)
	assert.Equal(t, 3, config.RateLimits.Activity.MaxRequests)
	assert.Equal(t, time.Minute, config.RateLimits.Activity.Window)
	assert.Equal(t, "Slow down.", config.RateLimits.Activity.Message)

	assert.Equal(t, 2*time.Second, config.Channels.Timeout)
	assert.Equal(t, models.ChannelDriverWebhook, config.Channels.SMS.Driver)
	assert.Equal(t, "secret", config.Channels.SMS.AuthToken)
	assert.Equal(t, models.ChannelDriverLog, config.Channels.Email.Driver)

	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
}

func TestLoad_LegacyKeysIgnored(t *testing.T) {
	path := writeConfig(t, `
channels:
  whatsapp:
    driver: webhook
`)
	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelDriverLog, config.Channels.Chat.Driver)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"invalid yaml", "server: [port", "failed to parse YAML config"},
		{"bad storage type", "storage:\n  type: mongo\n", "invalid storage type"},
		{"redis without addr", "rate_limits:\n  backend: redis\n", "redis address is required"},
		{"zero activity limit", "rate_limits:\n  activity:\n    max_requests: 0\n", "activity: max requests must be positive"},
		{"webhook without url", "channels:\n  chat:\n    driver: webhook\n", "url is required"},
		{"unknown driver", "channels:\n  email:\n    driver: carrier-pigeon\n", "invalid channel driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("NOTIFIER_PORT", "9191")
	t.Setenv("NOTIFIER_HOST", "localhost")
	t.Setenv("NOTIFIER_STORAGE_TYPE", "sqlite")
	t.Setenv("NOTIFIER_DATABASE_DSN", "file:test.db")
	t.Setenv("NOTIFIER_RATE_LIMIT_BACKEND", "redis")
	t.Setenv("NOTIFIER_REDIS_ADDR", "redis:6379")
	t.Setenv("NOTIFIER_ACTIVITY_LIMIT_MAX", "7")
	t.Setenv("NOTIFIER_ACTIVITY_LIMIT_WINDOW", "90s")
	t.Setenv("NOTIFIER_SMS_LIMIT_MESSAGE", "No more texts.")
	t.Setenv("NOTIFIER_CHAT_DRIVER", "webhook")
	t.Setenv("NOTIFIER_CHAT_WEBHOOK_URL", "https://chat.example.com/hook")
	t.Setenv("NOTIFIER_CHANNEL_TIMEOUT", "3s")
	t.Setenv("NOTIFIER_LOG_LEVEL", "warn")
	t.Setenv("NOTIFIER_METRICS_ENABLED", "false")
	t.Setenv("NOTIFIER_TRACING_SAMPLE_RATE", "0.1")
	t.Setenv("NOTIFIER_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9191, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, models.StorageTypeSQLite, config.Storage.Type)
	assert.Equal(t, "file:test.db", config.Storage.Database.DSN)
	assert.Equal(t, "redis:6379", config.RateLimits.Redis.Addr)
	assert.Equal(t, 7, config.RateLimits.Activity.MaxRequests)
	assert.Equal(t, 90*time.Second, config.RateLimits.Activity.Window)
	assert.Equal(t, "No more texts.", config.RateLimits.SMS.Message)
	assert.Equal(t, models.ChannelDriverWebhook, config.Channels.Chat.Driver)
	assert.Equal(t, "https://chat.example.com/hook", config.Channels.Chat.URL)
	assert.Equal(t, 3*time.Second, config.Channels.Timeout)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.False(t, config.Metrics.Enabled)
	assert.InDelta(t, 0.1, config.Observability.Tracing.SampleRate, 1e-9)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, config.Server.CORS.AllowedOrigins)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 7000\n")
	t.Setenv("NOTIFIER_PORT", "7001")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, config.Server.Port)
}

func TestLoad_MalformedEnvironmentIgnored(t *testing.T) {
	t.Setenv("NOTIFIER_PORT", "not-a-number")
	t.Setenv("NOTIFIER_CHANNEL_TIMEOUT", "soon")

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 10*time.Second, config.Channels.Timeout)
}

func TestSaveExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.example.yaml")
	require.NoError(t, SaveExample(path))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelDriverWebhook, config.Channels.SMS.Driver)
	assert.Equal(t, "https://sms-gateway.example.com/send", config.Channels.SMS.URL)
	assert.Equal(t, models.ChannelDriverLog, config.Channels.Email.Driver)
	assert.Equal(t, time.Hour, config.RateLimits.Activity.Window)
}
