package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"activitynotifier/internal/models"
	"activitynotifier/internal/version"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	defaultBackoff        = time.Second
	envelopeType          = "notifier.activity.notification"
)

// WebhookEnvelope is the JSON payload POSTed to the provider gateway.
type WebhookEnvelope struct {
	// Type identifies the notification kind.
	Type string `json:"type"`
	// SchemaVersion allows consumers to detect breaking changes.
	SchemaVersion string `json:"schemaVersion"`
	// Timestamp is the RFC3339 time the notification was sent.
	Timestamp   string `json:"timestamp"`
	Channel     string `json:"channel"`
	Destination string `json:"destination"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// WebhookSenderConfig holds the configuration for creating a WebhookSender.
type WebhookSenderConfig struct {
	Channel    models.Channel
	URL        string
	AuthToken  string
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the base of the linear retry delay (attempt * Backoff).
	// Zero means one second.
	Backoff time.Duration
}

// WebhookSender delivers notifications through an HTTP gateway that fronts
// the real email, SMS or chat provider. Sends are synchronous so that the
// dispatcher can record a per-channel outcome.
type WebhookSender struct {
	httpClient *http.Client
	logger     *slog.Logger
	channel    models.Channel
	url        string
	authToken  string
	maxRetries int
	backoff    time.Duration
}

var _ Sender = (*WebhookSender)(nil)

// NewWebhookSender creates a WebhookSender. Returns an error if the URL is invalid.
func NewWebhookSender(logger *slog.Logger, cfg WebhookSenderConfig) (*WebhookSender, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook URL must use http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("webhook URL must include a host")
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &WebhookSender{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		logger:     logger.With("component", "webhook_sender", "channel", string(cfg.Channel)),
		channel:    cfg.Channel,
		url:        cfg.URL,
		authToken:  cfg.AuthToken,
		maxRetries: retries,
		backoff:    backoff,
	}, nil
}

// Name implements Sender.
func (ws *WebhookSender) Name() string { return string(ws.channel) }

// Send implements Sender. It posts the envelope, retrying transient failures
// with linear backoff until ctx expires or retries are exhausted.
func (ws *WebhookSender) Send(ctx context.Context, destination, subject, body string) error {
	payload, err := json.Marshal(WebhookEnvelope{
		Type:          envelopeType,
		SchemaVersion: "1",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Channel:       string(ws.channel),
		Destination:   destination,
		Subject:       subject,
		Body:          body,
	})
	if err != nil {
		sendTotal.WithLabelValues(string(ws.channel), "error").Inc()
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := range ws.maxRetries + 1 {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * ws.backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				sendTotal.WithLabelValues(string(ws.channel), "error").Inc()
				return fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
			}
			sendTotal.WithLabelValues(string(ws.channel), "retry").Inc()
		}

		lastErr = ws.doPost(ctx, payload)
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) || ctx.Err() != nil {
			sendTotal.WithLabelValues(string(ws.channel), "error").Inc()
			return lastErr
		}

		ws.logger.DebugContext(ctx, "Webhook send transient failure, will retry",
			"attempt", attempt+1,
			"error", lastErr,
		)
	}

	sendTotal.WithLabelValues(string(ws.channel), "error").Inc()
	return fmt.Errorf("webhook send failed after %d attempts: %w", ws.maxRetries+1, lastErr)
}

// doPost executes a single HTTP POST request.
func (ws *WebhookSender) doPost(ctx context.Context, body []byte) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if ws.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+ws.authToken)
	}

	resp, err := ws.httpClient.Do(req)
	duration := time.Since(start).Seconds()
	if err != nil {
		sendDuration.WithLabelValues(string(ws.channel), "error").Observe(duration)
		return &webhookError{err: err, retryable: true}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		sendTotal.WithLabelValues(string(ws.channel), "success").Inc()
		sendDuration.WithLabelValues(string(ws.channel), "success").Observe(duration)
		return nil
	}

	sendDuration.WithLabelValues(string(ws.channel), "error").Observe(duration)
	return &webhookError{
		err:       fmt.Errorf("webhook %s returned HTTP %d", RedactURL(ws.url), resp.StatusCode),
		retryable: resp.StatusCode >= 500,
	}
}

// webhookError wraps an error with a retryable flag.
type webhookError struct {
	err       error
	retryable bool
}

func (e *webhookError) Error() string { return e.err.Error() }
func (e *webhookError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var we *webhookError
	if errors.As(err, &we) {
		return we.retryable
	}
	return true
}

// RedactURL masks credentials in a URL for safe logging.
// It redacts userinfo passwords and query parameter values.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			q.Set(key, "REDACTED")
		}
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}
