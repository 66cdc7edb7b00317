// Package channel delivers formatted notifications to users over external
// channels (email, SMS, chat).
//
// A Sender performs exactly one delivery per call and reports failure as an
// error. Rate limiting, contact lookup and fan-out belong to the caller.
package channel

import (
	"context"
	"fmt"
	"log/slog"

	"activitynotifier/internal/models"
)

// Sender is the interface for a single notification channel.
type Sender interface {
	// Name returns the channel this sender serves (e.g., "email", "sms").
	Name() string

	// Send delivers subject and body to destination, which is an email
	// address or phone number depending on the channel. Implementations
	// must honor ctx cancellation.
	Send(ctx context.Context, destination, subject, body string) error
}

// NewSenders builds one Sender per channel from configuration.
func NewSenders(cfg models.ChannelsConfig, logger *slog.Logger) (map[models.Channel]Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}

	senders := make(map[models.Channel]Sender, len(models.Channels))
	for _, ch := range models.Channels {
		chCfg := cfg.For(ch)
		switch chCfg.Driver {
		case models.ChannelDriverLog, "":
			senders[ch] = NewLogSender(ch, logger)
		case models.ChannelDriverWebhook:
			ws, err := NewWebhookSender(logger, WebhookSenderConfig{
				Channel:    ch,
				URL:        chCfg.URL,
				AuthToken:  chCfg.AuthToken,
				Timeout:    cfg.Timeout,
				MaxRetries: chCfg.MaxRetries,
			})
			if err != nil {
				return nil, fmt.Errorf("%s sender: %w", ch, err)
			}
			senders[ch] = ws
		default:
			return nil, fmt.Errorf("%s sender: unsupported driver %q", ch, chCfg.Driver)
		}
	}
	return senders, nil
}
