package channel

import (
	"context"
	"log/slog"

	"activitynotifier/internal/models"
)

// LogSender writes each delivery to the structured log instead of a real
// provider. It is the default driver for local development.
type LogSender struct {
	channel models.Channel
	logger  *slog.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(ch models.Channel, logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{
		channel: ch,
		logger:  logger.With("component", "log_sender", "channel", string(ch)),
	}
}

// Name implements Sender.
func (s *LogSender) Name() string { return string(s.channel) }

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, destination, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Notification delivered",
		"destination", destination,
		"subject", subject,
		"body", body,
	)
	sendTotal.WithLabelValues(string(s.channel), "success").Inc()
	return nil
}
