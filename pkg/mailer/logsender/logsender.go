// Package logsender provides a mailer.Sender that logs messages instead of delivering them.
package logsender

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
)

// Sender logs every message and reports success with a fake message ID.
type Sender struct {
	logger *slog.Logger
}

// New creates a log-only sender. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

// Name returns the provider name.
func (s *Sender) Name() string {
	return "log"
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, msg mailer.Message) (mailer.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return mailer.SendResult{}, err
	}
	id := "log-" + uuid.New().String()
	s.logger.InfoContext(ctx, "email logged (not sent)",
		"provider", "log",
		"from", msg.From,
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"format", string(msg.Format),
		"body_length", len(msg.Body),
		"message_id", id,
	)
	s.logger.DebugContext(ctx, "email body", "message_id", id, "body", msg.Body)
	return mailer.SendResult{MessageID: id}, nil
}
