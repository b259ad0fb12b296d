package mail

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"automation-platform/api/services/workflow"
)

// LogSender writes messages to the log instead of delivering them. It is
// used when no mail provider is configured.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender writing to logger.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg workflow.MailMessage) (workflow.MailReceipt, error) {
	id := uuid.New().String()
	s.logger.Info().
		Str("message_id", id).
		Str("from", msg.From).
		Str("recipient", msg.Recipient).
		Str("subject", msg.Subject).
		Bool("html", msg.HTML).
		Int("content_length", len(msg.Content)).
		Msg("Email delivery simulated")
	return workflow.MailReceipt{MessageID: id}, nil
}
