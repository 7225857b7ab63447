package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// ConsoleMailer writes messages to the log instead of sending them. Used in
// development when no SendGrid key is configured.
type ConsoleMailer struct {
	logger zerolog.Logger
}

// NewConsole constructs a console mailer.
func NewConsole(logger zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger.With().Str("component", "console_mailer").Logger()}
}

// Send logs the message and reports success.
func (m *ConsoleMailer) Send(_ context.Context, message Message) error {
	m.logger.Info().
		Str("to", message.ToEmail).
		Str("subject", message.Subject).
		Str("body", message.TextBody).
		Msg("email (console)")
	return nil
}
