// Package mailer sends transactional email through SendGrid, with a console
// fallback for development environments without an API key.
package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	ToName   string
	ToEmail  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers messages. Implementations make a single attempt; callers
// treat failures as best-effort side effects and never retry inline.
type Mailer interface {
	Send(ctx context.Context, message Message) error
}
