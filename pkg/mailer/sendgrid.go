package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer delivers email through the SendGrid v3 API.
type SendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     zerolog.Logger
}

// NewSendgrid constructs a SendGrid-backed mailer.
func NewSendgrid(apiKey, appName, fromEmail string, logger zerolog.Logger) (*SendgridMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key must be provided")
	}
	if fromEmail == "" {
		return nil, fmt.Errorf("sender email must be provided")
	}

	return &SendgridMailer{
		key:        apiKey,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
		logger:     logger.With().Str("component", "sendgrid_mailer").Logger(),
	}, nil
}

// Send delivers one message, returning an error for non-2xx responses.
func (m *SendgridMailer) Send(ctx context.Context, message Message) error {
	if message.ToEmail == "" {
		return fmt.Errorf("recipient email must be provided")
	}

	personalization := sgmail.NewPersonalization()
	personalization.Subject = m.subjPrefix + message.Subject
	personalization.AddTos(sgmail.NewEmail(message.ToName, message.ToEmail))

	payload := sgmail.NewV3Mail()
	payload.SetFrom(m.from)
	payload.AddPersonalizations(personalization)
	payload.AddContent(
		sgmail.NewContent("text/plain", message.TextBody),
		sgmail.NewContent("text/html", message.HTMLBody),
	)

	request := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	request.Method = http.MethodPost
	request.Body = sgmail.GetRequestBody(payload)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected message: status %d", response.StatusCode)
	}

	m.logger.Debug().Str("to", message.ToEmail).Str("subject", message.Subject).Msg("email delivered")

	return nil
}
