package utils

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/shopbot/logger"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends email through the SendGrid v3 API
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *logger.Logger
}

// NewSendGridMailer returns ErrNotConfigured when apiKey is empty
func NewSendGridMailer(apiKey, fromEmail string, log *logger.Logger) (*SendGridMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY is not set: %w", apperrors.ErrNotConfigured)
	}
	if log == nil {
		log = logger.Default
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Shopbot", fromEmail),
		log:    log,
	}, nil
}

// Send sends one message with plain text and HTML bodies
func (m *SendGridMailer) Send(ctx context.Context, toEmail, subject, textContent, htmlContent string) error {
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(m.from, subject, to, textContent, htmlContent)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		m.log.Error().Err(err).Str("to", toEmail).Msg("Error sending email")
		return err
	}

	if response.StatusCode >= 400 {
		m.log.Error().Int("status", response.StatusCode).Str("body", response.Body).Msg("SendGrid API error")
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	m.log.Info().Str("to", toEmail).Int("status", response.StatusCode).Msg("Email sent")
	return nil
}
