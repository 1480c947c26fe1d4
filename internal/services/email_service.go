package services

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

var errEmailNotConfigured = errors.New("email transport is not configured")

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) *EmailService {
	s := &EmailService{
		fromEmail: fromEmail,
		fromName:  fromName,
	}
	if apiKey != "" {
		s.client = sendgrid.NewSendClient(apiKey)
	}
	return s
}

// SendEmail sends body as both plain text and minimal HTML.
func (s *EmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	if s.client == nil || s.fromEmail == "" {
		return errEmailNotConfigured
	}
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)
	htmlContent := fmt.Sprintf("<p>%s</p>", html.EscapeString(body))

	message := mail.NewSingleEmail(from, subject, recipient, body, htmlContent)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d", to, response.StatusCode)
	}
	return nil
}
