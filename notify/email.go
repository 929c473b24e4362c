// Package notify sends transactional email for the spa: password resets
// issued by admins and booking confirmations.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender abstracts the mail provider so handlers stay testable.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one outbound email. HTML is optional; when empty the plain
// body is used for both parts.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// SendGridConfig holds the SendGrid credentials and sender identity.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender delivers email through the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridSender builds a sender, or returns nil when no API key is
// configured so callers can fall back to the stub.
func NewSendGridSender(cfg SendGridConfig) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.FromName == "" {
		cfg.FromName = "Serenity Spa"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

// StubEmailSender logs instead of sending. Used in tests and when email
// delivery is not configured.
type StubEmailSender struct{}

func NewStubEmailSender() *StubEmailSender {
	return &StubEmailSender{}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	log.Printf("email disabled, would send to=%s subject=%q", msg.To, msg.Subject)
	return nil
}

// SenderFromConfig returns a SendGrid sender when configured, the stub
// otherwise. Never returns nil.
func SenderFromConfig(cfg SendGridConfig) EmailSender {
	if s := NewSendGridSender(cfg); s != nil {
		return s
	}
	return NewStubEmailSender()
}

// PasswordResetEmail builds the message sent when an admin resets a user's
// password to a temporary one.
func PasswordResetEmail(toEmail, toName, tempPassword string) EmailMessage {
	return EmailMessage{
		To:      toEmail,
		ToName:  toName,
		Subject: "Your password has been reset",
		Body: fmt.Sprintf(
			"Hi %s,\n\nAn administrator has reset your password. Your temporary password is:\n\n%s\n\nPlease sign in and change it right away.\n",
			toName, tempPassword),
	}
}

// ErrorReportEmail builds the operator notification for a client error report.
func ErrorReportEmail(toEmail, detail string) EmailMessage {
	return EmailMessage{
		To:      toEmail,
		Subject: "Client error report",
		Body:    fmt.Sprintf("A client reported an error:\n\n%s\n", detail),
	}
}

// BookingConfirmationEmail builds the message sent after a booking is created.
func BookingConfirmationEmail(toEmail, toName, serviceName, date, timeOfDay, referenceCode string) EmailMessage {
	return EmailMessage{
		To:      toEmail,
		ToName:  toName,
		Subject: fmt.Sprintf("Booking confirmed: %s", serviceName),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour booking for %s on %s at %s is confirmed.\nReference code: %s\n\nSee you soon!\n",
			toName, serviceName, date, timeOfDay, referenceCode),
	}
}
