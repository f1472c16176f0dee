// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is one outbound email. When TemplateID is set the provider renders
// the body from TemplateData; otherwise TextBody and HTMLBody are sent as is.
type Message struct {
	ToEmail string
	ToName  string
	Subject string

	TemplateID   string
	TemplateData map[string]any

	TextBody string
	HTMLBody string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *zap.Logger
}

// NewSendGrid returns a Mailer bound to apiKey and a fixed sender.
func NewSendGrid(apiKey, fromEmail, fromName string, logger *zap.Logger) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		log:    logger,
	}
}

func (s *SendGridMailer) Send(ctx context.Context, msg Message) error {
	resp, err := s.client.SendWithContext(ctx, buildV3(s.from, msg))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	s.log.Debug("email sent",
		zap.String("to", msg.ToEmail),
		zap.Int("status", resp.StatusCode))
	return nil
}

// buildV3 maps msg onto a SendGrid v3 payload.
func buildV3(from *mail.Email, msg Message) *mail.SGMailV3 {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)

	if msg.TemplateID == "" {
		return mail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)
	}

	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.SetTemplateID(msg.TemplateID)

	p := mail.NewPersonalization()
	p.AddTos(to)
	for k, v := range msg.TemplateData {
		p.SetDynamicTemplateData(k, v)
	}
	m.AddPersonalizations(p)
	return m
}

// LogMailer logs messages instead of sending them. It is used when no
// provider key is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{log: logger}
}

func (l *LogMailer) Send(_ context.Context, msg Message) error {
	l.log.Info("email not sent (no provider configured)",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("template_id", msg.TemplateID),
		zap.Any("template_data", msg.TemplateData))
	return nil
}
