package providers

import (
	"context"

	"guardian-service/internal/config"
	"guardian-service/pkg/email"
)

const sosSubject = "Guardian SOS Alert"

// EmailSender delivers dispatch messages over SMTP with a fixed SOS subject.
type EmailSender struct {
	client *email.Client
}

func NewEmailSender(cfg config.Config) *EmailSender {
	return &EmailSender{
		client: email.New(cfg.Email.SMTPServer, cfg.Email.SMTPPort, cfg.Email.Username, cfg.Email.Password, cfg.Email.FromName),
	}
}

func (s *EmailSender) Send(_ context.Context, target, body string) error {
	return s.client.Send(target, sosSubject, body)
}

// SendSubject sends mail with an explicit subject, used by the auth flows
// for verification and MFA codes.
func (s *EmailSender) SendSubject(_ context.Context, target, subject, body string) error {
	return s.client.Send(target, subject, body)
}
