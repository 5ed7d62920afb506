package providers

import (
	"context"

	"guardian-service/internal/config"
	"guardian-service/pkg/sms"
)

// SMSSender delivers dispatch messages over Twilio SMS.
type SMSSender struct {
	client *sms.Client
}

func NewSMSSender(cfg config.Config) *SMSSender {
	return &SMSSender{
		client: sms.New(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber),
	}
}

func (s *SMSSender) Send(_ context.Context, target, body string) error {
	return s.client.Send(target, body)
}
