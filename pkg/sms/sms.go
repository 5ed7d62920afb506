package sms

import (
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client sends SMS through Twilio. A nil Client (missing credentials) fails
// every send with a configuration error rather than panicking.
type Client struct {
	rest *twilio.RestClient
	from string
}

// New returns a Client, or nil when credentials are not configured.
func New(accountSID, authToken, fromNumber string) *Client {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil
	}
	return &Client{
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: fromNumber,
	}
}

func (c *Client) Send(toNumber, body string) error {
	if c == nil {
		return fmt.Errorf("twilio not configured: set TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER")
	}
	if !strings.HasPrefix(toNumber, "+") {
		return fmt.Errorf("invalid phone number: %s", toNumber)
	}

	params := &twilioApi.CreateMessageParams{
		To:   &toNumber,
		From: &c.from,
		Body: &body,
	}
	if _, err := c.rest.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", toNumber, err)
	}
	return nil
}
