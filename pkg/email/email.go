package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Client sends plain-text mail over SMTP. A nil Client (missing settings)
// fails every send with a configuration error.
type Client struct {
	server   string
	port     int
	username string
	password string
	fromName string
}

// New returns a Client, or nil when SMTP is not configured.
func New(server string, port int, username, password, fromName string) *Client {
	if server == "" || port == 0 || username == "" || password == "" {
		return nil
	}
	return &Client{server: server, port: port, username: username, password: password, fromName: fromName}
}

func (c *Client) Send(to, subject, body string) error {
	if c == nil {
		return fmt.Errorf("SMTP not configured: set SMTP_SERVER, SMTP_PORT, SMTP_USERNAME and SMTP_PASSWORD")
	}
	if !strings.Contains(to, "@") {
		return fmt.Errorf("invalid email address: %s", to)
	}

	from := c.username
	if c.fromName != "" {
		from = fmt.Sprintf("%s <%s>", c.fromName, c.username)
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, to, subject, body))
	auth := smtp.PlainAuth("", c.username, c.password, c.server)
	addr := fmt.Sprintf("%s:%d", c.server, c.port)
	if err := smtp.SendMail(addr, auth, c.username, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
