package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"
)

// Telegram allows ~30 messages per second per bot; stay well under that.
var limiter = rate.NewLimiter(rate.Limit(10), 10)

// Notifier pushes plain-text messages to a fixed chat, typically a
// monitoring-room group.
type Notifier struct {
	bot    *bot.Bot
	chatID int64
}

// New returns a Notifier, or nil when the bot is not configured.
func New(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Notifier{bot: b, chatID: chatID}, nil
}

func (n *Notifier) Send(ctx context.Context, message string) error {
	if n == nil {
		return fmt.Errorf("telegram not configured")
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit: %w", err)
	}
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   message,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message to chat %d: %w", n.chatID, err)
	}
	return nil
}
