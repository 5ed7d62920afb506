package emergency

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"guardian-service/internal/config"
	"guardian-service/internal/models"
)

const fallbackMessage = "Guardian SOS: Distress signal initiated. Assistance required."

// chatClient is the slice of the OpenAI client the composer needs.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// MessageComposer turns session context into a human-readable distress
// message. The text-generation collaborator is optional; any failure falls
// back to a static template so composition can never block dispatch.
type MessageComposer struct {
	client chatClient
	model  string
	logger *logrus.Logger
}

func NewMessageComposer(cfg config.Config, logger *logrus.Logger) *MessageComposer {
	c := &MessageComposer{model: cfg.Composer.Model, logger: logger}
	if cfg.Composer.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.Composer.APIKey)
		if cfg.Composer.BaseURL != "" {
			clientCfg.BaseURL = cfg.Composer.BaseURL
		}
		c.client = openai.NewClientWithConfig(clientCfg)
	}
	return c
}

// Compose never fails: it returns generated text when the collaborator is
// available and a template embedding whatever is known otherwise.
func (c *MessageComposer) Compose(ctx context.Context, displayName string, loc *models.LocationSnapshot, reason string) string {
	if c.client == nil || loc == nil {
		return c.fallback(loc, reason)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	prompt := buildPrompt(displayName, loc, reason)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write concise SMS-length distress messages for a personal-safety service. Output only the message text.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Errorf("Message generation failed, using fallback: %v", err)
		return c.fallback(loc, reason)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return c.fallback(loc, reason)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func (c *MessageComposer) fallback(loc *models.LocationSnapshot, reason string) string {
	msg := fallbackMessage
	if reason != "" {
		msg = fmt.Sprintf("%s Reason: %s.", msg, reason)
	}
	if loc != nil {
		msg = fmt.Sprintf("%s Last known position: https://maps.google.com/?q=%.6f,%.6f (accuracy %.0fm).",
			msg, loc.Latitude, loc.Longitude, loc.Accuracy)
	}
	return msg
}

func buildPrompt(displayName string, loc *models.LocationSnapshot, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compose an urgent SOS message for %s.\n", displayName)
	fmt.Fprintf(&b, "Position: %.6f,%.6f (accuracy %.0fm). Include a maps link https://maps.google.com/?q=%.6f,%.6f\n",
		loc.Latitude, loc.Longitude, loc.Accuracy, loc.Latitude, loc.Longitude)
	if loc.BatteryLevel != nil {
		fmt.Fprintf(&b, "Device battery: %.0f%%\n", *loc.BatteryLevel*100)
	}
	if loc.NetworkType != "" {
		fmt.Fprintf(&b, "Network: %s\n", loc.NetworkType)
	}
	if reason != "" {
		fmt.Fprintf(&b, "Trigger reason: %s\n", reason)
	}
	b.WriteString("Keep it under 300 characters. State that immediate assistance is required.")
	return b.String()
}
