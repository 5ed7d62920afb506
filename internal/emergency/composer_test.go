package emergency

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"guardian-service/internal/models"
)

type stubChat struct {
	reply string
	err   error
}

func (s stubChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.reply}},
		},
	}, nil
}

func testLocation() *models.LocationSnapshot {
	return &models.LocationSnapshot{Latitude: 52.520008, Longitude: 13.404954, Accuracy: 15}
}

func TestCompose_usesGeneratedText(t *testing.T) {
	c := &MessageComposer{client: stubChat{reply: "  Alice needs help at Alexanderplatz.  "}, model: "test", logger: testLogger()}

	msg := c.Compose(context.Background(), "Alice", testLocation(), "fall detected")
	assert.Equal(t, "Alice needs help at Alexanderplatz.", msg)
}

func TestCompose_fallsBackOnGenerationError(t *testing.T) {
	c := &MessageComposer{client: stubChat{err: errors.New("rate limited")}, model: "test", logger: testLogger()}

	msg := c.Compose(context.Background(), "Alice", testLocation(), "fall detected")
	assert.True(t, strings.HasPrefix(msg, fallbackMessage))
	assert.Contains(t, msg, "fall detected")
	assert.Contains(t, msg, "maps.google.com")
}

func TestCompose_fallsBackOnEmptyReply(t *testing.T) {
	c := &MessageComposer{client: stubChat{reply: "   "}, model: "test", logger: testLogger()}

	msg := c.Compose(context.Background(), "Alice", testLocation(), "")
	assert.True(t, strings.HasPrefix(msg, fallbackMessage))
}

func TestCompose_withoutClientOrLocation(t *testing.T) {
	c := &MessageComposer{logger: testLogger()}

	msg := c.Compose(context.Background(), "Alice", nil, "")
	assert.Equal(t, fallbackMessage, msg)

	// A configured client is still skipped when no position is known.
	c = &MessageComposer{client: stubChat{reply: "generated"}, model: "test", logger: testLogger()}
	msg = c.Compose(context.Background(), "Alice", nil, "manual trigger")
	assert.True(t, strings.HasPrefix(msg, fallbackMessage))
	assert.Contains(t, msg, "manual trigger")
}
