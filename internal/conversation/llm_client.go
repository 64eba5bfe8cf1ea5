package conversation

import (
	"context"
	"errors"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// Sampling parameters used for every hosted completion.
const (
	DefaultTemperature float32 = 0.7
	DefaultTopP        float32 = 0.95
	DefaultTopK        int32   = 40
)

// ErrEmptyCompletion is returned when a backend answers without text.
var ErrEmptyCompletion = errors.New("conversation: backend returned empty text")

// ChatMessage is an internal message representation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
	TopK        int32
}

type LLMResponse struct {
	Text       string
	Backend    string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// lastUserMessage returns the content of the final user turn.
func lastUserMessage(msgs []ChatMessage) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == ChatRoleUser {
			return msgs[i].Content, true
		}
	}
	return "", false
}
