// Package llm provides a minimal chat-completion client for OpenAI-compatible gateways.
package llm

import "context"

// Chat roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one entry of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SamplingOptions tunes generation. A nil *SamplingOptions uses provider defaults.
type SamplingOptions struct {
	Temperature float64 `json:"temperature"`
}

// Completer issues a single chat-completion call and returns the text of the
// first choice.
type Completer interface {
	// Complete sends msgs and returns the first choice's content.
	// Non-success HTTP statuses are returned as *StatusError; an empty
	// reply is ErrNoContent.
	Complete(ctx context.Context, msgs []Message, opts *SamplingOptions) (string, error)
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
