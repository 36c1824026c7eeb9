package llm

import (
	"context"
	"fmt"
)

// TextGenerator issues a single prompt and returns the first candidate text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Conversational continues a dialogue under a fixed system instruction.
type Conversational interface {
	Converse(ctx context.Context, system string, history []Message, userMessage string) (string, error)
}

// Provider is what the LLM backed features need from a client.
type Provider interface {
	TextGenerator
	Conversational
	Name() string
}

// UpstreamError is an HTTP level failure reported by the provider.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.Status, e.Message)
}

// InvalidResponseError means the provider answered but without candidate text.
type InvalidResponseError struct {
	Provider string
	Raw      string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid %s response: %s", e.Provider, e.Raw)
}
