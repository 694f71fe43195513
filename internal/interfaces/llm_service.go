package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation.
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the contract for the external reasoning capability.
// Implementations wrap cloud chat-completion APIs (Anthropic, Gemini).
// Callers treat responses as free-form prose that may embed a JSON value;
// extraction and validation happen at the call site, never here.
type LLMService interface {
	// Chat generates a completion for the given conversation history.
	// The messages slice should contain the full context in chronological
	// order, including any system prompt.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service is operational.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the underlying client.
	Close() error
}
