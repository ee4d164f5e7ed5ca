package llm

import (
	"context"
	"errors"
)

// Chat roles as sent to the model
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when the model replies with no text
var ErrEmptyResponse = errors.New("model returned an empty response")

// Message is one turn of a chat history
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions configures a chat session
type ChatOptions struct {
	// Model overrides the provider default when set
	Model string
	// MaxOutputTokens bounds each reply; zero leaves it to the provider
	MaxOutputTokens int
}

// Provider defines the interface for LLM providers (OpenAI-compatible API, Genkit)
type Provider interface {
	// StartChat opens a session seeded with history
	StartChat(history []Message, opts ChatOptions) ChatSession

	// GetDefaultModel returns the default model for this provider
	GetDefaultModel() string
}

// ChatSession is a stateful conversation with the model
type ChatSession interface {
	// SendMessage sends text and returns the model's reply. On success both
	// turns are appended to the history; on failure the history is unchanged.
	SendMessage(ctx context.Context, text string) (string, error)

	// History returns a copy of the turns exchanged so far
	History() []Message
}
