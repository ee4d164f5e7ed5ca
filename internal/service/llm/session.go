package llm

import (
	"context"
	"strings"
	"sync"
)

// completeFunc performs one completion over the full message list
type completeFunc func(ctx context.Context, messages []Message, opts ChatOptions) (string, error)

// historySession keeps the rolling history shared by both providers
type historySession struct {
	mu       sync.Mutex
	history  []Message
	opts     ChatOptions
	complete completeFunc
}

func newHistorySession(history []Message, opts ChatOptions, complete completeFunc) *historySession {
	h := make([]Message, len(history))
	copy(h, history)
	return &historySession{history: h, opts: opts, complete: complete}
}

// SendMessage implements ChatSession
func (s *historySession) SendMessage(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]Message, 0, len(s.history)+1)
	messages = append(messages, s.history...)
	messages = append(messages, Message{Role: RoleUser, Content: text})

	reply, err := s.complete(ctx, messages, s.opts)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyResponse
	}

	s.history = append(messages, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// History implements ChatSession
func (s *historySession) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}
