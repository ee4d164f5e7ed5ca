package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultHistoryLimit is used when no limit is given
	DefaultHistoryLimit = 6
	// MaxHistoryLimit caps GET /api/messages
	MaxHistoryLimit = 100
)

// ErrContentRequired is returned for a missing or blank chat message
var ErrContentRequired = errors.New("message content is required")

// ChatRequestValidator validates chat-related requests
type ChatRequestValidator struct{}

// NewChatRequestValidator creates a new ChatRequestValidator
func NewChatRequestValidator() *ChatRequestValidator {
	return &ChatRequestValidator{}
}

// ValidateMessage validates a chat message
func (v *ChatRequestValidator) ValidateMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrContentRequired
	}
	return nil
}

// ParseHistoryLimit parses the limit query parameter. Empty means the
// default; larger values are capped.
func (v *ChatRequestValidator) ParseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %d", limit)
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return limit, nil
}
