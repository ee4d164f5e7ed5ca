package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tutor-app/internal/app"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"
	"tutor-app/internal/service/llm"

	"github.com/sirupsen/logrus"
)

const (
	// historyWindow is read from the store and includes the turn just saved
	historyWindow   = 6
	maxOutputTokens = 1000
	defaultTimeout  = 30 * time.Second
)

// ErrInvalidContent is returned for a missing or blank message
var ErrInvalidContent = errors.New("message content is required")

// SendMessageRequest contains all the parameters needed to send a message
type SendMessageRequest struct {
	UserID  int64
	Content string
	// Difficulty selects the system prompt. Empty means the user's saved level.
	Difficulty string
}

// SendMessageResponse carries both persisted turns
type SendMessageResponse struct {
	UserMessage      db.Message `json:"userMessage"`
	AssistantMessage db.Message `json:"assistantMessage"`
	// Fallback is set when the model failed and FallbackReply was stored
	Fallback bool `json:"-"`
}

// ChatService handles the business logic for chat operations
type ChatService struct {
	db          db.Database
	llmProvider llm.Provider
	model       string
	maxTokens   int
	timeout     time.Duration
}

// NewChatService creates a new ChatService
func NewChatService(database db.Database, config *app.Config) *ChatService {
	s := &ChatService{
		db:          database,
		llmProvider: config.LLM,
		maxTokens:   maxOutputTokens,
		timeout:     defaultTimeout,
	}
	if config.AppConfig != nil {
		s.model = config.AppConfig.LLM.Model
		if n := config.AppConfig.LLM.MaxOutputTokens; n > 0 {
			s.maxTokens = n
		}
		if t := config.AppConfig.LLM.Timeout; t > 0 {
			s.timeout = t
		}
	}
	if s.model == "" && s.llmProvider != nil {
		s.model = s.llmProvider.GetDefaultModel()
	}
	return s
}

// SendMessage stores the user's turn, asks the tutor model, and stores the
// reply. Model failures never surface: the fallback text is stored instead.
func (s *ChatService) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrInvalidContent
	}

	userID := req.UserID
	userMessage, err := s.db.AppendMessage(ctx, &userID, db.RoleUser, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	history, err := s.priorMessages(ctx, userID, userMessage.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve message history: %w", err)
	}

	level := s.difficulty(ctx, userID, req.Difficulty)

	logger.Log.WithFields(logrus.Fields{
		"user_id":       userID,
		"message_count": len(history),
		"difficulty":    level,
	}).Debug("Prepared for LLM call")

	reply, aiErr := s.ask(ctx, history, level, req.Content)
	fallback := aiErr != nil
	if fallback {
		logger.Log.WithError(aiErr).WithField("user_id", userID).Error("AI error, storing fallback reply")
		reply = FallbackReply
	}

	assistantMessage, err := s.db.AppendMessage(ctx, &userID, db.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	return &SendMessageResponse{
		UserMessage:      *userMessage,
		AssistantMessage: *assistantMessage,
		Fallback:         fallback,
	}, nil
}

// priorMessages returns up to historyWindow-1 messages older than the turn
// just saved, oldest-first
func (s *ChatService) priorMessages(ctx context.Context, userID, currentID int64) ([]llm.Message, error) {
	recent, err := s.db.ListMessages(ctx, &userID, historyWindow)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(recent))
	for _, msg := range recent {
		if msg.ID == currentID {
			continue
		}
		role := llm.RoleUser
		if msg.Role == db.RoleAssistant {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: msg.Content})
	}
	if len(history) > historyWindow-1 {
		history = history[len(history)-(historyWindow-1):]
	}
	return history, nil
}

func (s *ChatService) difficulty(ctx context.Context, userID int64, requested string) db.Difficulty {
	if requested != "" {
		return db.ParseDifficulty(requested)
	}
	settings, err := s.db.GetSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			logger.Log.WithError(err).Warn("Could not load settings, using default difficulty")
		}
		return db.DefaultDifficultyLevel
	}
	return db.ParseDifficulty(string(settings.DifficultyLevel))
}

// ask runs the priming call on a first conversation and then sends content
func (s *ChatService) ask(ctx context.Context, history []llm.Message, level db.Difficulty, content string) (string, error) {
	if s.llmProvider == nil {
		return "", errors.New("no LLM provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.llmProvider.StartChat(history, llm.ChatOptions{
		Model:           s.model,
		MaxOutputTokens: s.maxTokens,
	})

	if len(history) == 0 {
		if _, err := session.SendMessage(ctx, SystemPrompt(level)); err != nil {
			return "", fmt.Errorf("priming call failed: %w", err)
		}
	}

	reply, err := session.SendMessage(ctx, content)
	if err != nil {
		return "", fmt.Errorf("LLM error: %w", err)
	}
	return reply, nil
}
