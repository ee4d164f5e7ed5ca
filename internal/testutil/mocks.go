package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"tutor-app/internal/app"
	"tutor-app/internal/config"
	"tutor-app/internal/repository/db"
	"tutor-app/internal/service/llm"
)

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	// User mocks
	GetUserFunc           func(ctx context.Context, id int64) (*db.User, error)
	GetUserByUsernameFunc func(ctx context.Context, username string) (*db.User, error)
	CreateUserFunc        func(ctx context.Context, username, passwordHash string) (*db.User, error)

	// Message mocks
	AppendMessageFunc func(ctx context.Context, userID *int64, role db.Role, content string) (*db.Message, error)
	ListMessagesFunc  func(ctx context.Context, userID *int64, limit int) ([]db.Message, error)

	// Settings mocks
	GetSettingsFunc    func(ctx context.Context, userID int64) (*db.Settings, error)
	UpsertSettingsFunc func(ctx context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error)
}

// User methods
func (m *MockDatabase) GetUser(ctx context.Context, id int64) (*db.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	if m.GetUserByUsernameFunc != nil {
		return m.GetUserByUsernameFunc(ctx, username)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) CreateUser(ctx context.Context, username, passwordHash string) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, username, passwordHash)
	}
	return nil, errors.New("not implemented")
}

// Message methods
func (m *MockDatabase) AppendMessage(ctx context.Context, userID *int64, role db.Role, content string) (*db.Message, error) {
	if m.AppendMessageFunc != nil {
		return m.AppendMessageFunc(ctx, userID, role, content)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) ListMessages(ctx context.Context, userID *int64, limit int) ([]db.Message, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, userID, limit)
	}
	return nil, errors.New("not implemented")
}

// Settings methods
func (m *MockDatabase) GetSettings(ctx context.Context, userID int64) (*db.Settings, error) {
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx, userID)
	}
	return nil, db.ErrNotFound
}

func (m *MockDatabase) UpsertSettings(ctx context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error) {
	if m.UpsertSettingsFunc != nil {
		return m.UpsertSettingsFunc(ctx, userID, update)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) Close() error {
	return nil
}

// MockProvider is a mock implementation of llm.Provider for testing.
// Every session it starts shares SendMessageFunc and records what was sent.
type MockProvider struct {
	SendMessageFunc     func(ctx context.Context, history []llm.Message, text string) (string, error)
	GetDefaultModelFunc func() string

	mu       sync.Mutex
	Sessions []*MockSession
}

// StartChat implements llm.Provider
func (m *MockProvider) StartChat(history []llm.Message, opts llm.ChatOptions) llm.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := make([]llm.Message, len(history))
	copy(h, history)
	s := &MockSession{provider: m, Initial: h, Options: opts, history: h}
	m.Sessions = append(m.Sessions, s)
	return s
}

func (m *MockProvider) GetDefaultModel() string {
	if m.GetDefaultModelFunc != nil {
		return m.GetDefaultModelFunc()
	}
	return "default-model"
}

// SentTexts returns every text sent across all sessions, in order
func (m *MockProvider) SentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.Sessions {
		out = append(out, s.Sent...)
	}
	return out
}

// MockSession records the texts sent to it
type MockSession struct {
	provider *MockProvider
	Initial  []llm.Message
	Options  llm.ChatOptions
	Sent     []string
	history  []llm.Message
}

func (s *MockSession) SendMessage(ctx context.Context, text string) (string, error) {
	s.provider.mu.Lock()
	s.Sent = append(s.Sent, text)
	s.provider.mu.Unlock()

	if s.provider.SendMessageFunc == nil {
		return "", errors.New("not implemented")
	}
	reply, err := s.provider.SendMessageFunc(ctx, s.History(), text)
	if err != nil {
		return "", err
	}
	s.history = append(s.history, llm.Message{Role: llm.RoleUser, Content: text}, llm.Message{Role: llm.RoleAssistant, Content: reply})
	return reply, nil
}

func (s *MockSession) History() []llm.Message {
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// NewMockConfig creates a mock app.Config for testing
func NewMockConfig(database db.Database, provider llm.Provider) *app.Config {
	return app.NewConfig(database, provider, &config.AppConfig{
		LLM: config.LLMConfig{
			Provider:        config.ProviderOpenAI,
			APIKey:          "test-api-key",
			Model:           "gemini-2.0-flash",
			MaxOutputTokens: 1000,
			Timeout:         time.Second,
		},
		Auth: config.AuthConfig{
			TokenExpiration: time.Hour,
			DefaultUsername: "demo",
			DefaultPassword: "demo123",
		},
		Models: config.DefaultModelsConfig(),
	})
}
