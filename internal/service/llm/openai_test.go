package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutor-app/internal/config"
	"tutor-app/internal/logger"
)

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

func newTestServer(t *testing.T, reply string, status int, got *completionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   "gemini-2.0-flash",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
			"usage":   map[string]int{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, baseURL string) *OpenAIProvider {
	t.Helper()
	logger.Silence()
	p, err := NewOpenAIProvider(&config.LLMConfig{APIKey: "test-key", BaseURL: baseURL, Model: "gemini-2.0-flash"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}
	return p
}

func TestOpenAIProvider_SendMessage(t *testing.T) {
	var got completionRequest
	srv := newTestServer(t, "Hello! Hallo!", http.StatusOK, &got)
	p := newTestProvider(t, srv.URL)

	session := p.StartChat([]Message{{Role: RoleUser, Content: "prompt"}, {Role: RoleAssistant, Content: "ok"}}, ChatOptions{MaxOutputTokens: 1000})
	reply, err := session.SendMessage(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if reply != "Hello! Hallo!" {
		t.Errorf("SendMessage() = %q", reply)
	}
	if got.Model != "gemini-2.0-flash" {
		t.Errorf("request model = %s", got.Model)
	}
	if got.MaxTokens != 1000 {
		t.Errorf("request max_tokens = %d, want 1000", got.MaxTokens)
	}
	if len(got.Messages) != 3 || got.Messages[2].Content != "Hi" {
		t.Errorf("request messages = %+v", got.Messages)
	}
}

func TestOpenAIProvider_ModelOverride(t *testing.T) {
	var got completionRequest
	srv := newTestServer(t, "ok", http.StatusOK, &got)
	p := newTestProvider(t, srv.URL)

	if _, err := p.StartChat(nil, ChatOptions{Model: "learnlm-2.0-flash-experimental"}).SendMessage(context.Background(), "Hi"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if got.Model != "learnlm-2.0-flash-experimental" {
		t.Errorf("request model = %s", got.Model)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv := newTestServer(t, "", http.StatusTooManyRequests, nil)
		session := newTestProvider(t, srv.URL).StartChat(nil, ChatOptions{})
		if _, err := session.SendMessage(context.Background(), "Hi"); err == nil {
			t.Error("SendMessage() error = nil, want error")
		}
		if len(session.History()) != 0 {
			t.Error("History() not empty after failure")
		}
	})

	t.Run("empty reply", func(t *testing.T) {
		srv := newTestServer(t, "", http.StatusOK, nil)
		session := newTestProvider(t, srv.URL).StartChat(nil, ChatOptions{})
		if _, err := session.SendMessage(context.Background(), "Hi"); err != ErrEmptyResponse {
			t.Errorf("SendMessage() error = %v, want ErrEmptyResponse", err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, err := NewOpenAIProvider(&config.LLMConfig{}); err == nil {
			t.Error("NewOpenAIProvider() error = nil, want error")
		}
	})
}

func TestNewProvider_UnknownType(t *testing.T) {
	if _, err := NewProvider(&config.LLMConfig{Provider: "yandex", APIKey: "k"}); err == nil {
		t.Error("NewProvider() error = nil, want error")
	}
}

func TestToGenkitMessages_MapsRoles(t *testing.T) {
	msgs := toGenkitMessages([]Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleAssistant, Content: "a"},
	})
	want := []string{"system", "user", "model"}
	for i, m := range msgs {
		if string(m.Role) != want[i] {
			t.Errorf("msgs[%d].Role = %s, want %s", i, m.Role, want[i])
		}
		if m.Text() == "" {
			t.Errorf("msgs[%d] has no text", i)
		}
	}
	if got := qualifiedModel("gemini/gemini-2.0-flash"); got != "gemini/gemini-2.0-flash" {
		t.Errorf("qualifiedModel() = %s", got)
	}
	if got := qualifiedModel("gemini-2.0-flash"); got != "gemini/gemini-2.0-flash" {
		t.Errorf("qualifiedModel() = %s", got)
	}
}
