package llm

import (
	"context"
	"fmt"

	"tutor-app/internal/config"
	"tutor-app/internal/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider implements Provider against any OpenAI-compatible endpoint.
// The default base URL is Gemini's OpenAI-compatible API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new provider from config
func NewOpenAIProvider(llmConfig *config.LLMConfig) (*OpenAIProvider, error) {
	if llmConfig.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}

	clientConfig := openai.DefaultConfig(llmConfig.APIKey)
	if llmConfig.BaseURL != "" {
		clientConfig.BaseURL = llmConfig.BaseURL
	}

	logger.Log.WithFields(logrus.Fields{
		"base_url":      clientConfig.BaseURL,
		"default_model": llmConfig.Model,
	}).Info("Initialized OpenAI-compatible provider")

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  llmConfig.Model,
	}, nil
}

// StartChat implements Provider
func (p *OpenAIProvider) StartChat(history []Message, opts ChatOptions) ChatSession {
	return newHistorySession(history, opts, p.complete)
}

// GetDefaultModel returns the configured model
func (p *OpenAIProvider) GetDefaultModel() string {
	return p.model
}

func (p *OpenAIProvider) complete(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	logger.Log.WithFields(logrus.Fields{
		"model":         model,
		"message_count": len(messages),
	}).Info("Calling OpenAI-compatible API")

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: oaMsgs,
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	logger.Log.WithFields(logrus.Fields{
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Debug("Chat completion finished")

	return resp.Choices[0].Message.Content, nil
}
