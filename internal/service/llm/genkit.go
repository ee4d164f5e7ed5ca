package llm

import (
	"context"
	"fmt"
	"strings"

	"tutor-app/internal/config"
	"tutor-app/internal/logger"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

const genkitProviderName = "gemini"

// GenkitProvider implements Provider using Firebase Genkit via compat_oai
type GenkitProvider struct {
	genkit *genkit.Genkit
	model  string
}

// NewGenkitProvider creates a new Genkit provider instance
func NewGenkitProvider(llmConfig *config.LLMConfig) (*GenkitProvider, error) {
	if llmConfig.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}

	ctx := context.Background()
	g := genkit.Init(ctx,
		genkit.WithPlugins(&compat_oai.OpenAICompatible{
			Provider: genkitProviderName,
			APIKey:   llmConfig.APIKey,
			BaseURL:  llmConfig.BaseURL,
		}),
		genkit.WithDefaultModel(qualifiedModel(llmConfig.Model)),
	)

	logger.Log.WithField("default_model", llmConfig.Model).Info("Initialized Genkit provider")

	return &GenkitProvider{genkit: g, model: llmConfig.Model}, nil
}

// StartChat implements Provider
func (p *GenkitProvider) StartChat(history []Message, opts ChatOptions) ChatSession {
	return newHistorySession(history, opts, p.complete)
}

// GetDefaultModel returns the configured model
func (p *GenkitProvider) GetDefaultModel() string {
	return p.model
}

func (p *GenkitProvider) complete(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}
	model = qualifiedModel(model)

	logger.Log.WithFields(logrus.Fields{
		"model":         model,
		"message_count": len(messages),
	}).Info("Calling Genkit")

	// Build config using OpenAI ChatCompletionNewParams
	cfg := &openai.ChatCompletionNewParams{}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxTokens = openai.Int(int64(opts.MaxOutputTokens))
	}

	resp, err := genkit.Generate(ctx, p.genkit,
		ai.WithMessages(toGenkitMessages(messages)...),
		ai.WithModelName(model),
		ai.WithConfig(cfg),
	)
	if err != nil {
		return "", fmt.Errorf("genkit generation failed: %w", err)
	}

	if resp.Usage != nil {
		logger.Log.WithFields(logrus.Fields{
			"prompt_tokens":     resp.Usage.InputTokens,
			"completion_tokens": resp.Usage.OutputTokens,
		}).Debug("Genkit generation finished")
	}

	return resp.Text(), nil
}

func qualifiedModel(model string) string {
	if strings.HasPrefix(model, genkitProviderName+"/") {
		return model
	}
	return genkitProviderName + "/" + model
}

func toGenkitMessages(messages []Message) []*ai.Message {
	out := make([]*ai.Message, 0, len(messages))
	for _, msg := range messages {
		role := ai.RoleUser
		switch msg.Role {
		case RoleSystem:
			role = ai.RoleSystem
		case RoleAssistant:
			role = ai.RoleModel
		}
		out = append(out, &ai.Message{
			Role:    role,
			Content: []*ai.Part{ai.NewTextPart(msg.Content)},
		})
	}
	return out
}
