package llm

import (
	"fmt"

	"tutor-app/internal/config"
)

// NewProvider builds the provider selected by LLM_PROVIDER
func NewProvider(llmConfig *config.LLMConfig) (Provider, error) {
	switch llmConfig.Provider {
	case config.ProviderGenkit:
		return NewGenkitProvider(llmConfig)
	case config.ProviderOpenAI, "":
		return NewOpenAIProvider(llmConfig)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", llmConfig.Provider)
	}
}
