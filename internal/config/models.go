package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Model represents an available LLM model
type Model struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Provider string `json:"provider" yaml:"provider"`
	Tier     string `json:"tier" yaml:"tier"`
}

// ModelsConfig holds the available models configuration
type ModelsConfig struct {
	models []Model
}

var builtinModels = []Model{
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: "Google", Tier: "free"},
	{ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash Lite", Provider: "Google", Tier: "free"},
	{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: "Google", Tier: "free"},
	{ID: "learnlm-2.0-flash-experimental", Name: "LearnLM 2.0 Flash (Experimental)", Provider: "Google", Tier: "free"},
}

// DefaultModelsConfig returns the built-in Gemini model list
func DefaultModelsConfig() *ModelsConfig {
	models := make([]Model, len(builtinModels))
	copy(models, builtinModels)
	return &ModelsConfig{models: models}
}

// NewModelsConfig creates a new models configuration from a JSON or YAML file
func NewModelsConfig(configPath string) (*ModelsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var models []Model
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &models)
	default:
		err = json.Unmarshal(data, &models)
	}
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no models defined in %s", configPath)
	}

	return &ModelsConfig{models: models}, nil
}

// GetAvailableModels returns the list of available models
func (mc *ModelsConfig) GetAvailableModels() []Model {
	return mc.models
}

// IsValidModel checks if a model ID is in the list of available models
func (mc *ModelsConfig) IsValidModel(modelID string) bool {
	for _, model := range mc.models {
		if model.ID == modelID {
			return true
		}
	}
	return false
}

// GetDefaultModel returns the first model as the default
func (mc *ModelsConfig) GetDefaultModel() string {
	if len(mc.models) > 0 {
		return mc.models[0].ID
	}
	return builtinModels[0].ID
}
