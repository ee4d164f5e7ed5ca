package app

import (
	"tutor-app/internal/config"
	"tutor-app/internal/repository/db"
	"tutor-app/internal/service/llm"
)

// Config holds all application dependencies and configuration
type Config struct {
	// Database interface for data persistence
	DB db.Database
	// LLM provider used by the chat orchestrator
	LLM llm.Provider
	// Centralized application configuration
	AppConfig *config.AppConfig
}

// NewConfig creates a new application configuration
func NewConfig(database db.Database, provider llm.Provider, appConfig *config.AppConfig) *Config {
	return &Config{
		DB:        database,
		LLM:       provider,
		AppConfig: appConfig,
	}
}

// ModelsConfig returns the configured model list
func (c *Config) ModelsConfig() *config.ModelsConfig {
	return c.AppConfig.Models
}
