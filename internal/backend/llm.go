package backend

import (
	"context"
	"fmt"

	"daftar/internal/config"
	"daftar/internal/llm"
	"daftar/internal/llm/gemini"
	"daftar/internal/llm/openai"
)

type LLMProvider string

const (
	GeminiProvider LLMProvider = "gemini"
	OpenAIProvider LLMProvider = "openai"
)

type LLMConfig struct {
	Provider LLMProvider
	APIKey   string
	Model    string
}

// Model is a completion model that can also transcribe voice notes.
type Model interface {
	llm.Completer
	llm.Transcriber
}

// LLMConfigFromAppConfig picks the key and model of the selected provider.
func LLMConfigFromAppConfig(c *config.Config) LLMConfig {
	switch LLMProvider(c.LLMProvider) {
	case OpenAIProvider:
		return LLMConfig{Provider: OpenAIProvider, APIKey: c.OpenAIAPIKey, Model: c.OpenAIModel}
	default:
		return LLMConfig{Provider: LLMProvider(c.LLMProvider), APIKey: c.GeminiAPIKey, Model: c.GeminiModel}
	}
}

// NewModel creates the configured provider.
func NewModel(ctx context.Context, cfg LLMConfig) (Model, error) {
	switch cfg.Provider {
	case GeminiProvider:
		return gemini.New(ctx, cfg.APIKey, cfg.Model)
	case OpenAIProvider:
		return openai.New(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
