package providers

import (
	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/image"
)

// NewDescriber returns the describer for the configured AI provider
func NewDescriber(cfg config.AIConfig) image.Describer {
	if cfg.Provider == "gemini" {
		return NewGeminiDescriber(cfg)
	}
	return NewOpenAIDescriber(cfg)
}

// DescriberConfigured reports whether the configured provider has an API key
func DescriberConfigured(cfg config.AIConfig) bool {
	if cfg.Provider == "gemini" {
		return cfg.GeminiAPIKey != ""
	}
	return cfg.OpenAIAPIKey != ""
}
