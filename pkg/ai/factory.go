package ai

import (
	"fmt"

	"go.uber.org/zap"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType

	OpenAIBaseURL      string
	OpenAIModel        string
	TranscriptionModel string

	GeminiAPIKey string

	OllamaBaseURL string
	OllamaModel   string
}

// NewBreakdownService creates a BreakdownService based on the config.
// auto chains OpenAI (when the request carries a key), Gemini (when
// configured) and Ollama.
func NewBreakdownService(cfg Config, log *zap.SugaredLogger) (BreakdownService, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIService(cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.TranscriptionModel, log), nil

	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiService(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)

	case ProviderAuto:
		chain := NewFallbackService(log)
		chain.Add("openai", NewOpenAIService(cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.TranscriptionModel, log))
		if cfg.GeminiAPIKey != "" {
			chain.Add("gemini", NewGeminiService(cfg.GeminiAPIKey))
		}
		ollama, err := NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)
		if err != nil {
			return nil, err
		}
		chain.Add("ollama", ollama)
		return chain, nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
