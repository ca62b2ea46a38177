package ai

import (
	"context"
	"errors"
)

// ErrAPIKeyMissing is returned when a provider needs an OpenAI key and none
// is configured.
var ErrAPIKeyMissing = errors.New("OpenAI API key not found. Please configure it in settings")

// BreakdownRequest describes the task to split into subtasks. APIKey is the
// user's OpenAI key; providers that don't need one ignore it.
type BreakdownRequest struct {
	Title        string
	Description  string
	CustomPrompt string
	APIKey       string
}

// BreakdownService turns a task into a short list of subtask titles.
// Implement this interface to add new AI providers.
type BreakdownService interface {
	GenerateBreakdown(ctx context.Context, req BreakdownRequest) ([]string, error)
}

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, apiKey string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
