package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	DefaultOpenAIBaseURL      = "https://api.openai.com/v1"
	DefaultOpenAIModel        = "gpt-4o"
	DefaultTranscriptionModel = "whisper-1"
)

// OpenAIService implements BreakdownService and Transcriber against the
// OpenAI API. The key is supplied per request because it lives in the
// user's settings, not in process config.
type OpenAIService struct {
	baseURL            string
	model              string
	transcriptionModel string
	httpClient         *http.Client
	log                *zap.SugaredLogger
}

func NewOpenAIService(baseURL, model, transcriptionModel string, log *zap.SugaredLogger) *OpenAIService {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if transcriptionModel == "" {
		transcriptionModel = DefaultTranscriptionModel
	}
	return &OpenAIService{
		baseURL:            strings.TrimRight(baseURL, "/"),
		model:              model,
		transcriptionModel: transcriptionModel,
		httpClient:         &http.Client{Timeout: 2 * time.Minute},
		log:                log.Named("openai"),
	}
}

// GenerateBreakdown implements BreakdownService
func (o *OpenAIService) GenerateBreakdown(ctx context.Context, req BreakdownRequest) ([]string, error) {
	if req.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}

	llm, err := openai.New(
		openai.WithToken(req.APIKey),
		openai.WithBaseURL(o.baseURL),
		openai.WithModel(o.model),
		openai.WithHTTPClient(o.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, BuildBreakdownPrompt(req)),
	}
	resp, err := llm.GenerateContent(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	items := ParseBreakdown(resp.Choices[0].Content)
	o.log.Infow("breakdown generated", "model", o.model, "subtasks", len(items))
	return items, nil
}

// client builds a go-openai client for one request's key.
func (o *OpenAIService) client(apiKey string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = o.baseURL
	cfg.HTTPClient = o.httpClient
	return goopenai.NewClientWithConfig(cfg)
}

// Transcribe implements Transcriber using the audio transcription endpoint
func (o *OpenAIService) Transcribe(ctx context.Context, audio []byte, filename, apiKey string) (string, error) {
	if apiKey == "" {
		return "", ErrAPIKeyMissing
	}
	if filename == "" {
		filename = "audio.wav"
	}

	resp, err := o.client(apiKey).CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    o.transcriptionModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fromOpenAIError(err)
	}

	o.log.Infow("audio transcribed", "bytes", len(audio), "chars", len(resp.Text))
	return strings.TrimSpace(resp.Text), nil
}

// CheckKey lists models with apiKey to confirm it is accepted.
func (o *OpenAIService) CheckKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return ErrAPIKeyMissing
	}
	if _, err := o.client(apiKey).ListModels(ctx); err != nil {
		return fromOpenAIError(err)
	}
	return nil
}

// fromOpenAIError maps go-openai errors onto APIError so callers get the
// provider's message through ReasonFromError.
func fromOpenAIError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		body := string(reqErr.Body)
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &APIError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	return fmt.Errorf("openai request failed: %w", err)
}
