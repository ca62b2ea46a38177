package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaService implements BreakdownService using an Ollama server
type OllamaService struct {
	client *ollama.Client
	model  string
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) (*OllamaService, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url: %w", err)
	}
	return &OllamaService{
		client: ollama.NewClient(u, &http.Client{Timeout: 2 * time.Minute}),
		model:  model,
	}, nil
}

// GenerateBreakdown implements BreakdownService
func (o *OllamaService) GenerateBreakdown(ctx context.Context, req BreakdownRequest) ([]string, error) {
	stream := false
	genReq := &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: BuildBreakdownPrompt(req),
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.3,
		},
	}

	var out strings.Builder
	err := o.client.Generate(ctx, genReq, func(resp ollama.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	return ParseBreakdown(out.String()), nil
}

// Ping checks that the server answers.
func (o *OllamaService) Ping(ctx context.Context) error {
	return o.client.Heartbeat(ctx)
}
