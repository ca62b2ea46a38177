package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yukaii/vibers-goal/pkg/gemini"
)

// GeminiService adapts the Gemini REST client to BreakdownService.
type GeminiService struct {
	client *gemini.GeminiService
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{client: gemini.NewGeminiService(apiKey)}
}

func (g *GeminiService) GenerateBreakdown(ctx context.Context, req BreakdownRequest) ([]string, error) {
	text, err := g.client.GenerateText(ctx, BuildBreakdownPrompt(req))
	if err != nil {
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			return nil, &APIError{Provider: "gemini", StatusCode: apiErr.StatusCode, Body: apiErr.Body}
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	return ParseBreakdown(text), nil
}
