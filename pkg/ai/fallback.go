package ai

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type namedService struct {
	name string
	svc  BreakdownService
}

// FallbackService tries providers in order. It moves on to the next one when
// a provider is unreachable, out of quota, or lacks an API key; any other
// error is returned as is.
type FallbackService struct {
	providers []namedService
	log       *zap.SugaredLogger
}

func NewFallbackService(log *zap.SugaredLogger) *FallbackService {
	return &FallbackService{log: log.Named("ai-fallback")}
}

// Add appends a provider. Nil services are skipped.
func (f *FallbackService) Add(name string, svc BreakdownService) *FallbackService {
	if svc != nil {
		f.providers = append(f.providers, namedService{name: name, svc: svc})
	}
	return f
}

func (f *FallbackService) Len() int { return len(f.providers) }

func (f *FallbackService) GenerateBreakdown(ctx context.Context, req BreakdownRequest) ([]string, error) {
	var lastErr error
	for _, p := range f.providers {
		items, err := p.svc.GenerateBreakdown(ctx, req)
		if err == nil {
			f.log.Infow("breakdown served", "provider", p.name)
			return items, nil
		}
		lastErr = err
		if errors.Is(err, ErrAPIKeyMissing) || isConnectionError(err) || isQuotaError(err) {
			f.log.Warnw("provider unavailable, trying next", "provider", p.name, "error", err)
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no AI provider available for task breakdown")
}
