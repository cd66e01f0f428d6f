package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"interview-ai-simulator/internal/domain/ports/adapter"
	"interview-ai-simulator/internal/infra/metrics"
)

// Compile-time check
var _ adapter.CompletionAdapter = (*fallbackAI)(nil)

// fallbackAI absorbs provider failures: every Complete error becomes the
// fixed adapter.FallbackReply so callers never have to special-case a
// completion failure as fatal.
type fallbackAI struct {
	inner    adapter.CompletionAdapter
	provider string
	log      *zerolog.Logger
}

func NewFallbackAI(inner adapter.CompletionAdapter, provider string, logger *zerolog.Logger) adapter.CompletionAdapter {
	l := logger.With().Str("component", "FallbackAI").Logger()
	return &fallbackAI{inner: inner, provider: provider, log: &l}
}

func (f *fallbackAI) ListModels(ctx context.Context) ([]string, error) {
	return f.inner.ListModels(ctx)
}

func (f *fallbackAI) Complete(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	text, err := f.inner.Complete(ctx, model, prompt)
	latency := int(time.Since(start).Milliseconds())
	metrics.ObserveAICall(f.provider, model, latency, err == nil)
	if err != nil {
		f.log.Error().Err(err).Str("model", model).Msg("completion degraded to fallback")
		metrics.IncFallback(f.provider, model)
		return adapter.FallbackReply, nil
	}
	return text, nil
}

func (f *fallbackAI) CountTokens(ctx context.Context, model, prompt string) (int, error) {
	return f.inner.CountTokens(ctx, model, prompt)
}
