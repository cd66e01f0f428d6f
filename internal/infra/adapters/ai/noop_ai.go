package ai

import (
	"context"
	"log"
	"time"

	"interview-ai-simulator/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.CompletionAdapter for local/dev testing.
// It logs prompts instead of sending real AI requests.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop-ai-model"}, nil
}

func (a *NoopAIAdapter) Complete(ctx context.Context, model, prompt string) (string, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	log.Printf("[noop-ai] model=%s prompt=%d bytes\n", model, len(prompt))
	return "This is a noop AI response. Could you elaborate on that?", nil
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model, prompt string) (int, error) {
	return len(prompt) / 4, nil
}
