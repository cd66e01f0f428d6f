package adapter

import "context"

// FallbackReply is the in-band reply substituted for provider failures so a
// degraded model never breaks a running interview.
const FallbackReply = "Sorry, I ran into an error. Please try again."

// CompletionAdapter is the port for single-prompt text generation.
type CompletionAdapter interface {
	ListModels(ctx context.Context) ([]string, error)

	// Complete returns the generated text for one linear prompt.
	Complete(ctx context.Context, model, prompt string) (string, error)

	// CountTokens must return the prompt token count (provider-specific
	// counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model, prompt string) (int, error)
}
