package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	encoder *tiktoken.Tiktoken
)

// estimateTokens counts prompt tokens with the cl100k_base encoding.
// OpenAI-compatible providers don't expose a counting endpoint, so this is
// the best-effort path the port allows; falls back to bytes/4 when the
// encoding is unavailable.
func estimateTokens(model, prompt string) (int, error) {
	encOnce.Do(func() {
		if e, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			encoder = e
		}
	})
	if encoder == nil {
		return len(prompt) / 4, nil
	}
	return len(encoder.Encode(prompt, nil, nil)), nil
}
