package usecase

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"interview-ai-simulator/internal/domain/model"
)

const (
	logDelimiter       = "\n\n--- INTERVIEW LOG ---\n"
	summarizeSuffix    = "\n\nSystem: Summarize the story so far. Keep all key facts."
	finalSummarySuffix = "\n\nSystem: Provide a concise final summary of the entire interview."
)

// BuildPrompt renders the compacted summary plus the ordered turn log as one
// linear prompt. Deterministic, no I/O. Callers append an instruction suffix
// for the summarization variants.
func BuildPrompt(summary string, turns []model.Turn) string {
	var b strings.Builder
	b.WriteString(summary)
	b.WriteString(logDelimiter)
	for _, t := range turns {
		if t.Role == model.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(t.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// EstimateTokens counts prompt tokens with the cl100k_base encoding, falling
// back to a bytes/4 heuristic when the encoding is unavailable.
func EstimateTokens(prompt string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	if enc == nil {
		return len(prompt) / 4
	}
	return len(enc.Encode(prompt, nil, nil))
}
