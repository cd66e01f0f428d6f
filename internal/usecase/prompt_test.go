package usecase

import (
	"testing"
	"time"

	"interview-ai-simulator/internal/domain/model"
)

func TestBuildPromptFormat(t *testing.T) {
	turns := []model.Turn{
		{Role: model.RoleAssistant, Content: "Welcome!", OccurredAt: time.Now()},
		{Role: model.RoleUser, Content: "Hi, I'm Dana.", OccurredAt: time.Now()},
	}

	got := BuildPrompt("System: framing.", turns)
	want := "System: framing.\n\n--- INTERVIEW LOG ---\nAssistant: Welcome!\nUser: Hi, I'm Dana.\n"
	if got != want {
		t.Fatalf("prompt = %q, want %q", got, want)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	turns := []model.Turn{
		{Role: model.RoleUser, Content: "same input"},
	}
	a := BuildPrompt("summary", turns)
	b := BuildPrompt("summary", turns)
	if a != b {
		t.Fatal("identical inputs must render identical prompts")
	}
}

func TestBuildPromptEmptyLog(t *testing.T) {
	got := BuildPrompt("only the summary", nil)
	want := "only the summary\n\n--- INTERVIEW LOG ---\n"
	if got != want {
		t.Fatalf("prompt = %q, want %q", got, want)
	}
}

func TestEstimateTokensNonZero(t *testing.T) {
	if n := EstimateTokens("a reasonably sized prompt for the interviewer"); n == 0 {
		t.Fatal("expected a positive token estimate")
	}
	if n := EstimateTokens(""); n != 0 {
		t.Fatalf("empty prompt estimate = %d, want 0", n)
	}
}
