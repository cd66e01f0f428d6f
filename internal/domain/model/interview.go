package model

import (
	"fmt"
	"strings"
	"time"
)

// Turn roles within a live session.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry in the live conversation log. Insertion order defines
// replay order.
type Turn struct {
	Role       string    `json:"role"` // "user" | "assistant"
	Content    string    `json:"content"`
	OccurredAt time.Time `json:"timestamp"`
}

// SessionState is the volatile per-session conversational state held in the
// cache tier. Summary carries the compacted context; Turns holds everything
// accumulated since the last compaction.
type SessionState struct {
	Summary string `json:"summary"`
	Turns   []Turn `json:"turns"`
}

func (s *SessionState) Append(role, content string) {
	s.Turns = append(s.Turns, Turn{
		Role:       role,
		Content:    content,
		OccurredAt: time.Now(),
	})
}

// Compact replaces the summary wholesale and drops the accumulated turn log.
func (s *SessionState) Compact(summary string) {
	s.Summary = summary
	s.Turns = nil
}

// Interview is the durable record: created provisionally at session start,
// finalized exactly once at session end.
type Interview struct {
	ID           string
	OwnerID      string
	Title        string
	Role         string
	Level        int // 1-5 toughness
	Instructions string
	StartTime    time.Time
	EndTime      time.Time // zero until finalized
	Summary      string
	Transcript   []Turn
}

// ProvisionalSummary is the sentinel stored until the final summary is
// written.
const ProvisionalSummary = "Interview in progress..."

func NewInterview(id, ownerID, role string, level int, instructions string) *Interview {
	return &Interview{
		ID:           id,
		OwnerID:      ownerID,
		Title:        fmt.Sprintf("Interview for %s position", role),
		Role:         role,
		Level:        level,
		Instructions: instructions,
		StartTime:    time.Now(),
		Summary:      ProvisionalSummary,
	}
}

func (iv *Interview) Finalized() bool { return !iv.EndTime.IsZero() }

// SeedSummary builds the system framing text that seeds a fresh session
// state.
func SeedSummary(role string, level int, instructions string) string {
	if strings.TrimSpace(instructions) == "" {
		instructions = "None"
	}
	return fmt.Sprintf("System: You are an interviewer for a %s role. Toughness: %d. Instructions: %s.", role, level, instructions)
}

// OpeningQuestion is the assistant turn seeded into every new session.
func OpeningQuestion(role string) string {
	return fmt.Sprintf("Welcome! I see you're here for the %s position. To start, could you tell me a bit about yourself?", role)
}
