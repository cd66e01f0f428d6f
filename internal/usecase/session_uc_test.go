// File: internal/usecase/session_uc_test.go
package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"interview-ai-simulator/internal/domain"
	"interview-ai-simulator/internal/domain/model"
	"interview-ai-simulator/internal/domain/ports/adapter"
)

type sessionFixture struct {
	uc    *sessionUC
	repo  *memInterviewRepo
	cache *memSessionCache
	locks *fakeLocker
	ai    *scriptedAI
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	logger := zerolog.Nop()
	repo := newMemInterviewRepo()
	cache := newMemSessionCache()
	locks := newFakeLocker()
	ai := &scriptedAI{}
	uc := NewSessionUseCase(repo, cache, locks, ai, "chat-model", "summary-model", &logger)
	return &sessionFixture{uc: uc, repo: repo, cache: cache, locks: locks, ai: ai}
}

func (f *sessionFixture) start(t *testing.T) *StartResult {
	t.Helper()
	res, err := f.uc.Start(context.Background(), "owner-1", "Backend Engineer", 3, "Focus on Go")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return res
}

func TestStartSeedsSessionAndProvisionalRecord(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)

	if res.SessionID == "" {
		t.Fatal("expected a session id")
	}
	wantOpening := "Welcome! I see you're here for the Backend Engineer position. To start, could you tell me a bit about yourself?"
	if res.InitialQuestion != wantOpening {
		t.Fatalf("opening question = %q, want %q", res.InitialQuestion, wantOpening)
	}

	state := f.cache.state(res.SessionID)
	if state == nil {
		t.Fatal("expected cached session state")
	}
	if len(state.Turns) != 1 {
		t.Fatalf("seeded turns = %d, want 1", len(state.Turns))
	}
	if state.Turns[0].Role != model.RoleAssistant || state.Turns[0].Content != wantOpening {
		t.Fatalf("unexpected seed turn: %+v", state.Turns[0])
	}
	if !strings.Contains(state.Summary, "Backend Engineer") || !strings.Contains(state.Summary, "Toughness: 3") {
		t.Fatalf("seed summary missing framing: %q", state.Summary)
	}

	iv := f.repo.get(res.SessionID)
	if iv == nil {
		t.Fatal("expected provisional interview row")
	}
	if iv.Summary != model.ProvisionalSummary {
		t.Fatalf("provisional summary = %q", iv.Summary)
	}
	if iv.Finalized() {
		t.Fatal("new interview must not be finalized")
	}
}

func TestStartValidation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.uc.Start(ctx, "", "Backend Engineer", 3, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("missing owner: err = %v", err)
	}
	for _, tc := range []struct {
		role  string
		level int
	}{
		{"", 3},
		{"   ", 3},
		{"Backend Engineer", 0},
		{"Backend Engineer", 6},
	} {
		if _, err := f.uc.Start(ctx, "owner-1", tc.role, tc.level, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("role=%q level=%d: err = %v", tc.role, tc.level, err)
		}
	}
	if len(f.repo.byID) != 0 {
		t.Fatalf("rejected starts must not create rows, got %d", len(f.repo.byID))
	}
}

func TestSendMessageAppendsTurnPair(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	f.ai.replies = []string{"Tell me about a hard bug."}

	reply, err := f.uc.SendMessage(context.Background(), res.SessionID, "Hi, I'm Dana.")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply != "Tell me about a hard bug." {
		t.Fatalf("reply = %q", reply)
	}

	state := f.cache.state(res.SessionID)
	if len(state.Turns) != 3 {
		t.Fatalf("turns = %d, want 3 (seed + user + assistant)", len(state.Turns))
	}
	if state.Turns[1].Role != model.RoleUser || state.Turns[1].Content != "Hi, I'm Dana." {
		t.Fatalf("user turn = %+v", state.Turns[1])
	}
	if state.Turns[2].Role != model.RoleAssistant || state.Turns[2].Content != reply {
		t.Fatalf("assistant turn = %+v", state.Turns[2])
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)

	if _, err := f.uc.SendMessage(context.Background(), res.SessionID, "   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("blank message: err = %v", err)
	}
	if _, err := f.uc.SendMessage(context.Background(), "", "hello"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("blank session id: err = %v", err)
	}
}

func TestSendMessageExpiredSession(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	f.cache.expire(res.SessionID)

	if _, err := f.uc.SendMessage(context.Background(), res.SessionID, "still there?"); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}

func TestSendMessageBusySession(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	f.locks.denyAll = true

	if _, err := f.uc.SendMessage(context.Background(), res.SessionID, "hello"); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("err = %v, want ErrSessionBusy", err)
	}
}

func TestSendMessageFallbackOnProviderError(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	f.ai.err = errors.New("upstream 503")

	reply, err := f.uc.SendMessage(context.Background(), res.SessionID, "Hi")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply != adapter.FallbackReply {
		t.Fatalf("reply = %q, want fallback", reply)
	}

	// The fallback turn still lands in the log so the session keeps moving.
	state := f.cache.state(res.SessionID)
	if got := state.Turns[len(state.Turns)-1].Content; got != adapter.FallbackReply {
		t.Fatalf("last turn = %q", got)
	}
}

func TestCompactionFiresExactlyOnceInElevenTurns(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	ctx := context.Background()

	seedSummary := f.cache.state(res.SessionID).Summary
	compactedAt := 0
	for i := 1; i <= 11; i++ {
		before := len(f.cache.state(res.SessionID).Turns)
		if _, err := f.uc.SendMessage(ctx, res.SessionID, "answer"); err != nil {
			t.Fatalf("SendMessage #%d: %v", i, err)
		}
		after := len(f.cache.state(res.SessionID).Turns)
		if after == 2 {
			if compactedAt != 0 {
				t.Fatalf("second compaction at call %d (first at %d)", i, compactedAt)
			}
			compactedAt = i
			if before <= summarizationThreshold {
				t.Fatalf("compacted at call %d with only %d prior turns", i, before)
			}
		} else if after != before+2 {
			t.Fatalf("call %d: turns %d -> %d, want +2", i, before, after)
		}
	}

	if compactedAt == 0 {
		t.Fatal("no compaction in 11 calls")
	}
	if n := f.ai.promptsWith(summarizeSuffix); n != 1 {
		t.Fatalf("summarization prompts = %d, want exactly 1", n)
	}
	if got := f.cache.state(res.SessionID).Summary; got == seedSummary {
		t.Fatal("summary unchanged after compaction")
	}
}

func TestCompactionSkippedOnSummarizerError(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	ctx := context.Background()

	// Grow the log past the threshold.
	for i := 0; i < 5; i++ {
		if _, err := f.uc.SendMessage(ctx, res.SessionID, "answer"); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}
	if n := len(f.cache.state(res.SessionID).Turns); n != 11 {
		t.Fatalf("precondition: turns = %d, want 11", n)
	}

	f.ai.err = errors.New("summarizer down")
	if _, err := f.uc.SendMessage(ctx, res.SessionID, "answer"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// Uncompacted log kept intact; the pair still appended.
	state := f.cache.state(res.SessionID)
	if len(state.Turns) != 13 {
		t.Fatalf("turns = %d, want 13 (compaction skipped)", len(state.Turns))
	}
}

func TestJoinReturnsLiveTurnsReadOnly(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	ctx := context.Background()

	if _, err := f.uc.SendMessage(ctx, res.SessionID, "Hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	saves := f.cache.saves

	first, err := f.uc.Join(ctx, res.SessionID, "owner-1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	second, err := f.uc.Join(ctx, res.SessionID, "owner-1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two joins must observe identical turn logs")
	}
	if len(first) != 3 {
		t.Fatalf("turns = %d, want 3", len(first))
	}
	if f.cache.saves != saves {
		t.Fatal("Join must not write back session state")
	}
}

func TestJoinAuthorization(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	ctx := context.Background()

	if _, err := f.uc.Join(ctx, res.SessionID, "intruder"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign owner: err = %v", err)
	}
	if _, err := f.uc.Join(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "owner-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown session: err = %v", err)
	}

	f.cache.expire(res.SessionID)
	if _, err := f.uc.Join(ctx, res.SessionID, "owner-1"); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expired session: err = %v", err)
	}
}

func TestEndFinalizesAndIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	ctx := context.Background()

	f.ai.replies = []string{"Good answer.", "Candidate is promising."}
	if _, err := f.uc.SendMessage(ctx, res.SessionID, "Hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	end, err := f.uc.End(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if end.AlreadyEnded {
		t.Fatal("first End must not report AlreadyEnded")
	}
	if end.Summary != "Candidate is promising." {
		t.Fatalf("final summary = %q", end.Summary)
	}
	if n := f.ai.promptsWith(finalSummarySuffix); n != 1 {
		t.Fatalf("final summary prompts = %d, want 1", n)
	}

	iv := f.repo.get(res.SessionID)
	if !iv.Finalized() {
		t.Fatal("interview not finalized")
	}
	if iv.Summary != "Candidate is promising." || len(iv.Transcript) != 3 {
		t.Fatalf("durable record: summary=%q transcript=%d", iv.Summary, len(iv.Transcript))
	}
	if f.cache.state(res.SessionID) != nil {
		t.Fatal("cache entry must be deleted after End")
	}

	// Second End: the cache entry is gone, so it is a no-op.
	again, err := f.uc.End(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("second End: %v", err)
	}
	if !again.AlreadyEnded {
		t.Fatal("second End must report AlreadyEnded")
	}
	if f.repo.finalized != 1 {
		t.Fatalf("finalize writes = %d, want 1", f.repo.finalized)
	}
}

func TestEndKeepsCacheWhenDurableWriteFails(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	ctx := context.Background()

	f.repo.finalizeErr = errors.New("db down")
	if _, err := f.uc.End(ctx, res.SessionID); err == nil {
		t.Fatal("expected error when finalize fails")
	}
	if f.cache.state(res.SessionID) == nil {
		t.Fatal("cache entry must survive a failed finalize so End can be retried")
	}

	f.repo.finalizeErr = nil
	end, err := f.uc.End(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("retried End: %v", err)
	}
	if end.AlreadyEnded {
		t.Fatal("retried End must finalize, not short-circuit")
	}
}

func TestStartThenEndTranscriptIsSeedOnly(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)

	end, err := f.uc.End(context.Background(), res.SessionID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if end.Summary == "" {
		t.Fatal("expected a final summary")
	}

	iv := f.repo.get(res.SessionID)
	if len(iv.Transcript) != 1 || iv.Transcript[0].Role != model.RoleAssistant {
		t.Fatalf("transcript = %+v, want only the opening assistant turn", iv.Transcript)
	}
}

func TestEndBusySession(t *testing.T) {
	f := newSessionFixture(t)
	res := f.start(t)
	f.locks.denyAll = true

	if _, err := f.uc.End(context.Background(), res.SessionID); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("err = %v, want ErrSessionBusy", err)
	}
}
