// File: internal/usecase/session_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"interview-ai-simulator/internal/domain"
	"interview-ai-simulator/internal/domain/model"
	"interview-ai-simulator/internal/domain/ports/adapter"
	"interview-ai-simulator/internal/domain/ports/repository"
	"interview-ai-simulator/internal/infra/logging"
	"interview-ai-simulator/internal/infra/metrics"
)

// summarizationThreshold is exclusive: a turn log that has grown past this
// size is compacted before the next user turn is considered. Keeps the prompt
// bounded regardless of session length.
const summarizationThreshold = 10

// sessionLockTTL bounds how long a crashed holder can wedge a session.
const sessionLockTTL = 30 * time.Second

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

type StartResult struct {
	SessionID       string
	InitialQuestion string
}

type EndResult struct {
	Summary      string
	AlreadyEnded bool
}

type SessionUseCase interface {
	Start(ctx context.Context, ownerID, role string, level int, instructions string) (*StartResult, error)
	SendMessage(ctx context.Context, sessionID, message string) (reply string, err error)
	Join(ctx context.Context, sessionID, ownerID string) ([]model.Turn, error)
	End(ctx context.Context, sessionID string) (*EndResult, error)
}

type sessionUC struct {
	interviews   repository.InterviewRepository
	cache        repository.SessionCacheRepository
	locks        repository.Locker
	ai           adapter.CompletionAdapter
	chatModel    string
	summaryModel string
	log          *zerolog.Logger
}

func NewSessionUseCase(
	interviews repository.InterviewRepository,
	cache repository.SessionCacheRepository,
	locks repository.Locker,
	ai adapter.CompletionAdapter,
	chatModel, summaryModel string,
	logger *zerolog.Logger,
) *sessionUC {
	l := logger.With().Str("component", "SessionUC").Logger()
	return &sessionUC{
		interviews:   interviews,
		cache:        cache,
		locks:        locks,
		ai:           ai,
		chatModel:    chatModel,
		summaryModel: summaryModel,
		log:          &l,
	}
}

func sessionLockKey(sessionID string) string { return "lock:interview:" + sessionID }

// Start creates the provisional durable record, seeds the session cache with
// the system framing summary and the opening assistant turn, and returns both
// ids the client needs.
func (u *sessionUC) Start(ctx context.Context, ownerID, role string, level int, instructions string) (*StartResult, error) {
	role = strings.TrimSpace(role)
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	if role == "" || level < 1 || level > 5 {
		return nil, domain.ErrInvalidArgument
	}

	iv := model.NewInterview(ulid.Make().String(), ownerID, role, level, instructions)
	if err := u.interviews.CreateProvisional(ctx, nil, iv); err != nil {
		return nil, fmt.Errorf("create interview: %w", err)
	}

	opening := model.OpeningQuestion(role)
	state := &model.SessionState{Summary: model.SeedSummary(role, level, instructions)}
	state.Append(model.RoleAssistant, opening)
	if err := u.cache.Save(ctx, iv.ID, state); err != nil {
		return nil, fmt.Errorf("seed session cache: %w", err)
	}

	metrics.IncSessionStarted()
	logging.With(ctx, u.log).Info().Str("session_id", iv.ID).Str("role", role).Int("level", level).Msg("session started")
	return &StartResult{SessionID: iv.ID, InitialQuestion: opening}, nil
}

// SendMessage processes one user turn: compaction check, live completion,
// write-back with a fresh TTL. The whole read-modify-write runs under the
// per-session lock so concurrent turns on one session cannot interleave.
func (u *sessionUC) SendMessage(ctx context.Context, sessionID, message string) (string, error) {
	defer logging.TraceDuration(u.log, "SessionUC.SendMessage")()

	message = strings.TrimSpace(message)
	if sessionID == "" || message == "" {
		return "", domain.ErrInvalidArgument
	}

	token, err := u.locks.TryLock(ctx, sessionLockKey(sessionID), sessionLockTTL)
	if err != nil {
		return "", domain.ErrSessionBusy
	}
	defer func() { _ = u.locks.Unlock(ctx, sessionLockKey(sessionID), token) }()

	state, err := u.cache.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	// Compact before admitting the new turn so the in-flight exchange is
	// never folded into the summary.
	if len(state.Turns) > summarizationThreshold {
		u.compact(ctx, sessionID, state)
	}

	state.Append(model.RoleUser, message)

	prompt := BuildPrompt(state.Summary, state.Turns)
	metrics.AddPromptTokens(u.chatModel, "chat", EstimateTokens(prompt))

	reply, err := u.ai.Complete(ctx, u.chatModel, prompt)
	if err != nil {
		// The fallback decorator normally absorbs provider errors; keep the
		// conversation moving even when wired with a bare adapter.
		logging.With(ctx, u.log).Error().Err(err).Str("session_id", sessionID).Msg("completion failed")
		reply = adapter.FallbackReply
	}
	state.Append(model.RoleAssistant, reply)

	if err := u.cache.Save(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	metrics.IncTurn()
	return reply, nil
}

// compact folds the accumulated turn log into the summary. The summary is
// replaced wholesale, never appended to.
func (u *sessionUC) compact(ctx context.Context, sessionID string, state *model.SessionState) {
	prompt := BuildPrompt(state.Summary, state.Turns) + summarizeSuffix
	metrics.AddPromptTokens(u.summaryModel, "compaction", EstimateTokens(prompt))

	summary, err := u.ai.Complete(ctx, u.summaryModel, prompt)
	if err != nil || strings.TrimSpace(summary) == "" {
		// Keep the uncompacted state; the next turn will retry.
		logging.With(ctx, u.log).Warn().Err(err).Str("session_id", sessionID).Msg("compaction skipped")
		return
	}
	state.Compact(summary)
	metrics.IncCompaction()
	logging.With(ctx, u.log).Debug().Str("session_id", sessionID).Msg("turn log compacted")
}

// Join returns the live turn log verbatim. Ownership is checked against the
// durable store; the cached payload is never rewritten.
func (u *sessionUC) Join(ctx context.Context, sessionID, ownerID string) ([]model.Turn, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := u.interviews.FindOwned(ctx, nil, sessionID, ownerID); err != nil {
		return nil, err
	}
	state, err := u.cache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// Rejoining counts as activity: bump the TTL without touching the payload.
	if err := u.cache.Extend(ctx, sessionID); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Str("session_id", sessionID).Msg("ttl extend failed")
	}
	return state.Turns, nil
}

// End finalizes a session: final summary, durable write, then cache delete.
// Idempotent: a missing cache entry means the session is already over.
func (u *sessionUC) End(ctx context.Context, sessionID string) (*EndResult, error) {
	defer logging.TraceDuration(u.log, "SessionUC.End")()

	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}

	token, err := u.locks.TryLock(ctx, sessionLockKey(sessionID), sessionLockTTL)
	if err != nil {
		return nil, domain.ErrSessionBusy
	}
	defer func() { _ = u.locks.Unlock(ctx, sessionLockKey(sessionID), token) }()

	state, err := u.cache.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionExpired) {
		return &EndResult{AlreadyEnded: true}, nil
	}
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(state.Summary, state.Turns) + finalSummarySuffix
	metrics.AddPromptTokens(u.summaryModel, "final", EstimateTokens(prompt))

	summary, err := u.ai.Complete(ctx, u.summaryModel, prompt)
	if err != nil {
		summary = adapter.FallbackReply
	}

	// Durable write first. If it fails the cache entry stays intact so a
	// retried End can still recover the transcript.
	if err := u.interviews.Finalize(ctx, nil, sessionID, summary, state.Turns, time.Now()); err != nil {
		return nil, fmt.Errorf("finalize interview: %w", err)
	}
	if err := u.cache.Delete(ctx, sessionID); err != nil {
		// Durable copy exists; the TTL will reap the leftover entry.
		logging.With(ctx, u.log).Warn().Err(err).Str("session_id", sessionID).Msg("cache delete failed after finalize")
	}

	metrics.IncSessionEnded("ended")
	logging.With(ctx, u.log).Info().Str("session_id", sessionID).Msg("session ended")
	return &EndResult{Summary: summary}, nil
}
