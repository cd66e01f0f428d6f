package repository

import (
	"context"

	"interview-ai-simulator/internal/domain/model"
)

// SessionCacheRepository is the volatile tier: one SessionState per live
// session, expiring after a fixed inactivity window.
type SessionCacheRepository interface {
	// Get returns ErrSessionExpired when no live entry exists for the id,
	// whether the session lapsed or never started.
	Get(ctx context.Context, sessionID string) (*model.SessionState, error)
	// Save writes the full state back and refreshes the TTL.
	Save(ctx context.Context, sessionID string, state *model.SessionState) error
	Delete(ctx context.Context, sessionID string) error
	// Extend refreshes the TTL without touching the payload.
	Extend(ctx context.Context, sessionID string) error
}
