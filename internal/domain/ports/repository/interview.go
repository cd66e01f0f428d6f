package repository

import (
	"context"
	"time"

	"interview-ai-simulator/internal/domain/model"
)

// -----------------------------
// Interviews (durable tier)
// -----------------------------

// InterviewRepository persists interview records. Rows are created in
// provisional form at session start and mutated exactly once by Finalize.
// The qx argument optionally carries a pgx.Tx or *pgxpool.Conn; nil means
// "use the pool".
type InterviewRepository interface {
	CreateProvisional(ctx context.Context, qx any, iv *model.Interview) error
	// Finalize writes the final summary, full transcript and end time. It is
	// a no-op returning ErrAlreadyFinalized when the row was finalized before.
	Finalize(ctx context.Context, qx any, id, summary string, transcript []model.Turn, endTime time.Time) error
	// FindOwned returns ErrNotFound when no row exists and ErrForbidden when
	// the row belongs to a different owner.
	FindOwned(ctx context.Context, qx any, id, ownerID string) (*model.Interview, error)
	ListByOwner(ctx context.Context, qx any, ownerID string) ([]*model.Interview, error)
	// ListAbandoned returns ids of provisional rows started before the cutoff.
	ListAbandoned(ctx context.Context, qx any, startedBefore time.Time) ([]string, error)
}
