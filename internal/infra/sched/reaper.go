package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"interview-ai-simulator/internal/domain"
	"interview-ai-simulator/internal/domain/ports/repository"
	"interview-ai-simulator/internal/infra/metrics"
)

const abandonedSummary = "Interview abandoned (session expired)."

// Reaper periodically finalizes provisional interview rows whose cache entry
// lapsed without an explicit end. The cache TTL is the liveness safety valve;
// this is its durable-store counterpart.
type Reaper struct {
	interval   time.Duration
	cutoff     time.Duration
	interviews repository.InterviewRepository
	cache      repository.SessionCacheRepository
	log        *zerolog.Logger
}

func NewReaper(interval, cutoff time.Duration, interviews repository.InterviewRepository, cache repository.SessionCacheRepository, logger *zerolog.Logger) *Reaper {
	l := logger.With().Str("component", "Reaper").Logger()
	return &Reaper{
		interval:   interval,
		cutoff:     cutoff,
		interviews: interviews,
		cache:      cache,
		log:        &l,
	}
}

func (w *Reaper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting reaper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reaper")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.sweep(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("reaper sweep error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("abandoned interviews finalized")
			}
		}
	}
}

func (w *Reaper) sweep(ctx context.Context) (int, error) {
	ids, err := w.interviews.ListAbandoned(ctx, nil, time.Now().Add(-w.cutoff))
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, id := range ids {
		// A long-running session keeps its cache entry alive past the
		// cutoff; only a lapsed entry marks the interview abandoned.
		if _, err := w.cache.Get(ctx, id); !errors.Is(err, domain.ErrSessionExpired) {
			continue
		}
		err := w.interviews.Finalize(ctx, nil, id, abandonedSummary, nil, time.Now())
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyFinalized) {
				continue // lost a race with an explicit End; fine
			}
			w.log.Error().Err(err).Str("session_id", id).Msg("reap failed")
			continue
		}
		metrics.IncSessionEnded("abandoned")
		reaped++
	}
	return reaped, nil
}
