// File: internal/infra/db/postgres/postgres_interview_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"interview-ai-simulator/internal/domain"
	"interview-ai-simulator/internal/domain/model"
	"interview-ai-simulator/internal/domain/ports/repository"
)

// InterviewRepo is the durable tier. Schema:
//
//	CREATE TABLE interviews (
//	    id           TEXT PRIMARY KEY,
//	    owner_id     TEXT NOT NULL,
//	    title        VARCHAR(255) NOT NULL,
//	    role         VARCHAR(100) NOT NULL,
//	    level        INT NOT NULL,
//	    instructions VARCHAR(1000) NOT NULL DEFAULT '',
//	    start_time   TIMESTAMPTZ NOT NULL,
//	    end_time     TIMESTAMPTZ,
//	    summary      TEXT NOT NULL,
//	    transcript   JSONB NOT NULL DEFAULT '[]'
//	);
//
// end_time stays NULL until the single finalizing update.
var _ repository.InterviewRepository = (*InterviewRepo)(nil)

type InterviewRepo struct {
	pool *pgxpool.Pool
}

func NewInterviewRepo(pool *pgxpool.Pool) *InterviewRepo {
	return &InterviewRepo{pool: pool}
}

func (r *InterviewRepo) CreateProvisional(ctx context.Context, qx any, iv *model.Interview) error {
	const q = `
INSERT INTO interviews (id, owner_id, title, role, level, instructions, start_time, summary, transcript)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'[]'::jsonb);`
	_, err := r.exec(ctx, qx, q, iv.ID, iv.OwnerID, iv.Title, iv.Role, iv.Level, iv.Instructions, iv.StartTime, iv.Summary)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrInvalidArgument
		}
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

func (r *InterviewRepo) Finalize(ctx context.Context, qx any, id, summary string, transcript []model.Turn, endTime time.Time) error {
	if transcript == nil {
		transcript = []model.Turn{}
	}
	raw, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	const q = `
UPDATE interviews SET summary=$2, transcript=$3, end_time=$4
 WHERE id=$1 AND end_time IS NULL;`
	tag, err := r.exec(ctx, qx, q, id, summary, raw, endTime)
	if err != nil {
		return fmt.Errorf("finalize interview: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row never existed or it was finalized before.
		if _, err := r.findByID(ctx, qx, id); errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return domain.ErrAlreadyFinalized
	}
	return nil
}

func (r *InterviewRepo) FindOwned(ctx context.Context, qx any, id, ownerID string) (*model.Interview, error) {
	iv, err := r.findByID(ctx, qx, id)
	if err != nil {
		return nil, err
	}
	if iv.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return iv, nil
}

func (r *InterviewRepo) findByID(ctx context.Context, qx any, id string) (*model.Interview, error) {
	const q = `
SELECT id, owner_id, title, role, level, instructions, start_time, end_time, summary, transcript
  FROM interviews WHERE id=$1;`
	row := r.queryRow(ctx, qx, q, id)

	var iv model.Interview
	var endTime *time.Time
	var raw []byte
	err := row.Scan(&iv.ID, &iv.OwnerID, &iv.Title, &iv.Role, &iv.Level, &iv.Instructions,
		&iv.StartTime, &endTime, &iv.Summary, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan interview: %w", err)
	}
	if endTime != nil {
		iv.EndTime = *endTime
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &iv.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
	}
	return &iv, nil
}

func (r *InterviewRepo) ListByOwner(ctx context.Context, qx any, ownerID string) ([]*model.Interview, error) {
	const q = `
SELECT id, owner_id, title, role, level, instructions, start_time, end_time, summary, transcript
  FROM interviews WHERE owner_id=$1 ORDER BY start_time DESC;`
	rows, err := r.query(ctx, qx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	var out []*model.Interview
	for rows.Next() {
		var iv model.Interview
		var endTime *time.Time
		var raw []byte
		err := rows.Scan(&iv.ID, &iv.OwnerID, &iv.Title, &iv.Role, &iv.Level, &iv.Instructions,
			&iv.StartTime, &endTime, &iv.Summary, &raw)
		if err != nil {
			return nil, fmt.Errorf("scan interview: %w", err)
		}
		if endTime != nil {
			iv.EndTime = *endTime
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &iv.Transcript); err != nil {
				return nil, fmt.Errorf("decode transcript: %w", err)
			}
		}
		out = append(out, &iv)
	}
	return out, rows.Err()
}

func (r *InterviewRepo) ListAbandoned(ctx context.Context, qx any, startedBefore time.Time) ([]string, error) {
	const q = `SELECT id FROM interviews WHERE end_time IS NULL AND start_time < $1;`
	rows, err := r.query(ctx, qx, q, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("list abandoned: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *InterviewRepo) exec(ctx context.Context, qx any, sql string, args ...any) (pgconn.CommandTag, error) {
	switch v := qx.(type) {
	case pgx.Tx:
		return v.Exec(ctx, sql, args...)
	case *pgxpool.Conn:
		return v.Exec(ctx, sql, args...)
	default:
		return r.pool.Exec(ctx, sql, args...)
	}
}

func (r *InterviewRepo) queryRow(ctx context.Context, qx any, sql string, args ...any) pgx.Row {
	switch v := qx.(type) {
	case pgx.Tx:
		return v.QueryRow(ctx, sql, args...)
	case *pgxpool.Conn:
		return v.QueryRow(ctx, sql, args...)
	default:
		return r.pool.QueryRow(ctx, sql, args...)
	}
}

func (r *InterviewRepo) query(ctx context.Context, qx any, sql string, args ...any) (pgx.Rows, error) {
	switch v := qx.(type) {
	case pgx.Tx:
		return v.Query(ctx, sql, args...)
	case *pgxpool.Conn:
		return v.Query(ctx, sql, args...)
	default:
		return r.pool.Query(ctx, sql, args...)
	}
}
