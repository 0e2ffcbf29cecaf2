// Package audit appends an immutable trail of who changed what.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one recorded mutation.
type Event struct {
	ID        uuid.UUID `json:"id"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	CreatedAt time.Time `json:"created_at"`
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Recorder persists audit events to Postgres.
type Recorder struct {
	pool   querier
	logger *logging.Logger
}

// NewRecorder creates an audit recorder backed by a pgx pool.
func NewRecorder(pool *pgxpool.Pool, logger *logging.Logger) *Recorder {
	if pool == nil {
		panic("audit: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{pool: pool, logger: logger}
}

func newRecorderWithQuerier(q querier) *Recorder {
	if q == nil {
		panic("audit: querier required")
	}
	return &Recorder{pool: q, logger: logging.Default()}
}

// Record appends one event. Actor may be empty when the mutation came from an
// unauthenticated source; action and entity are required.
func (r *Recorder) Record(ctx context.Context, actorID, action, entity, entityID string) error {
	if action == "" || entity == "" {
		return fmt.Errorf("audit: action and entity are required")
	}
	query := `
		INSERT INTO audit_events (id, actor_id, action, entity, entity_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query, uuid.New(), actorID, action, entity, entityID); err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events, most recent first.
func (r *Recorder) ListRecent(ctx context.Context, limit int32) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, actor_id, action, entity, entity_id, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
