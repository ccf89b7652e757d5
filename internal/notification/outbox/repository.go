// Package outbox persists notification intents for asynchronous delivery.
// Rows move pending -> enqueued -> processing -> succeeded/failed; transient
// failures go back to pending for the next dispatcher sweep.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusEnqueued   Status = "enqueued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

type Record struct {
	ID       uuid.UUID
	Kind     string
	Template string
	Payload  json.RawMessage
	RunAt    time.Time
	Status   Status
	Attempts int
}

type InsertParams struct {
	Kind     string
	Template string
	Payload  any
	RunAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, p InsertParams) (uuid.UUID, error) {
	if p.Kind == "" {
		return uuid.Nil, fmt.Errorf("kind is required")
	}
	if p.Template == "" {
		return uuid.Nil, fmt.Errorf("template is required")
	}
	if p.RunAt.IsZero() {
		p.RunAt = time.Now().UTC()
	}

	payloadBytes, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx,
		`INSERT INTO notification_outbox (kind, template, payload, run_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		p.Kind, p.Template, payloadBytes, p.RunAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	var rec Record
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT id, kind, template, payload, run_at, status, attempts
		 FROM notification_outbox
		 WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Kind, &rec.Template, &rec.Payload, &rec.RunAt, &status, &rec.Attempts)
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	return rec, nil
}

// ClaimPending atomically flips due pending rows to enqueued and returns
// them. FOR UPDATE SKIP LOCKED keeps concurrent dispatchers from claiming
// the same row.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM notification_outbox
		WHERE status = 'pending' AND run_at <= now()
		ORDER BY run_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE notification_outbox o
	SET status = 'enqueued', updated_at = now()
	FROM cte
	WHERE o.id = cte.id
	RETURNING o.id, o.kind, o.template, o.payload, o.run_at, o.status, o.attempts`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Template, &rec.Payload, &rec.RunAt, &status, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkPending returns a record to the pending pool, keeping the last error
// for inspection.
func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'pending', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}

func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'processing', attempts = attempts + 1, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'succeeded', last_error = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'failed', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}
