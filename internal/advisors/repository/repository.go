// Package repository persists External Advisor records and their
// append-only assignment history.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExternalAdvisor is a developer's salesperson. Dedup is global by phone;
// listing filters by developer. The metric columns are recomputed by the
// reporting job, never written here after creation.
type ExternalAdvisor struct {
	ID          uuid.UUID
	Name        string
	Phone       string
	PhoneKey    string
	Email       string
	Position    string
	DeveloperID string
	Active      bool
	WonCount    int
	LostCount   int
	CloseRate   float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertParams holds the fields for advisor registration.
type UpsertParams struct {
	Name        string
	Phone       string
	PhoneKey    string
	Email       string
	Position    string
	DeveloperID string
}

// Assignment is one appended entry of an advisor's assignment history.
type Assignment struct {
	ID         uuid.UUID
	AdvisorID  uuid.UUID
	LeadID     uuid.UUID
	Summary    string
	AssignedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const advisorColumns = `id, name, phone, phone_key, email, position, developer_id, active,
	won_count, lost_count, close_rate, created_at, updated_at`

// FindByPhoneKey returns the advisor with the given phone key, or nil when absent.
func (r *Repository) FindByPhoneKey(ctx context.Context, phoneKey string) (*ExternalAdvisor, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+advisorColumns+` FROM external_advisors WHERE phone_key = $1`,
		phoneKey,
	)
	return scanAdvisor(row)
}

// Upsert atomically creates the advisor or refreshes the mutable fields of
// the row holding the same phone key. The phone key itself is never changed
// on a match; metrics start zeroed and are not touched on update.
func (r *Repository) Upsert(ctx context.Context, p UpsertParams) (*ExternalAdvisor, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO external_advisors (name, phone, phone_key, email, position, developer_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (phone_key)
		DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email,
			position = EXCLUDED.position, updated_at = now()
		RETURNING `+advisorColumns,
		p.Name, p.Phone, p.PhoneKey, p.Email, p.Position, p.DeveloperID,
	)
	advisor, err := scanAdvisor(row)
	if err != nil {
		return nil, fmt.Errorf("upsert advisor: %w", err)
	}
	return advisor, nil
}

// ListByDeveloper returns the advisors registered for a developer, newest first.
func (r *Repository) ListByDeveloper(ctx context.Context, developerID string) ([]ExternalAdvisor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+advisorColumns+` FROM external_advisors
		 WHERE developer_id = $1 ORDER BY created_at DESC`,
		developerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list advisors: %w", err)
	}
	defer rows.Close()

	items := make([]ExternalAdvisor, 0)
	for rows.Next() {
		advisor, err := scanAdvisor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advisor: %w", err)
		}
		items = append(items, *advisor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate advisors: %w", err)
	}
	return items, nil
}

// AppendAssignment adds one entry to the advisor's assignment history.
// The table is append-only: entries are never updated or removed.
func (r *Repository) AppendAssignment(ctx context.Context, advisorID, leadID uuid.UUID, summary string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO advisor_assignments (advisor_id, lead_id, summary) VALUES ($1, $2, $3)`,
		advisorID, leadID, summary,
	)
	if err != nil {
		return fmt.Errorf("append assignment: %w", err)
	}
	return nil
}

// ListAssignments returns an advisor's assignment history in insertion order.
func (r *Repository) ListAssignments(ctx context.Context, advisorID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, advisor_id, lead_id, summary, assigned_at
		 FROM advisor_assignments WHERE advisor_id = $1 ORDER BY assigned_at`,
		advisorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	items := make([]Assignment, 0)
	for rows.Next() {
		var item Assignment
		if err := rows.Scan(&item.ID, &item.AdvisorID, &item.LeadID, &item.Summary, &item.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return items, nil
}

func scanAdvisor(row pgx.Row) (*ExternalAdvisor, error) {
	var a ExternalAdvisor
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Phone,
		&a.PhoneKey,
		&a.Email,
		&a.Position,
		&a.DeveloperID,
		&a.Active,
		&a.WonCount,
		&a.LostCount,
		&a.CloseRate,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
