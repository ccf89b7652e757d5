// Package repository is the persistence boundary for leads: creation, reads
// and guarded status transitions with an append-only audit trail.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inmueble_backend/internal/leads/domain"
	"inmueble_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultModel is stored when intake does not name a model of interest.
const DefaultModel = "No especificado"

// Lead is the funnel entity. Contact fields are an intake-time snapshot and
// never follow later edits to the client record.
type Lead struct {
	ID                uuid.UUID
	ClientID          uuid.UUID
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	DevelopmentID     string
	DevelopmentName   string
	DeveloperID       string
	ModelOfInterest   string
	ReferencePrice    float64
	CommissionPct     float64
	Status            domain.Status
	AssignedAdvisorID *uuid.UUID
	AppointmentDate   *time.Time
	AppointmentTime   *string
	Origin            string
	SourceURL         *string
	Context           map[string]any
	ReportedAt        *time.Time
	FinalAmount       *float64
	FinalModel        *string
	LostReason        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasAppointment reports whether the lead carries a scheduled visit.
func (l *Lead) HasAppointment() bool {
	return l.AppointmentDate != nil && l.AppointmentTime != nil
}

// CreateParams carries everything needed to persist a new lead.
type CreateParams struct {
	ClientID        uuid.UUID
	ContactName     string
	ContactEmail    string
	ContactPhone    string
	DevelopmentID   string
	DevelopmentName string
	DeveloperID     string
	ModelOfInterest string
	ReferencePrice  float64
	CommissionPct   float64
	AppointmentDate *time.Time
	AppointmentTime *string
	Origin          string
	SourceURL       *string
	Context         map[string]any
	CreatedBy       string
}

// TransitionParams carries a status move and its audit metadata. The
// status-specific payload pointers are only consulted for their status.
type TransitionParams struct {
	Status    domain.Status
	ChangedBy string
	Note      string
	// ASSIGNED_EXTERNAL payload.
	AdvisorID *uuid.UUID
	// WON payload.
	FinalAmount *float64
	FinalModel  *string
	// LOST payload.
	LostReason *string
}

// HistoryEntry is one appended row of a lead's audit trail.
type HistoryEntry struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Status    domain.Status
	Note      string
	ChangedBy string
	CreatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, client_id, contact_name, contact_email, contact_phone,
	development_id, development_name, developer_id, model_of_interest,
	reference_price, commission_pct, status, assigned_advisor_id,
	appointment_date, appointment_time, origin, source_url, context,
	reported_at, final_amount, final_model, lost_reason, created_at, updated_at`

// Create validates the required identifiers and appointment completeness,
// then inserts the lead and its first history entry in one transaction.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*Lead, error) {
	if strings.TrimSpace(p.DevelopmentID) == "" {
		return nil, apperr.Validation("development id is required")
	}
	if strings.TrimSpace(p.DeveloperID) == "" {
		return nil, apperr.Validation("developer id is required")
	}
	if (p.AppointmentDate == nil) != (p.AppointmentTime == nil) {
		return nil, apperr.Validation("appointment requires both a date and a time")
	}
	if p.ModelOfInterest == "" {
		p.ModelOfInterest = DefaultModel
	}
	if p.Context == nil {
		p.Context = map[string]any{}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create lead: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO leads (client_id, contact_name, contact_email, contact_phone,
			development_id, development_name, developer_id, model_of_interest,
			reference_price, commission_pct, appointment_date, appointment_time,
			origin, source_url, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+leadColumns,
		p.ClientID, p.ContactName, p.ContactEmail, p.ContactPhone,
		p.DevelopmentID, p.DevelopmentName, p.DeveloperID, p.ModelOfInterest,
		p.ReferencePrice, p.CommissionPct, p.AppointmentDate, p.AppointmentTime,
		p.Origin, p.SourceURL, p.Context,
	)
	lead, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("insert lead: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO lead_status_history (lead_id, status, note, changed_by)
		 VALUES ($1, $2, $3, $4)`,
		lead.ID, domain.StatusPendingContact, "lead created", p.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert first history entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create lead: %w", err)
	}
	return lead, nil
}

// Get returns a lead by id or KindNotFound.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// Transition moves the lead through the funnel under a row lock: the current
// status is read FOR UPDATE, checked against the transition table, and the
// new status plus its payload columns are written together with the audit
// entry. Illegal moves, terminal states included, leave the row untouched.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, p TransitionParams) (*Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	var current domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM leads WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lock lead: %w", err)
	}
	if !current.CanTransition(p.Status) {
		return nil, domain.ErrInvalidTransition(current, p.Status)
	}

	set := []string{"status = $2", "updated_at = now()"}
	args := []any{id, p.Status}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch p.Status {
	case domain.StatusReported:
		set = append(set, "reported_at = now()")
	case domain.StatusAssignedExternal:
		set = append(set, "assigned_advisor_id = "+next(p.AdvisorID))
	case domain.StatusWon:
		set = append(set, "final_amount = "+next(p.FinalAmount))
		set = append(set, "final_model = "+next(p.FinalModel))
	case domain.StatusLost:
		set = append(set, "lost_reason = "+next(p.LostReason))
	}

	row := tx.QueryRow(ctx,
		`UPDATE leads SET `+strings.Join(set, ", ")+` WHERE id = $1 RETURNING `+leadColumns,
		args...,
	)
	lead, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("update lead status: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO lead_status_history (lead_id, status, note, changed_by)
		 VALUES ($1, $2, $3, $4)`,
		id, p.Status, p.Note, p.ChangedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return lead, nil
}

// FindActiveBooking returns the client's non-terminal lead for a development
// whose appointment is still in the future, or nil when there is none. The
// date/time comparison happens here so the stored slot label stays opaque to
// the database.
func (r *Repository) FindActiveBooking(ctx context.Context, clientID uuid.UUID, developmentID string, now time.Time) (*Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE client_id = $1 AND development_id = $2
		   AND status NOT IN ($3, $4, $5)
		   AND appointment_date IS NOT NULL AND appointment_time IS NOT NULL
		 ORDER BY appointment_date`,
		clientID, developmentID, domain.StatusWon, domain.StatusLost, domain.StatusClosed,
	)
	if err != nil {
		return nil, fmt.Errorf("find active booking: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		if start, ok := appointmentStart(lead, now.Location()); ok && start.After(now) {
			return lead, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return nil, nil
}

// ListFilter narrows the lead listing. Zero values mean "no filter".
type ListFilter struct {
	DeveloperID string
	AdvisorID   *uuid.UUID
	Status      domain.Status
	Limit       int
}

// List returns leads newest-activity first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Lead, error) {
	where := []string{"true"}
	args := []any{}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.DeveloperID != "" {
		where = append(where, "developer_id = "+next(f.DeveloperID))
	}
	if f.AdvisorID != nil {
		where = append(where, "assigned_advisor_id = "+next(*f.AdvisorID))
	}
	if f.Status != "" {
		where = append(where, "status = "+next(f.Status))
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE `+strings.Join(where, " AND ")+
			` ORDER BY updated_at DESC LIMIT `+next(limit),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return items, nil
}

// History returns a lead's audit trail in insertion order.
func (r *Repository) History(ctx context.Context, leadID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, lead_id, status, COALESCE(note, ''), COALESCE(changed_by, ''), created_at
		 FROM lead_status_history WHERE lead_id = $1 ORDER BY created_at`,
		leadID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	items := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.Status, &e.Note, &e.ChangedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return items, nil
}

// UpdateAppointment rewrites the lead's scheduled visit and records the
// reschedule in the audit trail without moving the status. Both parts must
// be present; clearing an appointment is not supported.
func (r *Repository) UpdateAppointment(ctx context.Context, id uuid.UUID, date time.Time, timeLabel string) (*Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reschedule: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`UPDATE leads SET appointment_date = $2, appointment_time = $3, updated_at = now()
		 WHERE id = $1 RETURNING `+leadColumns,
		id, date, timeLabel,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO lead_status_history (lead_id, status, note, changed_by)
		 VALUES ($1, $2, $3, '')`,
		id, lead.Status, fmt.Sprintf("cita reprogramada: %s %s", date.Format("2006-01-02"), timeLabel),
	)
	if err != nil {
		return nil, fmt.Errorf("append reschedule note: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reschedule: %w", err)
	}
	return lead, nil
}

// appointmentStart combines the stored date and "HH:00" label into a concrete
// start instant. Malformed labels yield ok=false.
func appointmentStart(l *Lead, loc *time.Location) (time.Time, bool) {
	if !l.HasAppointment() {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation("15:04", *l.AppointmentTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	d := *l.AppointmentDate
	return time.Date(d.Year(), d.Month(), d.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), true
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID,
		&l.ClientID,
		&l.ContactName,
		&l.ContactEmail,
		&l.ContactPhone,
		&l.DevelopmentID,
		&l.DevelopmentName,
		&l.DeveloperID,
		&l.ModelOfInterest,
		&l.ReferencePrice,
		&l.CommissionPct,
		&l.Status,
		&l.AssignedAdvisorID,
		&l.AppointmentDate,
		&l.AppointmentTime,
		&l.Origin,
		&l.SourceURL,
		&l.Context,
		&l.ReportedAt,
		&l.FinalAmount,
		&l.FinalModel,
		&l.LostReason,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
