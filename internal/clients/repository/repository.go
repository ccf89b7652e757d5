// Package repository persists Client identities, the anchor for lead dedup.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Client is a deduplicated contact identity. At most one row exists per email
// and per phone lookup key; rows are never hard-deleted.
type Client struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	PhoneKey  string
	Role      string
	Origin    string
	CreatedAt time.Time
	LastSeen  time.Time
}

// CreateParams holds the fields for a new client row.
type CreateParams struct {
	Name     string
	Email    string
	Phone    string
	PhoneKey string
	Origin   string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `id, name, COALESCE(email, ''), phone, phone_key, role, origin, created_at, last_seen`

// FindByEmail returns the client with the given email, or nil when absent.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email),
	)
	return scanClient(row)
}

// FindByPhoneKey returns the client with the given phone lookup key, or nil when absent.
func (r *Repository) FindByPhoneKey(ctx context.Context, phoneKey string) (*Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE phone_key = $1`,
		phoneKey,
	)
	return scanClient(row)
}

// GetByID returns the client with the given id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

// UpsertByEmail atomically creates the client or, when a row with the same
// email already exists, refreshes last_seen and returns the winning row.
// The unique index on lower(email) makes concurrent first-contact intakes
// converge on a single identity instead of racing read-then-create.
func (r *Repository) UpsertByEmail(ctx context.Context, p CreateParams) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, phone_key, role, origin)
		VALUES ($1, $2, $3, $4, 'prospect', $5)
		ON CONFLICT (lower(email)) WHERE email IS NOT NULL AND email <> ''
		DO UPDATE SET last_seen = now()
		RETURNING `+clientColumns,
		p.Name, strings.TrimSpace(p.Email), p.Phone, p.PhoneKey, p.Origin,
	)
	client, err := scanClient(row)
	if err != nil {
		return nil, fmt.Errorf("upsert client by email: %w", err)
	}
	return client, nil
}

// UpsertByPhone atomically creates the client or, when a row with the same
// phone key already exists, refreshes the phone fields and last_seen.
func (r *Repository) UpsertByPhone(ctx context.Context, p CreateParams) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, phone_key, role, origin)
		VALUES ($1, $2, $3, $4, 'prospect', $5)
		ON CONFLICT (phone_key) WHERE phone_key <> ''
		DO UPDATE SET phone = EXCLUDED.phone, last_seen = now()
		RETURNING `+clientColumns,
		p.Name, strings.TrimSpace(p.Email), p.Phone, p.PhoneKey, p.Origin,
	)
	client, err := scanClient(row)
	if err != nil {
		return nil, fmt.Errorf("upsert client by phone: %w", err)
	}
	return client, nil
}

// TouchLastSeen stamps the client's last resolution time.
func (r *Repository) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE clients SET last_seen = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch client: %w", err)
	}
	return nil
}

// UpdatePhone refreshes a client's phone fields and last_seen.
func (r *Repository) UpdatePhone(ctx context.Context, id uuid.UUID, phone, phoneKey string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE clients SET phone = $2, phone_key = $3, last_seen = now() WHERE id = $1`,
		id, phone, phoneKey,
	)
	if err != nil {
		return fmt.Errorf("update client phone: %w", err)
	}
	return nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.PhoneKey,
		&c.Role,
		&c.Origin,
		&c.CreatedAt,
		&c.LastSeen,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
