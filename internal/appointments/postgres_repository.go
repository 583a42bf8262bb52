package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldpilot/fieldops-ai-platform/internal/extraction"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithExec(exec querier) *PostgresRepository {
	if exec == nil {
		panic("appointments: exec required")
	}
	return &PostgresRepository{pool: exec}
}

// Create inserts an appointment in scheduled status and returns the row.
func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (*Appointment, error) {
	id := uuid.New()
	query := `
		INSERT INTO appointments (
			id, customer_id, call_id, service, preferred_date, preferred_time,
			urgency, address, budget, notes, status
		)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, customer_id, call_id, service, preferred_date, preferred_time,
		          urgency, address, budget, notes, status, created_at, updated_at
	`
	row := r.pool.QueryRow(ctx, query,
		id,
		params.CustomerID,
		params.CallID,
		params.Service,
		params.PreferredDate,
		params.PreferredTime,
		string(params.Urgency),
		params.Address,
		params.Budget,
		params.Notes,
		StatusScheduled,
	)
	appt, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return appt, nil
}

// GetByID retrieves an appointment by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `
		SELECT id, customer_id, call_id, service, preferred_date, preferred_time,
		       urgency, address, budget, notes, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return appt, nil
}

// List returns appointments ordered newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, customer_id, call_id, service, preferred_date, preferred_time,
		       urgency, address, budget, notes, status, created_at, updated_at
		FROM appointments
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		appt          Appointment
		customerID    *string
		callID        *string
		preferredDate *string
		preferredTime *string
		urgency       *string
		address       *string
		budget        *float64
		notes         *string
		createdAt     time.Time
		updatedAt     time.Time
	)
	if err := row.Scan(
		&appt.ID,
		&customerID,
		&callID,
		&appt.Service,
		&preferredDate,
		&preferredTime,
		&urgency,
		&address,
		&budget,
		&notes,
		&appt.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	appt.CustomerID = derefString(customerID)
	appt.CallID = derefString(callID)
	appt.PreferredDate = derefString(preferredDate)
	appt.PreferredTime = derefString(preferredTime)
	appt.Address = derefString(address)
	appt.Budget = budget
	appt.Notes = derefString(notes)
	if urgency != nil {
		appt.Urgency = extraction.CallUrgency(*urgency)
	}
	appt.CreatedAt = createdAt
	appt.UpdatedAt = updatedAt
	return &appt, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
