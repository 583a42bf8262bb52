package calls

import (
	"context"
	"encoding/json"
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

// PostgresRepository stores calls in the relational database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("calls: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithExec(exec querier) *PostgresRepository {
	if exec == nil {
		panic("calls: exec required")
	}
	return &PostgresRepository{pool: exec}
}

// Create inserts a call row on call.started. A conflicting provider call ID
// leaves the existing row untouched and returns it.
func (r *PostgresRepository) Create(ctx context.Context, providerCallID, callerNumber string) (*Call, error) {
	id := uuid.New()
	query := `
		INSERT INTO calls (id, provider_call_id, caller_number, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider_call_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, id, providerCallID, callerNumber, StatusInProgress); err != nil {
		return nil, fmt.Errorf("calls: insert failed: %w", err)
	}
	return r.GetByProviderID(ctx, providerCallID)
}

// GetByProviderID fetches a call by the voice provider's call ID.
func (r *PostgresRepository) GetByProviderID(ctx context.Context, providerCallID string) (*Call, error) {
	query := `
		SELECT id, provider_call_id, caller_number, duration_seconds, status,
		       transcript, recording_url, extracted_data, validation,
		       appointment_id, customer_id, created_at, updated_at
		FROM calls
		WHERE provider_call_id = $1
	`
	row := r.pool.QueryRow(ctx, query, providerCallID)
	return scanCall(row)
}

// UpdateTranscript replaces the running transcript for an in-flight call.
func (r *PostgresRepository) UpdateTranscript(ctx context.Context, providerCallID, transcript string) error {
	query := `
		UPDATE calls
		SET transcript = $2, updated_at = now()
		WHERE provider_call_id = $1 AND status NOT IN ($3, $4)
	`
	ct, err := r.pool.Exec(ctx, query, providerCallID, transcript, StatusCompleted, StatusConverted)
	if err != nil {
		return fmt.Errorf("calls: update transcript: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCallFinalized
	}
	return nil
}

// Finalize applies end-of-call results. The status guard in the WHERE clause
// keeps redelivered call.ended events from reopening a terminal call.
func (r *PostgresRepository) Finalize(ctx context.Context, providerCallID string, params FinalizeParams) (*Call, error) {
	extractedJSON, err := marshalNullable(params.ExtractedData)
	if err != nil {
		return nil, fmt.Errorf("calls: marshal extracted data: %w", err)
	}
	validationJSON, err := marshalNullable(params.Validation)
	if err != nil {
		return nil, fmt.Errorf("calls: marshal validation: %w", err)
	}

	query := `
		UPDATE calls
		SET status = $2,
		    transcript = COALESCE(NULLIF($3, ''), transcript),
		    recording_url = COALESCE(NULLIF($4, ''), recording_url),
		    duration_seconds = GREATEST(duration_seconds, $5),
		    extracted_data = $6,
		    validation = $7,
		    appointment_id = COALESCE(NULLIF($8, '')::uuid, appointment_id),
		    customer_id = COALESCE(NULLIF($9, '')::uuid, customer_id),
		    updated_at = now()
		WHERE provider_call_id = $1 AND status NOT IN ($10, $11)
	`
	ct, err := r.pool.Exec(ctx, query,
		providerCallID,
		params.Status,
		params.Transcript,
		params.RecordingURL,
		params.DurationSeconds,
		extractedJSON,
		validationJSON,
		params.AppointmentID,
		params.CustomerID,
		StatusCompleted,
		StatusConverted,
	)
	if err != nil {
		return nil, fmt.Errorf("calls: finalize: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// Zero rows means either an unknown call or one the guard skipped.
		if _, err := r.GetByProviderID(ctx, providerCallID); err != nil {
			return nil, err
		}
		return nil, ErrCallFinalized
	}
	return r.GetByProviderID(ctx, providerCallID)
}

// AttachAppointment links the appointment booked from a call back onto it.
func (r *PostgresRepository) AttachAppointment(ctx context.Context, providerCallID, appointmentID string) error {
	query := `
		UPDATE calls
		SET appointment_id = $2::uuid, updated_at = now()
		WHERE provider_call_id = $1
	`
	ct, err := r.pool.Exec(ctx, query, providerCallID, appointmentID)
	if err != nil {
		return fmt.Errorf("calls: attach appointment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCallNotFound
	}
	return nil
}

// List returns calls ordered newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Call, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, provider_call_id, caller_number, duration_seconds, status,
		       transcript, recording_url, extracted_data, validation,
		       appointment_id, customer_id, created_at, updated_at
		FROM calls
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("calls: list: %w", err)
	}
	defer rows.Close()

	var out []*Call
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calls: iterate rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (*Call, error) {
	var (
		call           Call
		callerNumber   *string
		duration       *int
		transcript     *string
		recordingURL   *string
		extractedJSON  []byte
		validationJSON []byte
		appointmentID  *string
		customerID     *string
		createdAt      time.Time
		updatedAt      time.Time
	)
	if err := row.Scan(
		&call.ID,
		&call.ProviderCallID,
		&callerNumber,
		&duration,
		&call.Status,
		&transcript,
		&recordingURL,
		&extractedJSON,
		&validationJSON,
		&appointmentID,
		&customerID,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("calls: scan failed: %w", err)
	}

	call.CallerNumber = derefString(callerNumber)
	call.DurationSeconds = derefInt(duration)
	call.Transcript = derefString(transcript)
	call.RecordingURL = derefString(recordingURL)
	call.AppointmentID = derefString(appointmentID)
	call.CustomerID = derefString(customerID)
	call.CreatedAt = createdAt
	call.UpdatedAt = updatedAt

	if len(extractedJSON) > 0 {
		var data extraction.ExtractedData
		if err := json.Unmarshal(extractedJSON, &data); err != nil {
			return nil, fmt.Errorf("calls: decode extracted data: %w", err)
		}
		call.ExtractedData = &data
	}
	if len(validationJSON) > 0 {
		var v extraction.ValidationResult
		if err := json.Unmarshal(validationJSON, &v); err != nil {
			return nil, fmt.Errorf("calls: decode validation: %w", err)
		}
		call.Validation = &v
	}
	return &call, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch value := v.(type) {
	case *extraction.ExtractedData:
		if value == nil {
			return nil, nil
		}
	case *extraction.ValidationResult:
		if value == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
