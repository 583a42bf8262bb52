package calls

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func callColumns() []string {
	return []string{
		"id", "provider_call_id", "caller_number", "duration_seconds", "status",
		"transcript", "recording_url", "extracted_data", "validation",
		"appointment_id", "customer_id", "created_at", "updated_at",
	}
}

func TestPostgresRepository_GetByProviderID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)

	now := time.Now().UTC()
	caller := "+15551234567"
	extracted := []byte(`{"customerName":"Jane Doe","urgency":"emergency"}`)
	mock.ExpectQuery("SELECT (.+) FROM calls").
		WithArgs("vapi-1").
		WillReturnRows(pgxmock.NewRows(callColumns()).AddRow(
			"11111111-1111-1111-1111-111111111111", "vapi-1", &caller, nil,
			StatusInProgress, nil, nil, extracted, nil, nil, nil, now, now,
		))

	call, err := repo.GetByProviderID(context.Background(), "vapi-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.CallerNumber != caller {
		t.Errorf("expected caller %s, got %s", caller, call.CallerNumber)
	}
	if call.ExtractedData == nil || call.ExtractedData.CustomerName != "Jane Doe" {
		t.Errorf("expected extracted data decoded, got %+v", call.ExtractedData)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_UpdateTranscript_Finalized(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)

	mock.ExpectExec("UPDATE calls").
		WithArgs("vapi-1", "new transcript", StatusCompleted, StatusConverted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateTranscript(context.Background(), "vapi-1", "new transcript")
	if !errors.Is(err, ErrCallFinalized) {
		t.Fatalf("expected ErrCallFinalized, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_Finalize_RedeliveryIsNoOp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE calls").
		WithArgs("vapi-1", StatusCompleted, "final", "", 0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), "", "",
			StatusCompleted, StatusConverted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM calls").
		WithArgs("vapi-1").
		WillReturnRows(pgxmock.NewRows(callColumns()).AddRow(
			"11111111-1111-1111-1111-111111111111", "vapi-1", nil, nil,
			StatusCompleted, nil, nil, nil, nil, nil, nil, now, now,
		))

	_, err = repo.Finalize(context.Background(), "vapi-1", FinalizeParams{
		Status:     StatusCompleted,
		Transcript: "final",
	})
	if !errors.Is(err, ErrCallFinalized) {
		t.Fatalf("expected ErrCallFinalized, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_Finalize_UnknownCall(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)

	mock.ExpectExec("UPDATE calls").
		WithArgs("vapi-missing", StatusCompleted, "", "", 0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), "", "",
			StatusCompleted, StatusConverted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM calls").
		WithArgs("vapi-missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Finalize(context.Background(), "vapi-missing", FinalizeParams{Status: StatusCompleted})
	if !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound for unknown call, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_AttachAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)

	apptID := "22222222-2222-2222-2222-222222222222"
	mock.ExpectExec("UPDATE calls").
		WithArgs("vapi-1", apptID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.AttachAppointment(context.Background(), "vapi-1", apptID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE calls").
		WithArgs("vapi-missing", apptID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.AttachAppointment(context.Background(), "vapi-missing", apptID); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
