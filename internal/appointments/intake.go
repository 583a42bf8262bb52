package appointments

import (
	"context"
	"fmt"

	"github.com/fieldpilot/fieldops-ai-platform/internal/calls"
	"github.com/fieldpilot/fieldops-ai-platform/internal/customers"
	"github.com/fieldpilot/fieldops-ai-platform/internal/extraction"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

// Notifier tells the business owner about intake outcomes. Delivery failures
// never fail the intake itself.
type Notifier interface {
	AppointmentBooked(ctx context.Context, call *calls.Call, appt *Appointment) error
	ReviewNeeded(ctx context.Context, call *calls.Call, validationErrors []string) error
}

// IntakeService turns end-of-call extraction results into appointment and
// customer records, or parks the call for human review when validation fails.
type IntakeService struct {
	calls        calls.Repository
	customers    customers.Repository
	appointments Repository
	notifier     Notifier
	logger       *logging.Logger
}

// IntakeConfig wires an IntakeService.
type IntakeConfig struct {
	Calls        calls.Repository
	Customers    customers.Repository
	Appointments Repository
	Notifier     Notifier
	Logger       *logging.Logger
}

func NewIntakeService(cfg IntakeConfig) *IntakeService {
	if cfg.Calls == nil || cfg.Customers == nil || cfg.Appointments == nil {
		panic("appointments: calls, customers, and appointments repositories required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &IntakeService{
		calls:        cfg.Calls,
		customers:    cfg.Customers,
		appointments: cfg.Appointments,
		notifier:     cfg.Notifier,
		logger:       logger,
	}
}

// EndOfCall carries what the provider reported when the call ended alongside
// what extraction produced from the transcript.
type EndOfCall struct {
	Transcript      string
	RecordingURL    string
	DurationSeconds int
	CallerNumber    string
	Data            extraction.ExtractedData
	Validation      extraction.ValidationResult
}

// IntakeOutcome is the result of completing a call.
type IntakeOutcome struct {
	Call        *calls.Call
	Customer    *customers.Customer
	Appointment *Appointment
}

// Converted reports whether the call produced an appointment.
func (o *IntakeOutcome) Converted() bool {
	return o != nil && o.Appointment != nil
}

// Complete finalizes the call with the extraction results. A valid extraction
// books an appointment, links or creates the customer, and marks the call
// converted. An invalid one stores the extraction and its errors on the call
// in followup_needed status so staff can call back. Finalizing a call that is
// already terminal returns calls.ErrCallFinalized untouched so webhook
// redeliveries stay no-ops.
func (s *IntakeService) Complete(ctx context.Context, providerCallID string, end EndOfCall) (*IntakeOutcome, error) {
	if !end.Validation.IsValid {
		return s.parkForReview(ctx, providerCallID, end)
	}
	return s.book(ctx, providerCallID, end)
}

func (s *IntakeService) book(ctx context.Context, providerCallID string, end EndOfCall) (*IntakeOutcome, error) {
	var customer *customers.Customer
	phone := end.Data.CustomerPhone
	if phone == "" {
		phone = customers.NormalizePhone(end.CallerNumber)
	}
	if phone != "" {
		var err error
		customer, err = s.customers.GetOrCreateByPhone(ctx, phone, customers.Profile{
			Name:    end.Data.CustomerName,
			Email:   end.Data.CustomerEmail,
			Address: end.Data.Address,
			Source:  "voice",
		})
		if err != nil {
			return nil, fmt.Errorf("appointments: upsert customer: %w", err)
		}
	}

	customerID := ""
	if customer != nil {
		customerID = customer.ID
	}

	// Claim the call before booking anything. Finalize's status guard admits
	// exactly one caller per call, so concurrent duplicate deliveries cannot
	// each create an appointment.
	call, err := s.calls.Finalize(ctx, providerCallID, calls.FinalizeParams{
		Status:          calls.StatusConverted,
		Transcript:      end.Transcript,
		RecordingURL:    end.RecordingURL,
		DurationSeconds: end.DurationSeconds,
		ExtractedData:   &end.Data,
		Validation:      &end.Validation,
		CustomerID:      customerID,
	})
	if err != nil {
		return nil, err
	}

	appt, err := s.appointments.Create(ctx, CreateParams{
		CustomerID:    customerID,
		CallID:        call.ID,
		Service:       end.Data.ServiceRequested,
		PreferredDate: end.Data.PreferredDate,
		PreferredTime: end.Data.PreferredTime,
		Urgency:       end.Data.Urgency,
		Address:       end.Data.Address,
		Budget:        end.Data.Budget,
		Notes:         end.Data.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: create appointment: %w", err)
	}

	if err := s.calls.AttachAppointment(ctx, providerCallID, appt.ID); err != nil {
		return nil, fmt.Errorf("appointments: link appointment: %w", err)
	}
	call.AppointmentID = appt.ID

	if s.notifier != nil {
		if err := s.notifier.AppointmentBooked(ctx, call, appt); err != nil {
			s.logger.Error("appointment booked notification failed", "call_id", call.ID, "error", err)
		}
	}
	s.logger.Info("call converted to appointment",
		"call_id", call.ID, "appointment_id", appt.ID, "urgency", string(appt.Urgency))

	return &IntakeOutcome{Call: call, Customer: customer, Appointment: appt}, nil
}

func (s *IntakeService) parkForReview(ctx context.Context, providerCallID string, end EndOfCall) (*IntakeOutcome, error) {
	call, err := s.calls.Finalize(ctx, providerCallID, calls.FinalizeParams{
		Status:          calls.StatusFollowupNeeded,
		Transcript:      end.Transcript,
		RecordingURL:    end.RecordingURL,
		DurationSeconds: end.DurationSeconds,
		ExtractedData:   &end.Data,
		Validation:      &end.Validation,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.ReviewNeeded(ctx, call, end.Validation.Errors); err != nil {
			s.logger.Error("review needed notification failed", "call_id", call.ID, "error", err)
		}
	}
	s.logger.Info("call parked for review",
		"call_id", call.ID, "validation_errors", len(end.Validation.Errors))

	return &IntakeOutcome{Call: call}, nil
}
