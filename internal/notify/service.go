package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldpilot/fieldops-ai-platform/internal/appointments"
	"github.com/fieldpilot/fieldops-ai-platform/internal/calls"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

// Service emails the business owner about intake outcomes: appointments the
// assistant booked and calls that need a human callback.
type Service struct {
	email      EmailSender
	ownerEmail string
	ownerName  string
	logger     *logging.Logger
}

// ServiceConfig wires a notification Service.
type ServiceConfig struct {
	Email      EmailSender
	OwnerEmail string
	OwnerName  string
	Logger     *logging.Logger
}

// NewService creates a notification service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      cfg.Email,
		ownerEmail: cfg.OwnerEmail,
		ownerName:  cfg.OwnerName,
		logger:     logger,
	}
}

// AppointmentBooked tells the owner the assistant booked a job from a call.
func (s *Service) AppointmentBooked(ctx context.Context, call *calls.Call, appt *appointments.Appointment) error {
	if s.email == nil || s.ownerEmail == "" {
		s.logger.Debug("notify: email not configured, skipping appointment notification")
		return nil
	}

	name := "A caller"
	phone := call.CallerNumber
	if call.ExtractedData != nil {
		if call.ExtractedData.CustomerName != "" {
			name = call.ExtractedData.CustomerName
		}
		if call.ExtractedData.CustomerPhone != "" {
			phone = call.ExtractedData.CustomerPhone
		}
	}

	details := []string{
		fmt.Sprintf("Customer: %s", name),
		fmt.Sprintf("Phone: %s", phone),
		fmt.Sprintf("Service: %s", appt.Service),
	}
	if appt.PreferredDate != "" || appt.PreferredTime != "" {
		details = append(details, fmt.Sprintf("Requested: %s %s", appt.PreferredDate, appt.PreferredTime))
	}
	if appt.Urgency != "" {
		details = append(details, fmt.Sprintf("Urgency: %s", appt.Urgency))
	}
	if appt.Budget != nil {
		details = append(details, fmt.Sprintf("Budget: $%.2f", *appt.Budget))
	}
	if appt.Notes != "" {
		details = append(details, fmt.Sprintf("Notes: %s", appt.Notes))
	}

	msg := EmailMessage{
		To:      s.ownerEmail,
		ToName:  s.ownerName,
		Subject: fmt.Sprintf("New appointment booked - %s", appt.Service),
		Body: fmt.Sprintf(`The phone assistant booked a new appointment.

%s

Call recording: %s
`, strings.Join(details, "\n"), recordingOrDash(call.RecordingURL)),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: appointment booked email: %w", err)
	}
	return nil
}

// ReviewNeeded tells the owner a call ended without enough information to
// book, so someone should call back.
func (s *Service) ReviewNeeded(ctx context.Context, call *calls.Call, validationErrors []string) error {
	if s.email == nil || s.ownerEmail == "" {
		s.logger.Debug("notify: email not configured, skipping review notification")
		return nil
	}

	issues := "- (none recorded)"
	if len(validationErrors) > 0 {
		issues = "- " + strings.Join(validationErrors, "\n- ")
	}

	msg := EmailMessage{
		To:      s.ownerEmail,
		ToName:  s.ownerName,
		Subject: "Call needs follow-up",
		Body: fmt.Sprintf(`A call ended but the assistant could not gather enough to book an appointment.

Caller: %s
Missing or invalid:
%s

Call recording: %s

Please call back to complete the booking.
`, callerOrUnknown(call.CallerNumber), issues, recordingOrDash(call.RecordingURL)),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: review needed email: %w", err)
	}
	return nil
}

func recordingOrDash(url string) string {
	if url == "" {
		return "-"
	}
	return url
}

func callerOrUnknown(number string) string {
	if number == "" {
		return "unknown number"
	}
	return number
}

var _ appointments.Notifier = (*Service)(nil)
