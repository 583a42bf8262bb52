package calls

import (
	"time"

	"github.com/fieldpilot/fieldops-ai-platform/internal/extraction"
)

// CallStatus tracks where a call sits in the intake lifecycle.
type CallStatus string

const (
	StatusInProgress     CallStatus = "in_progress"
	StatusCompleted      CallStatus = "completed"
	StatusMissed         CallStatus = "missed"
	StatusFollowupNeeded CallStatus = "followup_needed"
	StatusConverted      CallStatus = "converted"
)

// Terminal reports whether a call has reached a final status. Terminal calls
// are never reopened: duplicate webhook deliveries against them are no-ops.
func (s CallStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusConverted
}

// Call is one voice-provider call and everything extracted from it.
type Call struct {
	ID              string                      `json:"id"`
	ProviderCallID  string                      `json:"provider_call_id"`
	CallerNumber    string                      `json:"caller_number,omitempty"`
	DurationSeconds int                         `json:"duration_seconds,omitempty"`
	Status          CallStatus                  `json:"status"`
	Transcript      string                      `json:"transcript,omitempty"`
	RecordingURL    string                      `json:"recording_url,omitempty"`
	ExtractedData   *extraction.ExtractedData   `json:"extracted_data,omitempty"`
	Validation      *extraction.ValidationResult `json:"validation,omitempty"`
	AppointmentID   string                      `json:"appointment_id,omitempty"`
	CustomerID      string                      `json:"customer_id,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// FinalizeParams carries everything learned when a call ends.
type FinalizeParams struct {
	Status          CallStatus
	Transcript      string
	RecordingURL    string
	DurationSeconds int
	ExtractedData   *extraction.ExtractedData
	Validation      *extraction.ValidationResult
	AppointmentID   string
	CustomerID      string
}

// ListFilter narrows admin call listings.
type ListFilter struct {
	Status CallStatus
	Limit  int
	Offset int
}
