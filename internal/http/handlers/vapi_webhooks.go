package handlers

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fieldpilot/fieldops-ai-platform/internal/appointments"
	"github.com/fieldpilot/fieldops-ai-platform/internal/calls"
	"github.com/fieldpilot/fieldops-ai-platform/internal/extraction"
	observemetrics "github.com/fieldpilot/fieldops-ai-platform/internal/observability/metrics"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

type processedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// VAPIWebhookHandler receives call lifecycle events from the voice provider
// and drives the extraction pipeline. Delivery is at-least-once, so every
// branch has to tolerate duplicates.
type VAPIWebhookHandler struct {
	calls     calls.Repository
	intake    *appointments.IntakeService
	extractor *extraction.Extractor
	processed processedTracker
	logger    *logging.Logger
	secret    string
	metrics   *observemetrics.IntakeMetrics
}

type VAPIWebhookConfig struct {
	Calls     calls.Repository
	Intake    *appointments.IntakeService
	Extractor *extraction.Extractor
	Processed processedTracker
	Logger    *logging.Logger
	Secret    string
	Metrics   *observemetrics.IntakeMetrics
}

func NewVAPIWebhookHandler(cfg VAPIWebhookConfig) *VAPIWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extraction.NewExtractor()
	}
	return &VAPIWebhookHandler{
		calls:     cfg.Calls,
		intake:    cfg.Intake,
		extractor: extractor,
		processed: cfg.Processed,
		logger:    cfg.Logger,
		secret:    cfg.Secret,
		metrics:   cfg.Metrics,
	}
}

// VAPIWebhookPayload is the provider's lifecycle event envelope. Timestamp is
// kept raw because the provider has shipped both epoch millis and RFC 3339
// strings in the same field.
type VAPIWebhookPayload struct {
	Type      string            `json:"type"`
	Call      VAPICallPayload   `json:"call"`
	Timestamp json.RawMessage   `json:"timestamp,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type VAPICallPayload struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Status      string `json:"status,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
	Recording   string `json:"recording,omitempty"`
}

// eventID builds the idempotency key for a delivery. The provider does not
// send a dedicated event id, so type, call id, and the raw timestamp together
// identify one delivery; a redelivery carries the same three values.
func (p VAPIWebhookPayload) eventID() string {
	ts := strings.Trim(string(bytes.TrimSpace(p.Timestamp)), `"`)
	if ts == "" {
		return fmt.Sprintf("%s:%s", p.Type, p.Call.ID)
	}
	return fmt.Sprintf("%s:%s:%s", p.Type, p.Call.ID, ts)
}

// Handle processes POST /webhooks/vapi.
func (h *VAPIWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.secret != "" {
		provided := r.Header.Get("X-Vapi-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			h.logger.Warn("vapi webhook secret mismatch")
			writeAPIError(w, http.StatusUnauthorized, "invalid webhook secret")
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid body")
		return
	}
	var payload VAPIWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.Type == "" || payload.Call.ID == "" {
		writeAPIError(w, http.StatusBadRequest, "missing event type or call id")
		return
	}

	eventID := payload.eventID()
	if processed, err := h.processed.AlreadyProcessed(r.Context(), "vapi", eventID); err != nil {
		h.logger.Error("processed lookup failed", "error", err, "event_id", eventID)
		h.observe(payload.Type, "error", start)
		writeAPIError(w, http.StatusInternalServerError, "internal server error")
		return
	} else if processed {
		h.observe(payload.Type, "duplicate", start)
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "event already processed"})
		return
	}

	var (
		resp       APIResponse
		handlerErr error
	)
	switch payload.Type {
	case "call.started":
		resp, handlerErr = h.handleCallStarted(r.Context(), payload)
	case "transcript.updated":
		resp, handlerErr = h.handleTranscriptUpdated(r.Context(), payload)
	case "call.ended":
		resp, handlerErr = h.handleCallEnded(r.Context(), payload)
	case "function.called":
		resp, handlerErr = h.handleFunctionCalled(r.Context(), payload)
	default:
		h.logger.Info("unknown webhook event type acknowledged", "event_type", payload.Type, "call_id", payload.Call.ID)
		resp = APIResponse{Success: true, Message: fmt.Sprintf("event type %s acknowledged", payload.Type)}
	}

	if handlerErr != nil {
		h.logger.Error("vapi webhook handling failed",
			"error", handlerErr, "event_type", payload.Type, "call_id", payload.Call.ID)
		h.observe(payload.Type, "error", start)
		writeAPIError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if _, err := h.processed.MarkProcessed(r.Context(), "vapi", eventID); err != nil {
		h.logger.Error("failed to mark vapi event processed", "error", err, "event_id", eventID)
	}
	h.observe(payload.Type, "ok", start)
	writeJSON(w, http.StatusOK, resp)
}

func (h *VAPIWebhookHandler) observe(eventType, status string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveWebhook(eventType, status)
	h.metrics.ObserveWebhookLatency(eventType, time.Since(start).Seconds())
}

func (h *VAPIWebhookHandler) handleCallStarted(ctx context.Context, payload VAPIWebhookPayload) (APIResponse, error) {
	call, err := h.calls.Create(ctx, payload.Call.ID, payload.Call.PhoneNumber)
	if err != nil {
		return APIResponse{}, fmt.Errorf("create call: %w", err)
	}
	h.logger.Info("call started", "call_id", call.ID, "provider_call_id", call.ProviderCallID)
	return APIResponse{Success: true, Message: "call started", Data: call}, nil
}

func (h *VAPIWebhookHandler) handleTranscriptUpdated(ctx context.Context, payload VAPIWebhookPayload) (APIResponse, error) {
	err := h.calls.UpdateTranscript(ctx, payload.Call.ID, payload.Call.Transcript)
	switch {
	case errors.Is(err, calls.ErrCallNotFound):
		// The call.started delivery may still be in flight. Register the
		// call so the transcript is not lost.
		if _, err := h.calls.Create(ctx, payload.Call.ID, payload.Call.PhoneNumber); err != nil {
			return APIResponse{}, fmt.Errorf("create call for transcript: %w", err)
		}
		if err := h.calls.UpdateTranscript(ctx, payload.Call.ID, payload.Call.Transcript); err != nil {
			return APIResponse{}, fmt.Errorf("update transcript: %w", err)
		}
	case errors.Is(err, calls.ErrCallFinalized):
		return APIResponse{Success: true, Message: "call already finalized"}, nil
	case err != nil:
		return APIResponse{}, fmt.Errorf("update transcript: %w", err)
	}
	return APIResponse{Success: true, Message: "transcript updated"}, nil
}

func (h *VAPIWebhookHandler) handleCallEnded(ctx context.Context, payload VAPIWebhookPayload) (APIResponse, error) {
	call, err := h.calls.GetByProviderID(ctx, payload.Call.ID)
	if errors.Is(err, calls.ErrCallNotFound) {
		call, err = h.calls.Create(ctx, payload.Call.ID, payload.Call.PhoneNumber)
	}
	if err != nil {
		return APIResponse{}, fmt.Errorf("load call: %w", err)
	}
	if call.Status.Terminal() {
		return APIResponse{Success: true, Message: "call already finalized"}, nil
	}

	transcript := payload.Call.Transcript
	if transcript == "" {
		transcript = call.Transcript
	}
	callerNumber := payload.Call.PhoneNumber
	if callerNumber == "" {
		callerNumber = call.CallerNumber
	}

	data := h.extractor.Extract(ctx, transcript)
	validation := extraction.Validate(data)
	if h.metrics != nil {
		h.metrics.ObserveExtraction(validation.IsValid)
	}

	outcome, err := h.intake.Complete(ctx, payload.Call.ID, appointments.EndOfCall{
		Transcript:      transcript,
		RecordingURL:    payload.Call.Recording,
		DurationSeconds: payload.Call.Duration,
		CallerNumber:    callerNumber,
		Data:            data,
		Validation:      validation,
	})
	if errors.Is(err, calls.ErrCallFinalized) {
		return APIResponse{Success: true, Message: "call already finalized"}, nil
	}
	if err != nil {
		return APIResponse{}, fmt.Errorf("complete call: %w", err)
	}

	message := "call ended, review needed"
	if outcome.Converted() {
		message = "call ended, appointment created"
	}
	return APIResponse{Success: true, Message: message, Data: outcome.Call}, nil
}

// handleFunctionCalled acknowledges assistant tool invocations. Scheduling
// actions the assistant takes mid-call arrive here; the platform only logs
// them because the call.ended extraction is the system of record.
func (h *VAPIWebhookHandler) handleFunctionCalled(ctx context.Context, payload VAPIWebhookPayload) (APIResponse, error) {
	h.logger.Info("assistant function called",
		"call_id", payload.Call.ID, "function", payload.Metadata["function"])
	return APIResponse{Success: true, Message: "function call acknowledged"}, nil
}
