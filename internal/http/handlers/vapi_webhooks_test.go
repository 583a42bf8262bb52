package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fieldpilot/fieldops-ai-platform/internal/appointments"
	"github.com/fieldpilot/fieldops-ai-platform/internal/calls"
	"github.com/fieldpilot/fieldops-ai-platform/internal/customers"
)

type memoryTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newMemoryTracker() *memoryTracker {
	return &memoryTracker{seen: make(map[string]struct{})}
}

func (m *memoryTracker) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[provider+":"+eventID]
	return ok, nil
}

func (m *memoryTracker) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := provider + ":" + eventID
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}
	return true, nil
}

type webhookFixture struct {
	handler      *VAPIWebhookHandler
	calls        calls.Repository
	appointments appointments.Repository
}

func newWebhookFixture(t *testing.T, secret string) *webhookFixture {
	t.Helper()
	callRepo := calls.NewInMemoryRepository()
	apptRepo := appointments.NewInMemoryRepository()
	intake := appointments.NewIntakeService(appointments.IntakeConfig{
		Calls:        callRepo,
		Customers:    customers.NewInMemoryRepository(),
		Appointments: apptRepo,
	})
	handler := NewVAPIWebhookHandler(VAPIWebhookConfig{
		Calls:     callRepo,
		Intake:    intake,
		Processed: newMemoryTracker(),
		Secret:    secret,
	})
	return &webhookFixture{handler: handler, calls: callRepo, appointments: apptRepo}
}

func (f *webhookFixture) deliver(t *testing.T, secret string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/vapi", bytes.NewReader(body))
	if secret != "" {
		req.Header.Set("X-Vapi-Secret", secret)
	}
	rec := httptest.NewRecorder()
	f.handler.Handle(rec, req)
	return rec
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

const janeDoeTranscript = "Hi this is Jane Doe, my email is jane@example.com, I need a water heater repair, it's an emergency, budget around $500"

func webhookEvent(eventType, callID string, ts int64, call VAPICallPayload) VAPIWebhookPayload {
	call.ID = callID
	return VAPIWebhookPayload{
		Type:      eventType,
		Call:      call,
		Timestamp: json.RawMessage(fmt.Sprintf("%d", ts)),
	}
}

func TestVAPIWebhookCallLifecycle(t *testing.T) {
	f := newWebhookFixture(t, "")

	rec := f.deliver(t, "", webhookEvent("call.started", "call-1", 1000, VAPICallPayload{PhoneNumber: "+15551234567"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("call.started: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.deliver(t, "", webhookEvent("transcript.updated", "call-1", 2000, VAPICallPayload{Transcript: "Hi this is Jane"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("transcript.updated: expected 200, got %d", rec.Code)
	}

	rec = f.deliver(t, "", webhookEvent("call.ended", "call-1", 3000, VAPICallPayload{
		Transcript: janeDoeTranscript,
		Duration:   180,
		Recording:  "https://recordings.example/call-1.mp3",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("call.ended: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}

	call, err := f.calls.GetByProviderID(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("load call: %v", err)
	}
	if call.Status != calls.StatusConverted {
		t.Errorf("expected converted call, got %s", call.Status)
	}
	if call.AppointmentID == "" {
		t.Error("call not linked to appointment")
	}
	if call.ExtractedData == nil || call.ExtractedData.CustomerName != "Jane Doe" {
		t.Errorf("extracted data missing or wrong: %+v", call.ExtractedData)
	}
	if call.Validation == nil || !call.Validation.IsValid {
		t.Errorf("expected valid extraction stored on call: %+v", call.Validation)
	}

	appts, err := f.appointments.List(context.Background(), appointments.ListFilter{})
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("expected one appointment, got %d", len(appts))
	}
}

func TestVAPIWebhookDuplicateDeliveryIsNoOp(t *testing.T) {
	f := newWebhookFixture(t, "")

	f.deliver(t, "", webhookEvent("call.started", "call-2", 1000, VAPICallPayload{}))
	ended := webhookEvent("call.ended", "call-2", 2000, VAPICallPayload{Transcript: janeDoeTranscript})

	rec := f.deliver(t, "", ended)
	if rec.Code != http.StatusOK {
		t.Fatalf("first delivery: expected 200, got %d", rec.Code)
	}

	// Exact redelivery: caught by the processed-event tracker.
	rec = f.deliver(t, "", ended)
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery must still ack 200, got %d", rec.Code)
	}
	resp := decodeAPIResponse(t, rec)
	if !resp.Success || resp.Message != "event already processed" {
		t.Fatalf("expected duplicate ack, got %+v", resp)
	}

	// Same event with a new timestamp: caught by the terminal-status guard.
	rec = f.deliver(t, "", webhookEvent("call.ended", "call-2", 9000, VAPICallPayload{Transcript: janeDoeTranscript}))
	if rec.Code != http.StatusOK {
		t.Fatalf("late redelivery must still ack 200, got %d", rec.Code)
	}
	resp = decodeAPIResponse(t, rec)
	if !resp.Success || resp.Message != "call already finalized" {
		t.Fatalf("expected finalized ack, got %+v", resp)
	}

	appts, err := f.appointments.List(context.Background(), appointments.ListFilter{})
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("duplicate deliveries must not create extra appointments, got %d", len(appts))
	}
}

func TestVAPIWebhookInvalidExtractionParksCall(t *testing.T) {
	f := newWebhookFixture(t, "")

	f.deliver(t, "", webhookEvent("call.started", "call-3", 1000, VAPICallPayload{}))
	rec := f.deliver(t, "", webhookEvent("call.ended", "call-3", 2000, VAPICallPayload{
		Transcript: "uh hello hello can you hear me",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("invalid extraction must still ack 200, got %d", rec.Code)
	}

	call, err := f.calls.GetByProviderID(context.Background(), "call-3")
	if err != nil {
		t.Fatalf("load call: %v", err)
	}
	if call.Status != calls.StatusFollowupNeeded {
		t.Errorf("expected followup_needed, got %s", call.Status)
	}
	if call.Validation == nil || call.Validation.IsValid {
		t.Errorf("expected failed validation stored on call: %+v", call.Validation)
	}
}

func TestVAPIWebhookTranscriptBeforeCallStarted(t *testing.T) {
	f := newWebhookFixture(t, "")

	rec := f.deliver(t, "", webhookEvent("transcript.updated", "call-4", 1000, VAPICallPayload{Transcript: "hello"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	call, err := f.calls.GetByProviderID(context.Background(), "call-4")
	if err != nil {
		t.Fatalf("expected call to be registered: %v", err)
	}
	if call.Transcript != "hello" {
		t.Errorf("transcript not stored: %q", call.Transcript)
	}
}

func TestVAPIWebhookUnknownTypeAcknowledged(t *testing.T) {
	f := newWebhookFixture(t, "")

	rec := f.deliver(t, "", webhookEvent("speech.interrupted", "call-5", 1000, VAPICallPayload{}))
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown type must be acknowledged 200, got %d", rec.Code)
	}
	resp := decodeAPIResponse(t, rec)
	if !resp.Success {
		t.Fatalf("unknown type ack must be success, got %+v", resp)
	}
}

func TestVAPIWebhookBadRequests(t *testing.T) {
	f := newWebhookFixture(t, "")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/vapi", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.handler.Handle(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: expected 400, got %d", rec.Code)
	}

	rec = f.deliver(t, "", VAPIWebhookPayload{Type: "call.started"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing call id: expected 400, got %d", rec.Code)
	}
}

func TestVAPIWebhookSecretEnforced(t *testing.T) {
	f := newWebhookFixture(t, "hook-secret")

	rec := f.deliver(t, "wrong", webhookEvent("call.started", "call-6", 1000, VAPICallPayload{}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: expected 401, got %d", rec.Code)
	}

	rec = f.deliver(t, "hook-secret", webhookEvent("call.started", "call-6", 1000, VAPICallPayload{}))
	if rec.Code != http.StatusOK {
		t.Fatalf("correct secret: expected 200, got %d", rec.Code)
	}
}

func TestVAPIWebhookFunctionCalled(t *testing.T) {
	f := newWebhookFixture(t, "")

	payload := webhookEvent("function.called", "call-7", 1000, VAPICallPayload{})
	payload.Metadata = map[string]string{"function": "check_availability"}
	rec := f.deliver(t, "", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeAPIResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success ack, got %+v", resp)
	}
}
