package calls

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for call storage.
type Repository interface {
	Create(ctx context.Context, providerCallID, callerNumber string) (*Call, error)
	GetByProviderID(ctx context.Context, providerCallID string) (*Call, error)
	UpdateTranscript(ctx context.Context, providerCallID, transcript string) error
	Finalize(ctx context.Context, providerCallID string, params FinalizeParams) (*Call, error)
	AttachAppointment(ctx context.Context, providerCallID, appointmentID string) error
	List(ctx context.Context, filter ListFilter) ([]*Call, error)
}

// InMemoryRepository keeps calls in memory, for tests and single-node demos.
type InMemoryRepository struct {
	mu    sync.RWMutex
	calls map[string]*Call // keyed by provider call ID
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		calls: make(map[string]*Call),
	}
}

// Create registers a call when the provider reports call.started. If the
// provider call ID is already known the existing record is returned so that
// duplicate call.started deliveries stay idempotent.
func (r *InMemoryRepository) Create(ctx context.Context, providerCallID, callerNumber string) (*Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.calls[providerCallID]; ok {
		return cloneCall(existing), nil
	}

	now := time.Now().UTC()
	call := &Call{
		ID:             uuid.New().String(),
		ProviderCallID: providerCallID,
		CallerNumber:   callerNumber,
		Status:         StatusInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.calls[providerCallID] = call
	return cloneCall(call), nil
}

// GetByProviderID retrieves a call by the voice provider's call ID.
func (r *InMemoryRepository) GetByProviderID(ctx context.Context, providerCallID string) (*Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	call, ok := r.calls[providerCallID]
	if !ok {
		return nil, ErrCallNotFound
	}
	return cloneCall(call), nil
}

// UpdateTranscript replaces the running transcript for an in-flight call.
func (r *InMemoryRepository) UpdateTranscript(ctx context.Context, providerCallID, transcript string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.calls[providerCallID]
	if !ok {
		return ErrCallNotFound
	}
	if call.Status.Terminal() {
		return ErrCallFinalized
	}
	call.Transcript = transcript
	call.UpdatedAt = time.Now().UTC()
	return nil
}

// Finalize applies end-of-call results. Finalizing an already-terminal call
// returns ErrCallFinalized so webhook redelivery stays a no-op.
func (r *InMemoryRepository) Finalize(ctx context.Context, providerCallID string, params FinalizeParams) (*Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.calls[providerCallID]
	if !ok {
		return nil, ErrCallNotFound
	}
	if call.Status.Terminal() {
		return nil, ErrCallFinalized
	}

	call.Status = params.Status
	if params.Transcript != "" {
		call.Transcript = params.Transcript
	}
	if params.RecordingURL != "" {
		call.RecordingURL = params.RecordingURL
	}
	if params.DurationSeconds > 0 {
		call.DurationSeconds = params.DurationSeconds
	}
	call.ExtractedData = params.ExtractedData
	call.Validation = params.Validation
	if params.AppointmentID != "" {
		call.AppointmentID = params.AppointmentID
	}
	if params.CustomerID != "" {
		call.CustomerID = params.CustomerID
	}
	call.UpdatedAt = time.Now().UTC()
	return cloneCall(call), nil
}

// AttachAppointment links the appointment booked from a call back onto it.
func (r *InMemoryRepository) AttachAppointment(ctx context.Context, providerCallID, appointmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.calls[providerCallID]
	if !ok {
		return ErrCallNotFound
	}
	call.AppointmentID = appointmentID
	call.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns calls ordered newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Call
	for _, call := range r.calls {
		if filter.Status != "" && call.Status != filter.Status {
			continue
		}
		out = append(out, cloneCall(call))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func cloneCall(c *Call) *Call {
	copied := *c
	return &copied
}
