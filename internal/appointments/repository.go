package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)
}

// InMemoryRepository keeps appointments in memory.
type InMemoryRepository struct {
	mu           sync.RWMutex
	appointments map[string]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appointments: make(map[string]*Appointment),
	}
}

// Create stores a new appointment in scheduled status.
func (r *InMemoryRepository) Create(ctx context.Context, params CreateParams) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	appt := &Appointment{
		ID:            uuid.New().String(),
		CustomerID:    params.CustomerID,
		CallID:        params.CallID,
		Service:       params.Service,
		PreferredDate: params.PreferredDate,
		PreferredTime: params.PreferredTime,
		Urgency:       params.Urgency,
		Address:       params.Address,
		Budget:        params.Budget,
		Notes:         params.Notes,
		Status:        StatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.appointments[appt.ID] = appt
	return cloneAppointment(appt), nil
}

// GetByID retrieves an appointment by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return cloneAppointment(appt), nil
}

// List returns appointments ordered newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.appointments {
		if filter.Status != "" && appt.Status != filter.Status {
			continue
		}
		out = append(out, cloneAppointment(appt))
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

func cloneAppointment(a *Appointment) *Appointment {
	copied := *a
	if a.Budget != nil {
		b := *a.Budget
		copied.Budget = &b
	}
	return &copied
}
