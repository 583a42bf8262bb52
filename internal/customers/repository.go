package customers

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var nonDigitPattern = regexp.MustCompile(`\D`)

// NormalizePhone reduces a phone number to its canonical ten-digit form.
// Eleven digits with a leading 1 lose the country code; anything else is
// returned digits-only as-is so callers can decide what to do with it.
func NormalizePhone(value string) string {
	digits := nonDigitPattern.ReplaceAllString(strings.TrimSpace(value), "")
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}

// Profile carries the identity fields learned about a caller.
type Profile struct {
	Name    string
	Email   string
	Address string
	Source  string
}

// Repository defines the interface for customer storage.
type Repository interface {
	GetOrCreateByPhone(ctx context.Context, phone string, profile Profile) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
}

// InMemoryRepository keeps customers in memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byPhone map[string]*Customer
	byID    map[string]*Customer
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byPhone: make(map[string]*Customer),
		byID:    make(map[string]*Customer),
	}
}

// GetOrCreateByPhone finds the customer with the given phone or creates one.
// Known customers gain any profile fields they were missing; existing values
// are never overwritten.
func (r *InMemoryRepository) GetOrCreateByPhone(ctx context.Context, phone string, profile Profile) (*Customer, error) {
	key := NormalizePhone(phone)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byPhone[key]; ok {
		fillMissing(existing, profile)
		copied := *existing
		return &copied, nil
	}

	now := time.Now().UTC()
	customer := &Customer{
		ID:        uuid.New().String(),
		Name:      profile.Name,
		Phone:     key,
		Email:     profile.Email,
		Address:   profile.Address,
		Source:    profile.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byPhone[key] = customer
	r.byID[customer.ID] = customer
	copied := *customer
	return &copied, nil
}

// GetByID retrieves a customer by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.byID[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	copied := *customer
	return &copied, nil
}

func fillMissing(c *Customer, profile Profile) {
	updated := false
	if c.Name == "" && profile.Name != "" {
		c.Name = profile.Name
		updated = true
	}
	if c.Email == "" && profile.Email != "" {
		c.Email = profile.Email
		updated = true
	}
	if c.Address == "" && profile.Address != "" {
		c.Address = profile.Address
		updated = true
	}
	if updated {
		c.UpdatedAt = time.Now().UTC()
	}
}
