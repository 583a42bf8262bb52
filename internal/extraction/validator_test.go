package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestValidate_AllRulesIndependent(t *testing.T) {
	// Every rule fires; nothing short-circuits.
	result := Validate(ExtractedData{
		CustomerPhone: "12345",
		CustomerEmail: "not-an-email",
		Budget:        floatPtr(-50),
	})

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		"Customer name is required",
		"Invalid phone number format",
		"Invalid email format",
		"Service type could not be determined",
		"Budget cannot be negative",
	}, result.Errors)
}

func TestValidate_Valid(t *testing.T) {
	result := Validate(ExtractedData{
		CustomerName:     "Jane Doe",
		CustomerPhone:    "5551234567",
		CustomerEmail:    "jane@example.com",
		ServiceRequested: "water heater repair",
		Budget:           floatPtr(500),
	})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidate_AbsentOptionalFieldsAreNotErrors(t *testing.T) {
	// Phone and email absent is a valid outcome, not a format failure.
	result := Validate(ExtractedData{
		CustomerName:     "Jane Doe",
		ServiceRequested: "water heater repair",
	})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidate_PhoneFormats(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"5551234567", true},
		{"(555) 123-4567", true},
		{"15551234567", true},
		{"+1 555 123 4567", true},
		{"25551234567", false}, // 11 digits without a leading 1
		{"123456", false},
		{"555123456789", false},
	}
	for _, tt := range tests {
		result := Validate(ExtractedData{
			CustomerName:     "X",
			ServiceRequested: "Y",
			CustomerPhone:    tt.phone,
		})
		if tt.valid {
			assert.True(t, result.IsValid, "phone %q should be valid", tt.phone)
		} else {
			assert.Contains(t, result.Errors, "Invalid phone number format", "phone %q", tt.phone)
		}
	}
}

func TestValidate_NegativeBudget(t *testing.T) {
	result := Validate(ExtractedData{
		CustomerName:     "X",
		ServiceRequested: "Y",
		Budget:           floatPtr(-50),
	})

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Budget cannot be negative"}, result.Errors)
}

func TestValidate_ZeroBudgetIsFine(t *testing.T) {
	result := Validate(ExtractedData{
		CustomerName:     "X",
		ServiceRequested: "Y",
		Budget:           floatPtr(0),
	})

	assert.True(t, result.IsValid)
}

func TestValidate_Idempotent(t *testing.T) {
	data := ExtractedData{
		CustomerPhone: "999",
		CustomerEmail: "bad",
	}

	first := Validate(data)
	second := Validate(data)

	assert.Equal(t, first, second)
}
