package extraction

import (
	"regexp"
	"strings"
)

var (
	validEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
)

// Validate applies the intake rule set to an extracted record. Every rule is
// evaluated independently so the caller sees the full error list; nothing
// short-circuits and nothing is thrown. The verdict is advisory: callers may
// persist an invalid record for manual correction.
func Validate(data ExtractedData) ValidationResult {
	errs := []string{}

	if strings.TrimSpace(data.CustomerName) == "" {
		errs = append(errs, "Customer name is required")
	}
	if data.CustomerPhone != "" && !validPhone(data.CustomerPhone) {
		errs = append(errs, "Invalid phone number format")
	}
	if data.CustomerEmail != "" && !validEmailPattern.MatchString(data.CustomerEmail) {
		errs = append(errs, "Invalid email format")
	}
	if strings.TrimSpace(data.ServiceRequested) == "" {
		errs = append(errs, "Service type could not be determined")
	}
	if data.Budget != nil && *data.Budget < 0 {
		errs = append(errs, "Budget cannot be negative")
	}

	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// validPhone accepts 10 digits, or 11 digits with a leading country code 1,
// after stripping punctuation.
func validPhone(phone string) bool {
	digits := nonDigitPattern.ReplaceAllString(phone, "")
	switch len(digits) {
	case 10:
		return true
	case 11:
		return digits[0] == '1'
	default:
		return false
	}
}
