package extraction

// CallUrgency is the coarse triage classification of a service request.
type CallUrgency string

const (
	UrgencyEmergency CallUrgency = "emergency"
	UrgencyRoutine   CallUrgency = "routine"
	UrgencyScheduled CallUrgency = "scheduled"
	UrgencyUnknown   CallUrgency = "unknown"
)

// ExtractedData is the structured intake record distilled from a call
// transcript. Every field is optional: a partial or noisy transcript yields
// a partial record, never an error.
type ExtractedData struct {
	CustomerName     string      `json:"customerName,omitempty"`
	CustomerPhone    string      `json:"customerPhone,omitempty"`
	CustomerEmail    string      `json:"customerEmail,omitempty"`
	Address          string      `json:"address,omitempty"`
	ServiceRequested string      `json:"serviceRequested,omitempty"`
	PreferredDate    string      `json:"preferredDate,omitempty"`
	PreferredTime    string      `json:"preferredTime,omitempty"`
	Urgency          CallUrgency `json:"urgency,omitempty"`
	Budget           *float64    `json:"budget,omitempty"`
	Notes            string      `json:"notes,omitempty"`
}

// IsEmpty reports whether extraction produced nothing at all.
func (d ExtractedData) IsEmpty() bool {
	return d.CustomerName == "" &&
		d.CustomerPhone == "" &&
		d.CustomerEmail == "" &&
		d.Address == "" &&
		d.ServiceRequested == "" &&
		d.PreferredDate == "" &&
		d.PreferredTime == "" &&
		(d.Urgency == "" || d.Urgency == UrgencyUnknown) &&
		d.Budget == nil &&
		d.Notes == ""
}

// ValidationResult is the advisory verdict on an extracted record. Errors are
// data, never panics: callers decide whether to auto-create an appointment or
// route the call to human review.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}
