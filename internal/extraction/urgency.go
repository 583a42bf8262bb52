package extraction

import (
	"regexp"
	"strings"
)

// urgencyClassifier buckets a transcript into a CallUrgency tier. Tiers are
// checked in priority order so that a transcript containing both "emergency"
// and "whenever is fine" still classifies as an emergency (safety bias).
type urgencyClassifier struct {
	tiers []urgencyTier
}

type urgencyTier struct {
	urgency  CallUrgency
	patterns []*regexp.Regexp
}

func newUrgencyClassifier() *urgencyClassifier {
	return &urgencyClassifier{
		tiers: []urgencyTier{
			{
				urgency: UrgencyEmergency,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\bemergenc(?:y|ies)\b`),
					regexp.MustCompile(`(?i)\burgent(?:ly)?\b`),
					regexp.MustCompile(`(?i)\bright\s+(?:now|away)\b`),
					regexp.MustCompile(`(?i)\basap\b`),
					regexp.MustCompile(`(?i)\bimmediately\b`),
					regexp.MustCompile(`(?i)\bflood(?:ing|ed)?\b`),
					regexp.MustCompile(`(?i)\bburst\s+pipe\b`),
					regexp.MustCompile(`(?i)\bgas\s+leak\b`),
					regexp.MustCompile(`(?i)\bno\s+(?:power|heat|hot\s+water|water)\b`),
					regexp.MustCompile(`(?i)\bsewage\b`),
					regexp.MustCompile(`(?i)\bsparking\b`),
					regexp.MustCompile(`(?i)\bcan'?t\s+wait\b`),
				},
			},
			{
				urgency: UrgencyScheduled,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\bnext\s+(?:week|month|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
					regexp.MustCompile(`(?i)\b(?:schedule|appointment|book)\b`),
					regexp.MustCompile(`(?i)\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
					regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`),
					regexp.MustCompile(`(?i)\btomorrow\b`),
				},
			},
			{
				urgency: UrgencyRoutine,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\bwhenever\b`),
					regexp.MustCompile(`(?i)\bno\s+(?:rush|hurry)\b`),
					regexp.MustCompile(`(?i)\bsometime\b`),
					regexp.MustCompile(`(?i)\bwhen(?:ever)?\s+you\s+(?:can|get\s+a\s+chance)\b`),
					regexp.MustCompile(`(?i)\bnot\s+(?:urgent|an?\s+emergency)\b`),
					regexp.MustCompile(`(?i)\bjust\s+a\s+quote\b`),
				},
			},
		},
	}
}

// negatedUrgency matches phrases that explicitly disclaim urgency. They are
// blanked out before the tier scan so "it's not an emergency" does not trip
// the emergency tier.
var negatedUrgency = regexp.MustCompile(`(?i)\b(?:not|isn'?t|no)\s+(?:really\s+)?(?:an?\s+)?(?:urgent|emergency)\b`)

// Classify returns the highest-priority tier with a keyword hit, defaulting
// to unknown.
func (c *urgencyClassifier) Classify(text string) CallUrgency {
	text = strings.TrimSpace(text)
	if text == "" {
		return UrgencyUnknown
	}
	stripped := negatedUrgency.ReplaceAllString(text, " ")
	for _, tier := range c.tiers {
		haystack := text
		if tier.urgency == UrgencyEmergency {
			haystack = stripped
		}
		for _, p := range tier.patterns {
			if p.MatchString(haystack) {
				return tier.urgency
			}
		}
	}
	// An explicit disclaimer with no other signal is itself a routine marker.
	if negatedUrgency.MatchString(text) {
		return UrgencyRoutine
	}
	return UrgencyUnknown
}
