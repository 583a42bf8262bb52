// Package extraction turns free-form voice-call transcripts into structured
// appointment-intake records. Extraction is heuristic and pattern-based, not
// an NLP pipeline: it degrades gracefully on partial or noisy transcripts and
// never fails outright.
package extraction

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var extractTracer = otel.Tracer("fieldops/extraction")

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	speakerTagPattern = regexp.MustCompile(`(?im)^\s*(?:agent|assistant|ai|bot|caller|customer|user|speaker\s*\d*)\s*:\s*`)

	namePattern = regexp.MustCompile(`(?i)\b(?:this is|my name is|name is|i'm|i am)\s+([A-Za-z][A-Za-z'\-]*(?:\s+[A-Za-z][A-Za-z'\-]*){0,2})`)

	// North American numbering plan: area code cannot start with 0 or 1,
	// which also keeps years and dollar figures out.
	phonePattern = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?([2-9]\d{2})\)?[-.\s]?(\d{3})[-.\s]?(\d{4})\b`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	addressPattern = regexp.MustCompile(`(?i)\b(\d{1,6}\s+(?:[A-Za-z][A-Za-z']*\s+){1,4}(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|court|ct|way|place|pl|circle|cir|highway|hwy|parkway|pkwy|route|rte)\.?)(?:\b|$)`)

	servicePattern = regexp.MustCompile(`(?i)\b(?:i\s+need|we\s+need|need|needs|looking\s+for|quote\s+(?:for|on)|help\s+with|problem\s+with|issues?\s+with|trouble\s+with|get\s+someone\s+(?:out|over)\s+for)\s+(?:a\s+|an\s+|some\s+|my\s+|the\s+|our\s+)?([a-z][a-z0-9\s\-]{2,60}?)(?:\s*(?:,|\.|;|!|\?|\bit'?s\b|\band\b|\bbecause\b|\basap\b|\btoday\b|\btomorrow\b|$))`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:tomorrow|today|tonight|this\s+(?:morning|afternoon|evening|weekend))\b`),
		regexp.MustCompile(`(?i)\bnext\s+(?:week|month|monday|tuesday|wednesday|thursday|friday|saturday|sunday|weekend)\b`),
		regexp.MustCompile(`(?i)\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b(?:\s+(?:morning|afternoon|evening))?`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`),
		regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?\b`),
	}

	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.m\.|p\.m\.)\b`),
		regexp.MustCompile(`(?i)\b(?:noon|midday|first\s+thing)\b`),
		regexp.MustCompile(`(?i)\b(?:in\s+the\s+)?(?:morning|afternoon|evening)\b`),
	}

	budgetPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(?:dollars|bucks)\b`),
		regexp.MustCompile(`(?i)\bbudget(?:\s+(?:is|of|around|about|roughly|like|maybe))*\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)\b`),
	}

	notesPattern = regexp.MustCompile(`(?i)\b(?:gate\s+code|lock\s*box|spare\s+key|side\s+door|back\s+door|beware|dog|dogs|cat|pets?|tenant|renter|call\s+(?:me\s+)?(?:before|first)|text\s+(?:me\s+)?(?:before|first)|basement|crawl\s*space|attic)\b`)

	// Trailing words a name capture tends to swallow ("this is Jane calling").
	nameStopwords = map[string]struct{}{
		"calling": {}, "here": {}, "and": {}, "from": {}, "with": {},
		"about": {}, "again": {}, "speaking": {},
	}
)

// Extractor parses transcripts into ExtractedData records. It is stateless
// and safe for concurrent use.
type Extractor struct {
	urgency *urgencyClassifier
	tracer  trace.Tracer
}

// NewExtractor builds an Extractor with the default heuristic rule set.
func NewExtractor() *Extractor {
	return &Extractor{
		urgency: newUrgencyClassifier(),
		tracer:  extractTracer,
	}
}

// Extract parses a raw transcript into an ExtractedData record. It is a total
// function: malformed, empty, or adversarial input yields a record with
// absent fields, never an error.
func (e *Extractor) Extract(ctx context.Context, transcript string) ExtractedData {
	_, span := e.tracer.Start(ctx, "extraction.extract")
	defer span.End()

	text := normalizeTranscript(transcript)
	if text == "" {
		return ExtractedData{}
	}

	data := ExtractedData{
		CustomerName:     extractName(text),
		CustomerPhone:    extractPhone(text),
		CustomerEmail:    extractEmail(text),
		Address:          extractAddress(text),
		ServiceRequested: extractService(text),
		PreferredDate:    extractDate(text),
		PreferredTime:    extractTime(text),
		Urgency:          e.urgency.Classify(text),
		Budget:           extractBudget(text),
		Notes:            extractNotes(text),
	}

	span.SetAttributes(
		attribute.Bool("extraction.has_name", data.CustomerName != ""),
		attribute.Bool("extraction.has_phone", data.CustomerPhone != ""),
		attribute.Bool("extraction.has_service", data.ServiceRequested != ""),
		attribute.String("extraction.urgency", string(data.Urgency)),
	)
	return data
}

// normalizeTranscript strips speaker tags and collapses whitespace so the
// field extractors see one flat utterance stream. Each removed tag becomes a
// sentence break so captures never run across turns.
func normalizeTranscript(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = speakerTagPattern.ReplaceAllString(text, ". ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimLeft(strings.TrimSpace(text), ". ")
}

func extractName(text string) string {
	m := namePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	words := strings.Fields(m[1])
	for len(words) > 0 {
		last := strings.ToLower(words[len(words)-1])
		if _, stop := nameStopwords[last]; !stop {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// extractPhone returns the first phone-shaped digit run, canonicalized to ten
// digits. Years and other short numeric sequences never match the pattern.
func extractPhone(text string) string {
	m := phonePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + m[2] + m[3]
}

func extractEmail(text string) string {
	return emailPattern.FindString(text)
}

func extractAddress(text string) string {
	m := addressPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(m[1]), ".")
}

func extractService(text string) string {
	if m := servicePattern.FindStringSubmatch(text); m != nil {
		service := strings.TrimSpace(m[1])
		if service != "" && !isFillerService(service) {
			return service
		}
	}
	// Fall back to the trade vocabulary when no request phrasing matched.
	lower := strings.ToLower(text)
	for _, keyword := range serviceKeywords {
		if strings.Contains(lower, keyword) {
			return keyword
		}
	}
	return ""
}

// serviceKeywords is the fallback trade vocabulary, checked in order of
// specificity. Tuned against real intake transcripts; expect additions.
var serviceKeywords = []string{
	"water heater repair", "water heater", "furnace repair", "furnace",
	"air conditioning", "air conditioner", "hvac", "heat pump",
	"burst pipe", "pipe repair", "drain cleaning", "clogged drain",
	"sewer line", "sump pump", "garbage disposal", "leak repair",
	"plumbing", "leak",
	"electrical panel", "breaker", "wiring", "outlet", "electrical",
	"roof repair", "roofing", "gutter", "siding",
	"water damage", "mold",
}

func isFillerService(service string) bool {
	switch strings.ToLower(service) {
	case "help", "someone", "somebody", "you", "it", "this", "that":
		return true
	}
	return false
}

func extractDate(text string) string {
	for _, p := range datePatterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func extractTime(text string) string {
	for _, p := range timePatterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// extractBudget parses the first numeric token adjacent to a currency marker.
// Unparseable numbers are dropped silently; absence is a valid outcome.
func extractBudget(text string) *float64 {
	for _, p := range budgetPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		return &value
	}
	return nil
}

// extractNotes collects sentences carrying access or site details the crew
// should know about (pets, gate codes, who to call first).
func extractNotes(text string) string {
	var notes []string
	for _, sentence := range splitSentences(text) {
		if notesPattern.MatchString(sentence) {
			notes = append(notes, strings.TrimSpace(sentence))
		}
	}
	return strings.Join(notes, "; ")
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}
