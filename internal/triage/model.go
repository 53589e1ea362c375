package triage

import (
	"strings"
	"time"
)

// Priority is the operational urgency assigned by classification.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// knownPriorities maps lowercased provider output to canonical priorities.
var knownPriorities = map[string]Priority{
	"low":    PriorityLow,
	"medium": PriorityMedium,
	"high":   PriorityHigh,
	"urgent": PriorityUrgent,
}

// ParsePriority maps free-form priority text to a canonical Priority.
func ParsePriority(s string) (Priority, bool) {
	p, ok := knownPriorities[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// Defaults substituted when classification degrades to its fallback.
const (
	FallbackCategory = "General Inquiry"
	FallbackIntent   = "Unclear"
	FallbackPriority = PriorityMedium
)

// ClassificationResult is the outcome of the classification stage. The stage
// never fails outright: a degraded call yields FallbackUsed with the defaults
// above and Error describing the cause.
type ClassificationResult struct {
	Category         string    `json:"category"`
	Intent           string    `json:"intent"`
	Priority         Priority  `json:"priority"`
	RecommendedQueue string    `json:"recommended_queue"`
	Confidence       float64   `json:"confidence"`
	LowConfidence    bool      `json:"low_confidence"`
	FallbackUsed     bool      `json:"fallback_used"`
	Error            string    `json:"error,omitempty"`
	ClassifiedAt     time.Time `json:"classified_at"`
}

// DraftResult is the outcome of the draft stage. ReplyDraft is never empty;
// when generation fails a templated acknowledgment is substituted.
type DraftResult struct {
	ReplyDraft   string `json:"reply_draft"`
	FallbackUsed bool   `json:"fallback_used"`
	Error        string `json:"error,omitempty"`
}

// Result combines both stages for one message. It is immutable once
// produced; nothing stores or mutates it across requests.
type Result struct {
	MessageID      string               `json:"message_id"`
	Classification ClassificationResult `json:"classification"`
	Draft          DraftResult          `json:"draft"`
	Duration       float64              `json:"duration_seconds"`
}

// Degraded reports whether either stage fell back.
func (r *Result) Degraded() bool {
	return r.Classification.FallbackUsed || r.Draft.FallbackUsed
}
