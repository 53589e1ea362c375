// Package message defines the canonical inbound message shared by every
// pipeline stage, and the normalization of source-specific payloads into it.
package message

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Reserved metadata keys recognized by downstream stages. Every other key is
// passed through untouched.
const (
	MetaProduct = "product"
	MetaChannel = "channel"
)

// Message is the canonical form of an inbound support message, independent of
// the source it arrived from.
type Message struct {
	ID         string            `json:"id"`
	Sender     string            `json:"sender"`
	Subject    string            `json:"subject,omitempty"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}

// MinContentLen is the minimum content length, after trimming, accepted by
// the pipeline.
const MinContentLen = 10

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError reports a missing or invalid field in an inbound payload.
// It is the only error class that crosses the pipeline boundary to callers.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the canonical invariants: sender shaped like an email
// address, content present and at least MinContentLen characters.
func (m *Message) Validate() error {
	if m.Sender == "" {
		return &ValidationError{Field: "sender", Reason: "required"}
	}
	if !emailRe.MatchString(m.Sender) {
		return &ValidationError{Field: "sender", Reason: "must be an email address"}
	}
	content := strings.TrimSpace(m.Content)
	if content == "" {
		return &ValidationError{Field: "content", Reason: "required"}
	}
	if len(content) < MinContentLen {
		return &ValidationError{Field: "content", Reason: fmt.Sprintf("must be at least %d characters", MinContentLen)}
	}
	return nil
}

// Product returns the product metadata value, if any.
func (m *Message) Product() string {
	return m.Metadata[MetaProduct]
}

// Channel returns the channel metadata value, if any.
func (m *Message) Channel() string {
	return m.Metadata[MetaChannel]
}
