package triage

import (
	"context"
	"errors"
)

// Provider is the interface for any LLM backend. Implementations must be safe
// for concurrent use; the pipeline runs arbitrarily many triages in parallel
// against one shared provider.
type Provider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// CompletionRequest is a single-shot prompt sent to the provider.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completion is the provider's reply.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Usage reports token consumption for one provider call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// TransientError marks a provider failure worth retrying: timeouts, rate
// limits, 5xx-class responses. Anything not wrapped in it is permanent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so the retry policy will re-attempt it.
func Transient(err error) error {
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// SchemaError reports provider output that failed validation against the
// expected structure. It is never retried; malformed output rarely
// self-corrects on a re-ask.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "schema: " + e.Reason }
