package ingest

import (
	"context"

	"github.com/linnemanlabs/sift/internal/message"
)

// Phone is a mock voicemail-transcription source. Caller numbers are left in
// dialed form; the normalizer synthesizes mailbox-shaped senders from them.
type Phone struct{}

// NewPhone creates the mock phone source.
func NewPhone() *Phone {
	return &Phone{}
}

func (p *Phone) Name() string { return message.SourcePhone }

// Fetch returns the mock voicemail queue.
func (p *Phone) Fetch(_ context.Context) ([]message.Raw, error) {
	return []message.Raw{
		{
			"caller":     "+15551234567",
			"transcript": "This is a message regarding my recent delivery issue, please call me back today.",
			"metadata": map[string]any{
				"call_sid":                 "mock-call-sid-456",
				"transcription_confidence": 0.92,
			},
		},
	}, nil
}
