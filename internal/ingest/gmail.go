package ingest

import (
	"context"

	"github.com/linnemanlabs/sift/internal/message"
)

// Gmail is a mock Gmail source. It returns a fixed inbox snapshot shaped the
// way the Gmail API would deliver it.
type Gmail struct{}

// NewGmail creates the mock Gmail source.
func NewGmail() *Gmail {
	return &Gmail{}
}

func (g *Gmail) Name() string { return message.SourceGmail }

// Fetch returns the mock inbox.
func (g *Gmail) Fetch(_ context.Context) ([]message.Raw, error) {
	return []message.Raw{
		{
			"sender":  "mock.sender@gmail.com",
			"subject": "Help with my last invoice",
			"content": "Hi, I need help with my last invoice. The total looks higher than what we agreed on.",
			"metadata": map[string]any{
				"thread_id": "mock-thread-123",
				"labels":    []any{"INBOX", "UNREAD"},
			},
		},
		{
			"sender":  "ops.team@example.com",
			"subject": "Missed pickup on Route 9",
			"content": "Our scheduled pickup did not happen this morning and we have not received an ETA.",
			"metadata": map[string]any{
				"thread_id": "mock-thread-124",
				"labels":    []any{"INBOX"},
			},
		},
	}, nil
}
