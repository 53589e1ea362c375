// Package claude adapts the Anthropic SDK to the triage Provider interface.
package claude

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/sift/internal/triage"
)

// Client implements triage.Provider against the Claude Messages API. The SDK
// client is safe for concurrent use; retries are disabled here because the
// pipeline's RetryPolicy owns that decision.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a Claude-backed provider with the given API key and model name.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		),
		model: anthropic.Model(model),
	}
}

// Complete sends a single-shot prompt and returns the concatenated text
// reply. Failures are mapped onto the pipeline's retry taxonomy: rate limits,
// timeouts, and 5xx-class responses come back transient, everything else
// permanent.
func (c *Client) Complete(ctx context.Context, req *triage.CompletionRequest) (*triage.Completion, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(req.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return nil, classifyErr(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &triage.Completion{
		Text:  text.String(),
		Model: string(msg.Model),
		Usage: triage.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// classifyErr decides which failures are worth retrying.
func classifyErr(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusRequestTimeout,
			apierr.StatusCode == http.StatusTooManyRequests,
			apierr.StatusCode >= http.StatusInternalServerError:
			return triage.Transient(err)
		}
		return err
	}

	// Caller gave up; retrying a dead context is pointless.
	if errors.Is(err, context.Canceled) {
		return err
	}

	// Everything else at this layer is transport-level (timeouts, refused
	// connections, DNS) and worth another attempt.
	return triage.Transient(err)
}
