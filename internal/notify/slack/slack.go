// Package slack posts completed triage results to a Slack incoming webhook,
// so the support team sees classifications and drafts as they happen.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/linnemanlabs/sift/internal/message"
	"github.com/linnemanlabs/sift/internal/triage"
)

const (
	maxDraftExcerpt = 600
	httpTimeout     = 10 * time.Second
)

// Notifier implements triage.Notifier against a Slack incoming webhook.
// If webhookURL is empty, Send is a no-op.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a Slack notifier.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts one triage result to the configured webhook.
func (n *Notifier) Send(ctx context.Context, msg *message.Message, result *triage.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(msg, result))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(msg *message.Message, result *triage.Result) map[string]any {
	cls := result.Classification

	header := fmt.Sprintf(":inbox_tray: %s (%s priority)", cls.Category, cls.Priority)
	if result.Degraded() {
		header = ":warning: " + header + " (degraded)"
	}

	draft := result.Draft.ReplyDraft
	if len(draft) > maxDraftExcerpt {
		cut := maxDraftExcerpt
		for cut > 0 && !utf8.RuneStart(draft[cut]) {
			cut--
		}
		draft = draft[:cut] + "…"
	}

	return map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]any{"type": "plain_text", "text": header, "emoji": true},
			},
			{"type": "divider"},
			{
				"type": "section",
				"fields": []map[string]any{
					mrkdwn("*From:*\n" + msg.Sender),
					mrkdwn("*Queue:*\n" + cls.RecommendedQueue),
					mrkdwn("*Intent:*\n" + cls.Intent),
					mrkdwn(fmt.Sprintf("*Confidence:*\n%.2f", cls.Confidence)),
				},
			},
			{"type": "divider"},
			{
				"type": "section",
				"text": mrkdwn("*Draft reply:*\n" + draft),
			},
			{
				"type": "context",
				"elements": []map[string]any{
					mrkdwn(fmt.Sprintf("message %s · channel %s · %.1fs",
						result.MessageID, msg.Channel(), result.Duration)),
				},
			},
		},
	}
}

func mrkdwn(text string) map[string]any {
	return map[string]any{"type": "mrkdwn", "text": text}
}
