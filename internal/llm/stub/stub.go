// Package stub provides a deterministic, offline triage.Provider. It is
// selected with -llm-provider=stub and backs local development and tests
// without network access or an API key.
package stub

import (
	"context"
	"fmt"
	"strings"

	"github.com/linnemanlabs/sift/internal/triage"
)

// ModelName is reported in completions so logs show which backend answered.
const ModelName = "stub"

// rule maps a content keyword to a full classification.
type rule struct {
	keyword    string
	category   string
	intent     string
	priority   string
	queue      string
	confidence float64
}

// First match wins; order reflects routing priority, not alphabet.
var rules = []rule{
	{"invoice", "Billing Support", "Invoice dispute", "High", "Finance Support", 0.92},
	{"refund", "Billing Support", "Refund request", "High", "Finance Support", 0.9},
	{"schedule", "Dispatch Communication", "Scheduling request", "Medium", "Dispatch Team", 0.88},
	{"pickup", "Dispatch Communication", "Pickup status", "Medium", "Dispatch Team", 0.86},
	{"sensor", "Sensor Alert", "Fault report", "Urgent", "Ops Team", 0.9},
	{"compactor", "Sensor Alert", "Equipment issue", "High", "Ops Team", 0.85},
	{"unsubscribe", "Marketing", "Unsubscribe request", "Low", "Automation", 0.95},
}

// Provider answers classification prompts with keyword-matched structured
// JSON and draft prompts with a canned reply. It is stateless: identical
// input always yields an identical completion.
type Provider struct{}

// New creates the stub provider.
func New() *Provider {
	return &Provider{}
}

// Complete inspects the system prompt to decide which stage is asking.
func (p *Provider) Complete(_ context.Context, req *triage.CompletionRequest) (*triage.Completion, error) {
	var text string
	if strings.Contains(req.System, "classifier") {
		text = classifyReply(req.Prompt)
	} else {
		text = draftReply(req.Prompt)
	}
	return &triage.Completion{
		Text:  text,
		Model: ModelName,
		Usage: triage.Usage{
			InputTokens:  len(req.Prompt) / 4,
			OutputTokens: len(text) / 4,
		},
	}, nil
}

func classifyReply(prompt string) string {
	lower := strings.ToLower(prompt)
	matched := rule{
		category:   "General Inquiry",
		intent:     "General question",
		priority:   "Medium",
		queue:      "Customer Support",
		confidence: 0.55,
	}
	for _, r := range rules {
		if strings.Contains(lower, r.keyword) {
			matched = r
			break
		}
	}
	return fmt.Sprintf(
		`{"category":%q,"intent":%q,"priority":%q,"recommended_queue":%q,"confidence":%.2f}`,
		matched.category, matched.intent, matched.priority, matched.queue, matched.confidence)
}

func draftReply(prompt string) string {
	category := "your request"
	for _, line := range strings.Split(prompt, "\n") {
		if after, ok := strings.CutPrefix(line, "Category: "); ok && strings.TrimSpace(after) != "" {
			category = strings.TrimSpace(after)
			break
		}
	}
	return fmt.Sprintf(
		"Thank you for reaching out about %s. We have received your message and our team is reviewing it now. You can expect a follow-up from us shortly.",
		category)
}
