package triage

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/message"
)

const (
	draftResponseTokens = 600

	// maxPromptContent soft-limits how much of the original message is quoted
	// into the draft prompt.
	maxPromptContent = 2000

	// maxReplyLen caps overly verbose model replies.
	maxReplyLen = 1000
)

// toneByCategory shapes the reply voice per classification category.
var toneByCategory = map[string]string{
	"Billing Support":        "reassuring and precise",
	"Sensor Alert":           "calm and technically confident",
	"Dispatch Communication": "prompt and respectful",
	"Marketing":              "brief and compliant",
	"General Inquiry":        "neutral and helpful",
}

const defaultTone = "neutral and helpful"

// Drafter is the draft-response stage. Given a message and its
// classification it produces a reply draft, substituting a templated
// acknowledgment whenever generation fails or comes back empty. The caller
// is guaranteed a non-empty draft.
type Drafter struct {
	provider Provider
	policy   RetryPolicy
	logger   log.Logger
	hooks    Hooks
}

// NewDrafter creates the draft stage.
func NewDrafter(provider Provider, policy RetryPolicy, logger log.Logger, hooks Hooks) *Drafter {
	if logger == nil {
		logger = log.Nop()
	}
	return &Drafter{
		provider: provider,
		policy:   policy,
		logger:   logger,
		hooks:    hooks,
	}
}

// Draft generates a reply consistent with how the message was classified.
// Transient provider failures are retried under the policy.
func (d *Drafter) Draft(ctx context.Context, msg *message.Message, cls ClassificationResult) DraftResult {
	start := time.Now()
	L := d.logger.With("stage", "draft", "message_id", msg.ID, "category", cls.Category)

	req := &CompletionRequest{
		System:    draftSystemPrompt,
		Prompt:    buildDraftPrompt(msg, cls),
		MaxTokens: draftResponseTokens,
	}

	callCtx, span := startLLMSpan(ctx, "draft", msg.ID)
	comp, err := d.policy.complete(callCtx, d.provider, req)
	endLLMSpan(span, comp, err)
	d.hooks.providerCall("draft", comp, time.Since(start).Seconds(), err)
	if err != nil {
		L.Warn(ctx, "draft degraded to fallback", "error", err.Error())
		return d.finish(start, fallbackDraft(cls, fmt.Sprintf("provider call failed: %v", err)))
	}

	reply := strings.TrimSpace(comp.Text)
	if reply == "" {
		L.Warn(ctx, "draft degraded to fallback", "error", "empty reply")
		return d.finish(start, fallbackDraft(cls, "provider returned empty reply"))
	}
	reply = truncate(reply, maxReplyLen)

	L.Info(ctx, "reply drafted", "chars", len(reply))
	return d.finish(start, DraftResult{ReplyDraft: reply})
}

func (d *Drafter) finish(start time.Time, r DraftResult) DraftResult {
	d.hooks.drafted(&r, time.Since(start).Seconds())
	return r
}

// fallbackDraft is the deterministic acknowledgment substituted when
// generation fails. It references the classified category so the reply still
// reads as triaged.
func fallbackDraft(cls ClassificationResult, reason string) DraftResult {
	category := cls.Category
	if category == "" {
		category = FallbackCategory
	}
	return DraftResult{
		ReplyDraft: fmt.Sprintf(
			"Thank you for contacting us about %s. A representative will review your request and follow up shortly.",
			category),
		FallbackUsed: true,
		Error:        reason,
	}
}

const draftSystemPrompt = `You are a customer support assistant. You write clear, empathetic, professional email replies to inbound client messages. Reply with the email body only: no headers, no signatures, no disclaimers.`

func buildDraftPrompt(msg *message.Message, cls ClassificationResult) string {
	var b strings.Builder
	b.WriteString("Write a reply to the client message below.\n\n")
	fmt.Fprintf(&b, "Category: %s\n", cls.Category)
	fmt.Fprintf(&b, "Intent: %s\n", cls.Intent)
	fmt.Fprintf(&b, "Tone: %s\n", toneFor(cls.Category))
	if product := msg.Product(); product != "" {
		fmt.Fprintf(&b, "Product: %s\n", product)
	}
	fmt.Fprintf(&b, "\nClient message:\n%s\n", sanitize(msg.Content))
	return b.String()
}

func toneFor(category string) string {
	if tone, ok := toneByCategory[category]; ok {
		return tone
	}
	return defaultTone
}

// sanitize flattens newlines and soft-truncates content before it is quoted
// into a prompt.
func sanitize(content string) string {
	clean := strings.TrimSpace(strings.ReplaceAll(content, "\n", " "))
	return truncate(clean, maxPromptContent)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
