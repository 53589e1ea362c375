package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/message"
)

const classifyResponseTokens = 512

// Classifier is the classification stage. It turns a canonical message into a
// ClassificationResult and never returns an error past its own boundary: any
// unrecoverable provider failure is represented as a fallback result.
type Classifier struct {
	provider      Provider
	policy        RetryPolicy
	minConfidence float64
	defaultQueue  string
	logger        log.Logger
	hooks         Hooks
}

// NewClassifier creates the classification stage. minConfidence only marks
// results as low-confidence; it never discards or reroutes them.
func NewClassifier(provider Provider, policy RetryPolicy, minConfidence float64, defaultQueue string, logger log.Logger, hooks Hooks) *Classifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Classifier{
		provider:      provider,
		policy:        policy,
		minConfidence: minConfidence,
		defaultQueue:  defaultQueue,
		logger:        logger,
		hooks:         hooks,
	}
}

// classificationWire is the structured reply expected from the provider.
// Confidence is a pointer so a missing field is distinguishable from 0.
type classificationWire struct {
	Category         string   `json:"category"`
	Intent           string   `json:"intent"`
	Priority         string   `json:"priority"`
	RecommendedQueue string   `json:"recommended_queue"`
	Confidence       *float64 `json:"confidence"`
}

// Classify sends the message to the provider and validates the structured
// reply. Transient provider failures are retried under the policy; malformed
// output is not, it degrades to the fallback immediately.
func (c *Classifier) Classify(ctx context.Context, msg *message.Message) ClassificationResult {
	start := time.Now()
	L := c.logger.With("stage", "classify", "message_id", msg.ID)

	req := &CompletionRequest{
		System:    classifySystemPrompt,
		Prompt:    buildClassifyPrompt(msg),
		MaxTokens: classifyResponseTokens,
	}

	callCtx, span := startLLMSpan(ctx, "classify", msg.ID)
	comp, err := c.policy.complete(callCtx, c.provider, req)
	endLLMSpan(span, comp, err)
	c.hooks.providerCall("classify", comp, time.Since(start).Seconds(), err)
	if err != nil {
		L.Warn(ctx, "classification degraded to fallback", "error", err.Error())
		return c.finish(ctx, start, c.fallback(fmt.Sprintf("provider call failed: %v", err)))
	}

	result, err := c.parse(comp.Text)
	if err != nil {
		L.Warn(ctx, "classification output rejected", "error", err.Error())
		return c.finish(ctx, start, c.fallback(err.Error()))
	}

	L.Info(ctx, "message classified",
		"category", result.Category,
		"priority", result.Priority,
		"queue", result.RecommendedQueue,
		"confidence", result.Confidence,
		"low_confidence", result.LowConfidence,
	)
	return c.finish(ctx, start, result)
}

func (c *Classifier) finish(_ context.Context, start time.Time, r ClassificationResult) ClassificationResult {
	c.hooks.classified(&r, time.Since(start).Seconds())
	return r
}

// parse validates the provider reply against the expected schema. Any
// violation is a *SchemaError.
func (c *Classifier) parse(text string) (ClassificationResult, error) {
	var wire classificationWire
	if err := json.Unmarshal([]byte(stripFences(text)), &wire); err != nil {
		return ClassificationResult{}, &SchemaError{Reason: fmt.Sprintf("unparsable reply: %v", err)}
	}
	if strings.TrimSpace(wire.Category) == "" {
		return ClassificationResult{}, &SchemaError{Reason: "missing category"}
	}
	if wire.Confidence == nil {
		return ClassificationResult{}, &SchemaError{Reason: "missing confidence"}
	}
	if *wire.Confidence < 0 || *wire.Confidence > 1 {
		return ClassificationResult{}, &SchemaError{Reason: fmt.Sprintf("confidence %v out of [0,1]", *wire.Confidence)}
	}

	priority := FallbackPriority
	if p, ok := ParsePriority(wire.Priority); ok {
		priority = p
	}
	queue := strings.TrimSpace(wire.RecommendedQueue)
	if queue == "" {
		queue = c.defaultQueue
	}

	return ClassificationResult{
		Category:         strings.TrimSpace(wire.Category),
		Intent:           capitalize(strings.TrimSpace(wire.Intent)),
		Priority:         priority,
		RecommendedQueue: queue,
		Confidence:       *wire.Confidence,
		LowConfidence:    *wire.Confidence < c.minConfidence,
		ClassifiedAt:     time.Now().UTC(),
	}, nil
}

// fallback is the deterministic degraded classification. Confidence is
// explicitly zero, never omitted.
func (c *Classifier) fallback(reason string) ClassificationResult {
	return ClassificationResult{
		Category:         FallbackCategory,
		Intent:           FallbackIntent,
		Priority:         FallbackPriority,
		RecommendedQueue: c.defaultQueue,
		Confidence:       0.0,
		LowConfidence:    true,
		FallbackUsed:     true,
		Error:            reason,
		ClassifiedAt:     time.Now().UTC(),
	}
}

const classifySystemPrompt = `You are a support message triage classifier. You read one inbound customer message and assign it a category, intent, priority, and owning queue. Respond with a single JSON object and nothing else.`

func buildClassifyPrompt(msg *message.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify this inbound support message.\n\n")
	if msg.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	}
	if product := msg.Product(); product != "" {
		fmt.Fprintf(&b, "Product: %s\n", product)
	}
	if channel := msg.Channel(); channel != "" {
		fmt.Fprintf(&b, "Channel: %s\n", channel)
	}
	fmt.Fprintf(&b, "\nMessage:\n%s\n\n", sanitize(msg.Content))
	b.WriteString(`Reply with JSON of this exact shape:
{
  "category": "Billing Support | Dispatch Communication | Sensor Alert | Marketing | General Inquiry | ...",
  "intent": "short label for what the sender wants",
  "priority": "Low | Medium | High | Urgent",
  "recommended_queue": "internal team that should own this",
  "confidence": 0.0
}`)
	return b.String()
}

// stripFences removes a surrounding markdown code fence, which models add
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
