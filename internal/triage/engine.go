package triage

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/message"
)

// Engine sequences the pipeline for one message: Classify, then Draft, then
// combine. It holds no state across calls; any number of Triage invocations
// may run concurrently. A stage falling back is not fatal: once a message
// normalizes, the engine always returns a complete Result, because a degraded
// triage a human can act on beats no triage.
type Engine struct {
	classifier *Classifier
	drafter    *Drafter
	logger     log.Logger
	hooks      Hooks
}

// NewEngine creates the orchestrator from its two stages.
func NewEngine(classifier *Classifier, drafter *Drafter, logger log.Logger, hooks Hooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		classifier: classifier,
		drafter:    drafter,
		logger:     logger,
		hooks:      hooks,
	}
}

// Triage runs both stages sequentially; the draft depends on the
// classification, so the two cannot be parallelized. Cancel ctx to abandon
// whichever provider call is in flight; the affected stage takes its fallback
// path rather than being left half-completed.
func (e *Engine) Triage(ctx context.Context, msg *message.Message) *Result {
	start := time.Now()

	cls := e.classifier.Classify(ctx, msg)
	draft := e.drafter.Draft(ctx, msg, cls)

	result := &Result{
		MessageID:      msg.ID,
		Classification: cls,
		Draft:          draft,
		Duration:       time.Since(start).Seconds(),
	}
	e.hooks.triaged(result)

	e.logger.Info(ctx, "triage complete",
		"message_id", msg.ID,
		"category", cls.Category,
		"priority", cls.Priority,
		"queue", cls.RecommendedQueue,
		"confidence", cls.Confidence,
		"degraded", result.Degraded(),
		"duration", result.Duration,
	)
	return result
}

// Classify runs only the classification stage, bypassing orchestration.
func (e *Engine) Classify(ctx context.Context, msg *message.Message) ClassificationResult {
	return e.classifier.Classify(ctx, msg)
}

// Draft runs only the draft stage against a caller-supplied classification.
func (e *Engine) Draft(ctx context.Context, msg *message.Message, cls ClassificationResult) DraftResult {
	return e.drafter.Draft(ctx, msg, cls)
}

// Notifier receives completed triage results, e.g. to post them to a review
// channel. Implementations must tolerate degraded results.
type Notifier interface {
	Send(ctx context.Context, msg *message.Message, result *Result) error
}
