package triage

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startLLMSpan opens a span covering one provider exchange, retries included.
// The tracer is resolved per call: a package-level tracer would bind to
// whichever global provider was installed first and never see a replacement.
func startLLMSpan(ctx context.Context, stage, messageID string) (context.Context, trace.Span) {
	tracer := otel.Tracer("github.com/linnemanlabs/sift/internal/triage")
	return tracer.Start(ctx, "llm.call", trace.WithAttributes(
		attribute.String("gen_ai.operation.name", "llm.call"),
		attribute.String("sift.stage", stage),
		attribute.String("sift.message.id", messageID),
	))
}

// endLLMSpan records the outcome and closes the span.
func endLLMSpan(span trace.Span, comp *Completion, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if comp != nil {
		span.SetAttributes(
			attribute.String("gen_ai.response.model", comp.Model),
			attribute.Int("gen_ai.usage.input_tokens", comp.Usage.InputTokens),
			attribute.Int("gen_ai.usage.output_tokens", comp.Usage.OutputTokens),
		)
	}
	span.End()
}
