package triageapi

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/sift/internal/message"
	"github.com/linnemanlabs/sift/internal/triage"
)

func (a *API) handleClassify(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeRaw(r)
	if err != nil {
		a.writeBadInput(w, r, err)
		return
	}

	msg, err := message.Normalize(message.SourceManual, raw)
	if err != nil {
		a.rejected(message.SourceManual)
		a.writeBadInput(w, r, err)
		return
	}
	annotateSpan(r, msg)

	writeJSON(w, http.StatusOK, a.pipeline.Classify(r.Context(), msg))
}

// classificationInput is the caller-supplied classification for draft-only
// requests, e.g. when a human reviewer corrected the category first.
type classificationInput struct {
	Category         string   `json:"category"`
	Intent           string   `json:"intent"`
	Priority         string   `json:"priority"`
	RecommendedQueue string   `json:"recommended_queue"`
	Confidence       *float64 `json:"confidence"`
}

func (a *API) handleDraft(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeRaw(r)
	if err != nil {
		a.writeBadInput(w, r, err)
		return
	}

	cls, err := classificationFromRaw(raw)
	if err != nil {
		a.writeBadInput(w, r, err)
		return
	}

	msg, err := message.Normalize(message.SourceManual, raw)
	if err != nil {
		a.rejected(message.SourceManual)
		a.writeBadInput(w, r, err)
		return
	}
	annotateSpan(r, msg)

	writeJSON(w, http.StatusOK, a.pipeline.Draft(r.Context(), msg, cls))
}

func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeRaw(r)
	if err != nil {
		a.writeBadInput(w, r, err)
		return
	}

	msg, err := message.Normalize(message.SourceManual, raw)
	if err != nil {
		a.rejected(message.SourceManual)
		a.writeBadInput(w, r, err)
		return
	}
	annotateSpan(r, msg)

	result := a.pipeline.Triage(r.Context(), msg)
	a.notify(r.Context(), msg, result)

	writeJSON(w, http.StatusOK, result)
}

// classificationFromRaw validates and converts the nested classification
// object of a draft-only request.
func classificationFromRaw(raw message.Raw) (triage.ClassificationResult, error) {
	obj, ok := raw["classification"].(map[string]any)
	if !ok {
		return triage.ClassificationResult{}, &message.ValidationError{Field: "classification", Reason: "required"}
	}

	in := classificationInput{}
	if v, ok := obj["category"].(string); ok {
		in.Category = strings.TrimSpace(v)
	}
	if v, ok := obj["intent"].(string); ok {
		in.Intent = strings.TrimSpace(v)
	}
	if v, ok := obj["priority"].(string); ok {
		in.Priority = v
	}
	if v, ok := obj["recommended_queue"].(string); ok {
		in.RecommendedQueue = v
	}
	if v, ok := obj["confidence"].(float64); ok {
		in.Confidence = &v
	}

	if in.Category == "" {
		return triage.ClassificationResult{}, &message.ValidationError{Field: "classification.category", Reason: "required"}
	}
	if in.Intent == "" {
		return triage.ClassificationResult{}, &message.ValidationError{Field: "classification.intent", Reason: "required"}
	}

	// Assumed-good defaults for fields the caller omitted.
	confidence := 0.85
	if in.Confidence != nil {
		if *in.Confidence < 0 || *in.Confidence > 1 {
			return triage.ClassificationResult{}, &message.ValidationError{Field: "classification.confidence", Reason: "must be in [0,1]"}
		}
		confidence = *in.Confidence
	}
	priority := triage.PriorityMedium
	if p, ok := triage.ParsePriority(in.Priority); ok {
		priority = p
	}

	return triage.ClassificationResult{
		Category:         in.Category,
		Intent:           in.Intent,
		Priority:         priority,
		RecommendedQueue: in.RecommendedQueue,
		Confidence:       confidence,
		ClassifiedAt:     time.Now().UTC(),
	}, nil
}

func annotateSpan(r *http.Request, msg *message.Message) {
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("sift.message.id", msg.ID),
		attribute.String("sift.message.channel", msg.Channel()),
	)
}
