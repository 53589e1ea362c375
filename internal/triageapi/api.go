// Package triageapi exposes the triage pipeline over HTTP. Handlers here are
// thin: they normalize payloads, invoke the pipeline, and encode results.
// Only validation failures surface as HTTP errors; provider-side degradation
// is always data in the response body.
package triageapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/sift/internal/authmw"
	"github.com/linnemanlabs/sift/internal/ingest"
	"github.com/linnemanlabs/sift/internal/message"
	"github.com/linnemanlabs/sift/internal/triage"
)

// Pipeline defines the triage operations the API exposes.
type Pipeline interface {
	Classify(ctx context.Context, msg *message.Message) triage.ClassificationResult
	Draft(ctx context.Context, msg *message.Message, cls triage.ClassificationResult) triage.DraftResult
	Triage(ctx context.Context, msg *message.Message) *triage.Result
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger   log.Logger
	pipeline Pipeline
	sources  *ingest.Registry
	notifier triage.Notifier

	// webhookKey, when non-empty, gates the public webhook route.
	webhookKey string

	// onRejected counts normalization rejections per source; nil-safe.
	onRejected func(source string)
}

// Option customizes the API.
type Option func(*API)

// WithNotifier forwards completed triage results to n asynchronously.
func WithNotifier(n triage.Notifier) Option {
	return func(a *API) { a.notifier = n }
}

// WithWebhookKey protects the webhook route with an API key.
func WithWebhookKey(key string) Option {
	return func(a *API) { a.webhookKey = key }
}

// WithRejectionCounter observes normalization rejections, e.g. for metrics.
func WithRejectionCounter(fn func(source string)) Option {
	return func(a *API) { a.onRejected = fn }
}

// New creates the API handler.
func New(logger log.Logger, pipeline Pipeline, sources *ingest.Registry, opts ...Option) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if pipeline == nil {
		panic(xerrors.New("triage pipeline is required"))
	}
	if sources == nil {
		sources = ingest.NewRegistry()
	}
	a := &API{
		logger:   logger,
		pipeline: pipeline,
		sources:  sources,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/messages/classify", a.handleClassify)
		r.Post("/messages/draft", a.handleDraft)
		r.Post("/messages/triage", a.handleTriage)
		r.Get("/inbox/{source}", a.handleInbox)

		webhook := a.handleWebhook
		if a.webhookKey != "" {
			webhook = authmw.APIKey(a.webhookKey)(http.HandlerFunc(a.handleWebhook)).ServeHTTP
		}
		r.Post("/webhook/incoming", webhook)
	})
}

// notify dispatches the result asynchronously so a slow notification backend
// never holds up the response.
func (a *API) notify(ctx context.Context, msg *message.Message, result *triage.Result) {
	if a.notifier == nil {
		return
	}
	go func(ctx context.Context) {
		if err := a.notifier.Send(ctx, msg, result); err != nil {
			a.logger.Error(ctx, err, "triage notification failed", "message_id", msg.ID)
		}
	}(context.WithoutCancel(ctx))
}

func (a *API) rejected(source string) {
	if a.onRejected != nil {
		a.onRejected(source)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeBadInput maps a normalization failure to a 400 with field detail.
// Anything that is not a ValidationError is an internal bug, not bad input.
func (a *API) writeBadInput(w http.ResponseWriter, r *http.Request, err error) {
	var verr *message.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
		return
	}
	a.logger.Error(r.Context(), err, "unexpected normalization failure")
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

// decodeRaw reads the request body as an untyped payload.
func decodeRaw(r *http.Request) (message.Raw, error) {
	var raw message.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, &message.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	return raw, nil
}
