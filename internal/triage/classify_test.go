package triage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/message"
)

// mockProvider returns preconfigured completions and errors in sequence.
type mockProvider struct {
	mu        sync.Mutex
	responses []*Completion
	errs      []error
	calls     []*CompletionRequest
}

func (m *mockProvider) Complete(_ context.Context, req *CompletionRequest) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.calls)
	m.calls = append(m.calls, req)

	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	// fallback: deterministic valid classification
	return &Completion{
		Text:  `{"category":"General Inquiry","intent":"General question","priority":"Medium","recommended_queue":"Customer Support","confidence":0.8}`,
		Model: "mock",
		Usage: Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockProvider) lastCall() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

func testMessage() *message.Message {
	return &message.Message{
		ID:       "01TESTMESSAGEID",
		Sender:   "user@example.com",
		Subject:  "Invoice issue",
		Content:  "I have an invoice issue and need a refund.",
		Metadata: map[string]string{"product": "Discovery", "channel": "manual"},
	}
}

func newTestClassifier(p Provider) *Classifier {
	return NewClassifier(p, ZeroDelayRetryPolicy(3), 0.5, "Customer Support", log.Nop(), Hooks{})
}

func TestClassify_Success(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		responses: []*Completion{{
			Text:  `{"category":"Billing Support","intent":"invoice dispute","priority":"High","recommended_queue":"billing","confidence":0.92}`,
			Model: "mock",
			Usage: Usage{InputTokens: 100, OutputTokens: 40},
		}},
	}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if r.FallbackUsed {
		t.Fatalf("fallback_used = true, want false (error = %q)", r.Error)
	}
	if r.Category != "Billing Support" {
		t.Errorf("category = %q, want %q", r.Category, "Billing Support")
	}
	if r.Intent != "Invoice dispute" {
		t.Errorf("intent = %q, want %q (capitalized)", r.Intent, "Invoice dispute")
	}
	if r.Priority != PriorityHigh {
		t.Errorf("priority = %q, want %q", r.Priority, PriorityHigh)
	}
	if r.RecommendedQueue != "billing" {
		t.Errorf("queue = %q, want %q", r.RecommendedQueue, "billing")
	}
	if r.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", r.Confidence)
	}
	if r.LowConfidence {
		t.Error("low_confidence = true, want false")
	}
	if r.ClassifiedAt.IsZero() {
		t.Error("expected classified_at to be set")
	}
	if provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.callCount())
	}
}

func TestClassify_PromptCarriesContext(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{}
	c := newTestClassifier(provider)

	c.Classify(context.Background(), testMessage())

	req := provider.lastCall()
	if req == nil {
		t.Fatal("provider was never called")
	}
	for _, want := range []string{"invoice issue", "Invoice issue", "Discovery", "manual"} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, req.Prompt)
		}
	}
	if req.System == "" {
		t.Error("expected non-empty system prompt")
	}
}

func TestClassify_TransientErrorRetriedThenSucceeds(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		errs: []error{Transient(errors.New("rate limited")), Transient(errors.New("rate limited"))},
		responses: []*Completion{nil, nil, {
			Text: `{"category":"Dispatch Communication","intent":"ETA request","priority":"Medium","recommended_queue":"Dispatch Team","confidence":0.7}`,
		}},
	}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if r.FallbackUsed {
		t.Fatalf("fallback_used = true after successful retry, error = %q", r.Error)
	}
	if r.Category != "Dispatch Communication" {
		t.Errorf("category = %q, want %q", r.Category, "Dispatch Communication")
	}
	if provider.callCount() != 3 {
		t.Errorf("provider calls = %d, want 3", provider.callCount())
	}
}

func TestClassify_ExhaustedRetriesFallsBack(t *testing.T) {
	t.Parallel()

	boom := Transient(errors.New("upstream 503"))
	provider := &mockProvider{errs: []error{boom, boom, boom}}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if !r.FallbackUsed {
		t.Fatal("fallback_used = false, want true")
	}
	if r.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", r.Confidence)
	}
	if r.Category != FallbackCategory {
		t.Errorf("category = %q, want %q", r.Category, FallbackCategory)
	}
	if r.Priority != FallbackPriority {
		t.Errorf("priority = %q, want %q", r.Priority, FallbackPriority)
	}
	if r.RecommendedQueue != "Customer Support" {
		t.Errorf("queue = %q, want default queue", r.RecommendedQueue)
	}
	if r.Error == "" {
		t.Error("expected error to be populated")
	}
	if provider.callCount() != 3 {
		t.Errorf("provider calls = %d, want 3 (attempt cap)", provider.callCount())
	}
}

func TestClassify_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{errs: []error{errors.New("invalid api key")}}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if !r.FallbackUsed {
		t.Fatal("fallback_used = false, want true")
	}
	if provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1 (no retry on permanent error)", provider.callCount())
	}
}

func TestClassify_OutOfRangeConfidenceIsSchemaFailure(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		responses: []*Completion{{
			Text: `{"category":"Billing Support","intent":"x","priority":"High","recommended_queue":"billing","confidence":1.4}`,
		}},
	}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if !r.FallbackUsed {
		t.Fatal("fallback_used = false, want true")
	}
	if r.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", r.Confidence)
	}
	if !strings.Contains(r.Error, "out of [0,1]") {
		t.Errorf("error = %q, want out-of-range cause", r.Error)
	}
	// Malformed output is not retried.
	if provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.callCount())
	}
}

func TestClassify_MissingCategoryFallsBack(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		responses: []*Completion{{Text: `{"intent":"x","confidence":0.9}`}},
	}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if !r.FallbackUsed {
		t.Fatal("fallback_used = false, want true")
	}
	if !strings.Contains(r.Error, "missing category") {
		t.Errorf("error = %q, want missing-category cause", r.Error)
	}
	if provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.callCount())
	}
}

func TestClassify_UnparsableReplyFallsBack(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		responses: []*Completion{{Text: "I think this is probably a billing question."}},
	}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if !r.FallbackUsed {
		t.Fatal("fallback_used = false, want true")
	}
	if provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.callCount())
	}
}

func TestClassify_StripsMarkdownFences(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		responses: []*Completion{{
			Text: "```json\n{\"category\":\"Marketing\",\"intent\":\"unsubscribe\",\"priority\":\"Low\",\"recommended_queue\":\"Automation\",\"confidence\":0.95}\n```",
		}},
	}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if r.FallbackUsed {
		t.Fatalf("fallback_used = true, error = %q", r.Error)
	}
	if r.Category != "Marketing" {
		t.Errorf("category = %q, want %q", r.Category, "Marketing")
	}
}

func TestClassify_LowConfidenceIsNotFallback(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		responses: []*Completion{{
			Text: `{"category":"General Inquiry","intent":"question","priority":"Medium","recommended_queue":"Customer Support","confidence":0.3}`,
		}},
	}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	// Low confidence is flagged but the result is returned as-is; fallback
	// marks a degraded call, not an uncertain model.
	if !r.LowConfidence {
		t.Error("low_confidence = false, want true")
	}
	if r.FallbackUsed {
		t.Error("fallback_used = true, want false")
	}
	if r.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", r.Confidence)
	}
}

func TestClassify_UnknownPriorityDefaultsToMedium(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		responses: []*Completion{{
			Text: `{"category":"Sensor Alert","intent":"fault","priority":"critical","recommended_queue":"Ops Team","confidence":0.8}`,
		}},
	}
	c := newTestClassifier(provider)

	r := c.Classify(context.Background(), testMessage())

	if r.FallbackUsed {
		t.Fatalf("fallback_used = true, error = %q", r.Error)
	}
	if r.Priority != PriorityMedium {
		t.Errorf("priority = %q, want %q for unknown input", r.Priority, PriorityMedium)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	text := `{"category":"Billing Support","intent":"Invoice Dispute","priority":"High","recommended_queue":"billing","confidence":0.92}`
	provider := &mockProvider{responses: []*Completion{{Text: text}, {Text: text}}}
	c := newTestClassifier(provider)

	first := c.Classify(context.Background(), testMessage())
	second := c.Classify(context.Background(), testMessage())

	// Timestamps differ; everything the classifier derives must not.
	first.ClassifiedAt = time.Time{}
	second.ClassifiedAt = time.Time{}
	if first != second {
		t.Errorf("results differ across identical calls:\n%+v\n%+v", first, second)
	}
}

func TestClassify_HooksObserveCalls(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var stages []string
	var fallbacks []bool
	hooks := Hooks{
		OnProviderCall: func(stage string, _ *Completion, _ float64, _ error) {
			mu.Lock()
			stages = append(stages, stage)
			mu.Unlock()
		},
		OnClassify: func(r *ClassificationResult, _ float64) {
			mu.Lock()
			fallbacks = append(fallbacks, r.FallbackUsed)
			mu.Unlock()
		},
	}
	c := NewClassifier(&mockProvider{}, ZeroDelayRetryPolicy(1), 0.5, "Customer Support", log.Nop(), hooks)

	c.Classify(context.Background(), testMessage())

	mu.Lock()
	defer mu.Unlock()
	if len(stages) != 1 || stages[0] != "classify" {
		t.Errorf("provider call hooks = %v, want [classify]", stages)
	}
	if len(fallbacks) != 1 || fallbacks[0] {
		t.Errorf("classify hooks = %v, want [false]", fallbacks)
	}
}
