package triage

// Hooks lets callers observe pipeline execution without the stages depending
// on a metrics backend. Any field may be nil.
type Hooks struct {
	// OnProviderCall fires after every provider call completes (err covers
	// the whole retried sequence, not individual attempts).
	OnProviderCall func(stage string, comp *Completion, duration float64, err error)
	// OnClassify fires when the classification stage produces its result.
	OnClassify func(r *ClassificationResult, duration float64)
	// OnDraft fires when the draft stage produces its result.
	OnDraft func(r *DraftResult, duration float64)
	// OnTriage fires when the engine combines a full result.
	OnTriage func(r *Result)
}

func (h Hooks) providerCall(stage string, comp *Completion, duration float64, err error) {
	if h.OnProviderCall != nil {
		h.OnProviderCall(stage, comp, duration, err)
	}
}

func (h Hooks) classified(r *ClassificationResult, duration float64) {
	if h.OnClassify != nil {
		h.OnClassify(r, duration)
	}
}

func (h Hooks) drafted(r *DraftResult, duration float64) {
	if h.OnDraft != nil {
		h.OnDraft(r, duration)
	}
}

func (h Hooks) triaged(r *Result) {
	if h.OnTriage != nil {
		h.OnTriage(r)
	}
}
