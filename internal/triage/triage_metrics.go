package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage pipeline.
type Metrics struct {
	TriagesTotal    *prometheus.CounterVec
	TriageDuration  *prometheus.HistogramVec
	StageTotal      *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	Confidence      prometheus.Histogram
	LLMCallsTotal   *prometheus.CounterVec
	LLMDuration     *prometheus.HistogramVec
	LLMTokensIn     prometheus.Counter
	LLMTokensOut    prometheus.Counter
	NormalizeErrors *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_triages_total",
			Help: "Total triage runs by outcome (ok or degraded).",
		}, []string{"outcome"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sift_triage_duration_seconds",
			Help:    "Duration of full triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. ~51s
		}, []string{"outcome"}),
		StageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_stage_total",
			Help: "Stage executions by stage name and outcome (ok or fallback).",
		}, []string{"stage", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sift_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"stage"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_classification_confidence",
			Help:    "Classifier-reported confidence per classification.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 .. 1.0
		}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_llm_calls_total",
			Help: "Retried provider call sequences by stage and status.",
		}, []string{"stage", "status"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sift_llm_call_duration_seconds",
			Help:    "Duration of provider call sequences in seconds, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 0.1s .. ~12.8s
		}, []string{"stage"}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sift_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sift_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		NormalizeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_normalize_errors_total",
			Help: "Payload normalization rejections by source.",
		}, []string{"source"}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.TriageDuration,
		m.StageTotal,
		m.StageDuration,
		m.Confidence,
		m.LLMCallsTotal,
		m.LLMDuration,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.NormalizeErrors,
	)

	return m
}

// Hooks returns pipeline hooks that feed these metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnProviderCall: func(stage string, comp *Completion, duration float64, err error) {
			status := "success"
			if err != nil {
				status = "error"
			}
			m.LLMCallsTotal.WithLabelValues(stage, status).Inc()
			m.LLMDuration.WithLabelValues(stage).Observe(duration)
			if comp != nil {
				m.LLMTokensIn.Add(float64(comp.Usage.InputTokens))
				m.LLMTokensOut.Add(float64(comp.Usage.OutputTokens))
			}
		},
		OnClassify: func(r *ClassificationResult, duration float64) {
			m.StageTotal.WithLabelValues("classify", stageOutcome(r.FallbackUsed)).Inc()
			m.StageDuration.WithLabelValues("classify").Observe(duration)
			m.Confidence.Observe(r.Confidence)
		},
		OnDraft: func(r *DraftResult, duration float64) {
			m.StageTotal.WithLabelValues("draft", stageOutcome(r.FallbackUsed)).Inc()
			m.StageDuration.WithLabelValues("draft").Observe(duration)
		},
		OnTriage: func(r *Result) {
			outcome := "ok"
			if r.Degraded() {
				outcome = "degraded"
			}
			m.TriagesTotal.WithLabelValues(outcome).Inc()
			m.TriageDuration.WithLabelValues(outcome).Observe(r.Duration)
		},
	}
}

func stageOutcome(fallback bool) string {
	if fallback {
		return "fallback"
	}
	return "ok"
}
