// Package cfg holds sift's application-level configuration, registered and
// validated the same way as the shared go-core config packages.
package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Providers selectable with -llm-provider.
const (
	ProviderClaude = "claude"
	ProviderStub   = "stub"
)

// Config adds pipeline-specific configuration fields to the common
// cfg.Registerable and cfg.Validatable interfaces.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	LLMProvider           string
	ClaudeAPIKey          string
	ClaudeModel           string
	MinConfidence         float64
	RetryAttempts         int
	RetryBaseDelayMS      int
	DefaultQueue          string
	WebhookAPIKey         string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.LLMProvider, "llm-provider", ProviderClaude, "LLM backend for classification and drafting (claude or stub)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for accessing the Claude LLM provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.Float64Var(&c.MinConfidence, "min-confidence", 0.5, "confidence below which classifications are flagged low-confidence (0..1)")
	fs.IntVar(&c.RetryAttempts, "retry-attempts", 3, "total provider call attempts per stage, including the first (1..10)")
	fs.IntVar(&c.RetryBaseDelayMS, "retry-base-delay-ms", 250, "base retry delay in milliseconds, doubled per attempt with jitter")
	fs.StringVar(&c.DefaultQueue, "default-queue", "Customer Support", "queue assigned when classification falls back or omits one")
	fs.StringVar(&c.WebhookAPIKey, "webhook-api-key", "", "API key protecting the public webhook endpoint (empty = unprotected)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for triage notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	switch c.LLMProvider {
	case ProviderClaude:
		// Claude needs credentials; the stub runs with none.
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required when LLM_PROVIDER is claude"))
		}
		if c.ClaudeModel == "" {
			errs = append(errs, errors.New("CLAUDE_MODEL is required when LLM_PROVIDER is claude"))
		}
	case ProviderStub:
	default:
		errs = append(errs, fmt.Errorf("invalid LLM_PROVIDER %q (must be claude or stub)", c.LLMProvider))
	}

	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("invalid MIN_CONFIDENCE %v (must be 0..1)", c.MinConfidence))
	}
	if c.RetryAttempts < 1 || c.RetryAttempts > 10 {
		errs = append(errs, fmt.Errorf("invalid RETRY_ATTEMPTS %d (must be 1..10)", c.RetryAttempts))
	}
	if c.RetryBaseDelayMS < 0 {
		errs = append(errs, fmt.Errorf("invalid RETRY_BASE_DELAY_MS %d (must be >= 0)", c.RetryBaseDelayMS))
	}
	if c.DefaultQueue == "" {
		errs = append(errs, errors.New("DEFAULT_QUEUE must not be empty"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
