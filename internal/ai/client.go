// Package ai provides the model-backed analyzer: semantic issue
// detection and refactoring proposals through the Anthropic API.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// ModelDefault is the model used for semantic analysis and
	// refactoring proposals unless overridden.
	ModelDefault = "claude-sonnet-4-5-20250929"

	// Conservative client-side throttle so long analysis passes stay
	// well under account rate limits.
	defaultRateLimit = rate.Limit(1)
	defaultBurstSize = 5
)

// GetModel returns the model to use, checking the MEND_MODEL env var first.
func GetModel() string {
	if model := os.Getenv("MEND_MODEL"); model != "" {
		return model
	}
	return ModelDefault
}

// APIKeyAvailable reports whether an Anthropic API key is configured in
// the environment. Callers use this to skip the semantic phase cleanly
// instead of failing the whole run.
func APIKeyAvailable() bool {
	return os.Getenv("ANTHROPIC_API_KEY") != ""
}

// UsageRecorder receives token counts for every completed model call.
// Defined here so the usage tracker can be injected without a circular
// import.
type UsageRecorder interface {
	RecordModelCall(inputTokens, outputTokens int64)
}

// Analyzer is the model-backed analyzer. Its two entry points are
// SemanticAnalyze (flag issues in a file) and ProposeRefactoring (turn a
// scored opportunity into a concrete, applicable refactoring).
type Analyzer struct {
	client  *anthropic.Client
	model   string
	retry   RetryConfig
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	usage   UsageRecorder
}

// Config holds analyzer configuration.
type Config struct {
	APIKey string // empty reads ANTHROPIC_API_KEY
	Model  string // empty selects GetModel()

	Retry RetryConfig // zero value selects DefaultRetryConfig()

	// Usage, when set, receives token counts per call.
	Usage UsageRecorder
}

// NewAnalyzer creates a model-backed analyzer.
func NewAnalyzer(cfg *Config) (*Analyzer, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	var sem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		sem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	return &Analyzer{
		client:  &client,
		model:   model,
		retry:   retry,
		sem:     sem,
		limiter: rate.NewLimiter(defaultRateLimit, defaultBurstSize),
		usage:   cfg.Usage,
	}, nil
}

// Model returns the model the analyzer calls.
func (a *Analyzer) Model() string {
	return a.model
}

// callModel sends a single prompt and returns the concatenated text
// blocks of the response. Retries, throttling, and usage recording all
// happen here so the callers stay declarative.
func (a *Analyzer) callModel(ctx context.Context, operation, prompt string, maxTokens int) (string, error) {
	start := time.Now()

	var response *anthropic.Message
	err := a.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := a.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	if a.usage != nil {
		a.usage.RecordModelCall(response.Usage.InputTokens, response.Usage.OutputTokens)
	}
	fmt.Printf("Model %s call: input=%d tokens, output=%d tokens, duration=%v\n",
		operation, response.Usage.InputTokens, response.Usage.OutputTokens, time.Since(start))

	return text, nil
}
