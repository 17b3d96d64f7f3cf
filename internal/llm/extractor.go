package llm

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrExtractionFailed matches every error returned by Extractor.Extract
var ErrExtractionFailed = eris.New("ai extraction failed")

// Stage names the step at which an AI extraction failed
type Stage string

const (
	StageNotConfigured Stage = "not_configured"
	StagePrompt        Stage = "prompt"
	StageProvider      Stage = "provider"
	StageParse         Stage = "parse"
	StageSchema        Stage = "schema"
)

// ExtractionError reports a failed AI extraction
type ExtractionError struct {
	Stage Stage
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("ai extraction failed (%s): %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExtractionFailed) true for every stage
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

// Extractor runs the AI extraction: prompt, provider call, parse, validate
type Extractor struct {
	provider Provider
	prompts  *PromptRenderer
	limiter  *Limiter
	config   Config
	logger   *zap.Logger
}

// NewExtractor wraps provider, which may be nil when AI is disabled
func NewExtractor(provider Provider, config Config) *Extractor {
	return &Extractor{
		provider: provider,
		prompts:  NewPromptRenderer(),
		limiter:  NewLimiter(config.RequestsPerSecond, config.Burst),
		config:   config,
		logger:   zap.L().Named("llm"),
	}
}

// Enabled reports whether a provider is configured
func (e *Extractor) Enabled() bool {
	return e.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (e *Extractor) ProviderName() string {
	if e.provider == nil {
		return ""
	}
	return e.provider.Name()
}

// Model returns the model requests are sent to
func (e *Extractor) Model() string {
	if e.config.Model != "" {
		return e.config.Model
	}
	return DefaultModel(e.ProviderName())
}

// IsAvailable probes the provider
func (e *Extractor) IsAvailable(ctx context.Context) bool {
	return e.provider != nil && e.provider.IsAvailable(ctx)
}

// Extract asks the provider for the participants and activity type of text.
// The rate limiter wait and every retry share one Config.Timeout budget.
// Any failure, including a provider panic, is returned as an *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, text string) (ext *Extraction, err error) {
	if e.provider == nil {
		return nil, &ExtractionError{Stage: StageNotConfigured, Err: eris.New("no LLM provider configured")}
	}

	defer func() {
		if r := recover(); r != nil {
			ext = nil
			err = &ExtractionError{Stage: StageProvider, Err: eris.Errorf("provider panic: %v", r)}
		}
	}()

	prompt, err := e.prompts.Render(text)
	if err != nil {
		return nil, &ExtractionError{Stage: StagePrompt, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.timeout())
	defer cancel()

	if err := e.limiter.Wait(ctx, e.provider.Name()); err != nil {
		return nil, &ExtractionError{Stage: StageProvider, Err: eris.Wrap(err, "rate limiter")}
	}

	resp, err := e.provider.Complete(ctx, CompletionRequest{
		System:      e.prompts.System(),
		Prompt:      prompt,
		Model:       e.config.Model,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	})
	if err != nil {
		return nil, &ExtractionError{Stage: StageProvider, Err: err}
	}

	ext, err = ParseResponse(resp.Content)
	if err != nil {
		e.logger.Debug("unusable model reply", zap.String("provider", e.provider.Name()), zap.Error(err))
		return nil, err
	}

	ext.Model = resp.Model
	ext.TokensUsed = resp.TokensUsed
	return ext, nil
}
