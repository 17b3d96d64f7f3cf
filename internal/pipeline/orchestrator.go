// Package pipeline decides, per request, whether participants are extracted
// by the AI strategy or by the pattern-based fallback, and normalizes the
// result.
package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/physioform/internal/model"
)

// State is a step of one extraction request
type State string

const (
	StateAIAttempt             State = "AI_ATTEMPT"
	StateDeterministicFallback State = "DETERMINISTIC_FALLBACK"
	StateDone                  State = "DONE"
)

// Orchestrator runs one extraction per request. The two strategies are
// exclusive: a result comes entirely from one of them.
type Orchestrator struct {
	ai           Strategy
	fallback     Strategy
	availability *Availability
	logger       *zap.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator builds an orchestrator. ai may be nil, which is the same
// as AI never being available. A nil fallback uses the default
// deterministic strategy and a nil availability reads false.
func NewOrchestrator(ai, fallback Strategy, availability *Availability, opts ...Option) *Orchestrator {
	if fallback == nil {
		fallback = NewDeterministicStrategy(nil)
	}
	if availability == nil {
		availability = StaticAvailability(false)
	}

	o := &Orchestrator{
		ai:           ai,
		fallback:     fallback,
		availability: availability,
		logger:       zap.L().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Extract processes text and never fails. An AI error of any kind falls
// back to the deterministic strategy, whose result is returned unchanged.
func (o *Orchestrator) Extract(ctx context.Context, text string) model.ExtractionResult {
	if strings.TrimSpace(text) == "" {
		return emptyTextResult()
	}

	// the flag is read exactly once per request
	state := StateDeterministicFallback
	if o.ai != nil && o.availability.Available() {
		state = StateAIAttempt
	}

	var (
		outcome *Outcome
		method  model.Method
	)

	for state != StateDone {
		o.logger.Debug("extraction state", zap.String("state", string(state)))

		switch state {
		case StateAIAttempt:
			out, err := o.ai.Extract(ctx, text)
			if err != nil {
				o.logger.Warn("ai extraction failed, using pattern-based fallback", zap.Error(err))
				state = StateDeterministicFallback
				continue
			}
			outcome, method = out, o.ai.Method()
			state = StateDone

		case StateDeterministicFallback:
			out, err := o.fallback.Extract(ctx, text)
			if err != nil {
				o.logger.Error("pattern-based extraction failed", zap.Error(err))
				out = nil
			}
			outcome, method = out, o.fallback.Method()
			state = StateDone
		}
	}

	result := finalize(outcome, method)
	o.logger.Info("text processed",
		zap.String("method", string(result.Method)),
		zap.Int("participants", result.TotalParticipants),
		zap.Bool("success", result.Success),
	)
	return result
}

// Status reports the current capability flags without probing
func (o *Orchestrator) Status() model.CapabilityStatus {
	return o.availability.Status()
}

// Recheck probes the AI capability again and reports the new flags
func (o *Orchestrator) Recheck(ctx context.Context) model.CapabilityStatus {
	if o.ai != nil {
		ok := o.availability.Probe(ctx)
		o.logger.Debug("ai availability probed", zap.Bool("available", ok))
	}
	return o.availability.Status()
}
