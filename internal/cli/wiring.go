package cli

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/physioform/internal/cache"
	"github.com/ppiankov/physioform/internal/llm"
	"github.com/ppiankov/physioform/internal/model"
	"github.com/ppiankov/physioform/internal/pipeline"
)

// app holds the components shared by the commands
type app struct {
	orchestrator *pipeline.Orchestrator
	llmConfig    llm.Config
	provider     string
	model        string
}

// buildApp wires the extraction pipeline from c. A misconfigured provider
// is logged and leaves the pattern-based fallback as the only strategy.
// When AI is enabled the availability flag is probed once before returning.
func buildApp(ctx context.Context, c *model.Config, disableAI bool) *app {
	logger := zap.L()
	llmCfg := llm.ConfigFromModel(c.LLM)
	a := &app{llmConfig: llmCfg}

	var (
		ai           pipeline.Strategy
		availability *pipeline.Availability
	)

	if !disableAI {
		provider, err := llm.NewProvider(llmCfg)
		switch {
		case err != nil:
			logger.Warn("AI extraction disabled", zap.Error(err))
		case provider == nil:
			logger.Info("AI extraction disabled by configuration")
		default:
			extractor := llm.NewExtractor(provider, llmCfg)
			a.provider = extractor.ProviderName()
			a.model = extractor.Model()

			var resultCache cache.Cache
			if c.Cache.Enabled && c.Cache.TTL > 0 {
				resultCache = cache.NewMemoryCache(c.Cache.TTL, 2*c.Cache.TTL)
			}

			strategy := pipeline.NewAIStrategy(extractor, resultCache, c.Cache.TTL)
			availability = pipeline.NewAvailability(strategy)
			ai = strategy

			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout(llmCfg))
			ok := availability.Probe(probeCtx)
			cancel()
			logger.Info("AI availability probed",
				zap.String("provider", a.provider),
				zap.String("model", a.model),
				zap.Bool("available", ok),
			)
		}
	}

	a.orchestrator = pipeline.NewOrchestrator(ai, pipeline.NewDeterministicStrategy(nil), availability,
		pipeline.WithLogger(logger.Named("pipeline")))
	return a
}

func probeTimeout(c llm.Config) time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return 30 * time.Second
}
