package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/physioform/internal/cache"
	"github.com/ppiankov/physioform/internal/extract"
	"github.com/ppiankov/physioform/internal/llm"
	"github.com/ppiankov/physioform/internal/model"
)

// Outcome is what a strategy found in one text, before normalization
type Outcome struct {
	Participants []model.ParticipantRecord `json:"participants"`
	ActivityType *model.ActivityType       `json:"activity_type"`
}

// Strategy is one way of extracting participants from text. There are two:
// AIStrategy and DeterministicStrategy.
type Strategy interface {
	Method() model.Method
	Extract(ctx context.Context, text string) (*Outcome, error)
}

// DeterministicStrategy segments the text and applies the pattern library
// to every chunk. It never fails.
type DeterministicStrategy struct {
	extractor *extract.Extractor
}

// NewDeterministicStrategy wraps e; nil uses the default extractor
func NewDeterministicStrategy(e *extract.Extractor) *DeterministicStrategy {
	if e == nil {
		e = extract.NewExtractor(nil, nil, nil)
	}
	return &DeterministicStrategy{extractor: e}
}

// Method identifies the strategy
func (s *DeterministicStrategy) Method() model.Method { return model.MethodDeterministic }

// Extract runs segmentation, classification and per-chunk extraction
func (s *DeterministicStrategy) Extract(_ context.Context, text string) (*Outcome, error) {
	out := &Outcome{Participants: s.extractor.Extract(text)}
	if activity, ok := s.extractor.Classify(text); ok {
		out.ActivityType = model.ActivityPtr(activity)
	}
	return out, nil
}

// AIExtractor is the LLM adapter used by AIStrategy
type AIExtractor interface {
	Extract(ctx context.Context, text string) (*llm.Extraction, error)
	ProviderName() string
	Model() string
	IsAvailable(ctx context.Context) bool
}

// AIStrategy asks an LLM for the participants. Successful results can be
// cached per provider, model and text.
type AIStrategy struct {
	extractor AIExtractor
	cache     cache.Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewAIStrategy wraps extractor; c may be nil to disable caching
func NewAIStrategy(extractor AIExtractor, c cache.Cache, ttl time.Duration) *AIStrategy {
	return &AIStrategy{
		extractor: extractor,
		cache:     c,
		ttl:       ttl,
		logger:    zap.L().Named("ai"),
	}
}

// Method identifies the strategy
func (s *AIStrategy) Method() model.Method { return model.MethodAI }

// IsAvailable probes the underlying provider, so the strategy can back the
// availability flag
func (s *AIStrategy) IsAvailable(ctx context.Context) bool {
	return s.extractor.IsAvailable(ctx)
}

// Extract calls the LLM, or returns a cached outcome for the same text
func (s *AIStrategy) Extract(ctx context.Context, text string) (*Outcome, error) {
	key := cache.CacheKey(s.extractor.ProviderName(), s.extractor.Model(), text)

	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			var out Outcome
			if err := json.Unmarshal(data, &out); err == nil {
				s.logger.Debug("ai result served from cache")
				return &out, nil
			}
			_ = s.cache.Delete(key)
		}
	}

	ext, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Participants: ext.Participants, ActivityType: ext.ActivityType}
	s.logger.Debug("ai extraction complete",
		zap.String("model", ext.Model),
		zap.Int("tokens", ext.TokensUsed),
		zap.Int("participants", len(ext.Participants)),
	)

	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(key, data, s.ttl)
		}
	}
	return out, nil
}
