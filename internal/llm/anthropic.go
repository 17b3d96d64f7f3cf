package llm

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/physioform/internal/util"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	client sdk.Client
	config Config
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider. Retries of
// transient failures are left to the SDK.
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, eris.Errorf("anthropic API key is required (set %s)", APIKeyEnv("anthropic"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(max(config.MaxRetries, 0)),
		option.WithHTTPClient(util.NewHTTPClient(config.HTTPProxy, config.HTTPSProxy, config.NoProxy, config.timeout())),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	model := config.Model
	if model == "" {
		model = DefaultModel("anthropic")
	}

	return &AnthropicProvider{
		client: sdk.NewClient(opts...),
		config: config,
		model:  model,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	if _, err := p.client.Models.List(ctx, sdk.ModelListParams{}); err != nil {
		zap.L().Warn("llm availability check failed", zap.String("provider", "anthropic"), zap.Error(err))
		return false
	}
	return true
}

// Complete sends the request to the Messages API
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(p.config.maxTokens(req.MaxTokens)),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
		Temperature: sdk.Float(temperature),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic API error")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, eris.New("no content in anthropic response")
	}

	return &CompletionResponse{
		Content:    strings.TrimSpace(text.String()),
		Model:      string(msg.Model),
		TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}, nil
}
