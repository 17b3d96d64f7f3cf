package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ppiankov/physioform/internal/util"
)

// OpenAIProvider implements the Provider interface for any OpenAI-compatible
// chat completions API: OpenAI itself, Groq and Ollama.
type OpenAIProvider struct {
	client *openai.Client
	config Config
	name   string
	model  string
	retry  RetryConfig
}

// NewOpenAIProvider creates a provider for config.Provider ("openai", "groq"
// or "ollama"), filling in the vendor's base URL and default model.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	name := strings.ToLower(config.Provider)
	if name == "" {
		name = "openai"
	}

	apiKey := config.APIKey
	if apiKey == "" {
		if name != "ollama" {
			return nil, eris.Errorf("%s API key is required (set %s)", name, APIKeyEnv(name))
		}
		// Ollama ignores the key but the client sends one
		apiKey = "ollama"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := config.BaseURL; baseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/")
	} else if baseURL := DefaultBaseURL(name); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(config.HTTPProxy, config.HTTPSProxy, config.NoProxy, config.timeout())

	model := config.Model
	if model == "" {
		model = DefaultModel(name)
	}

	retry := DefaultRetryConfig(config.MaxRetries)
	retry.OnRetry = retryLogger(name)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   name,
		model:  model,
		retry:  retry,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	// Simple check: try to list models (lightweight API call)
	if _, err := p.client.ListModels(ctx); err != nil {
		zap.L().Warn("llm availability check failed", zap.String("provider", p.name), zap.Error(err))
		return false
	}
	return true
}

// Complete sends the request to the Chat Completions API, asking for a JSON
// object reply. Rate-limit and server errors are retried with backoff.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   p.config.maxTokens(req.MaxTokens),
		Temperature: float32(temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := retryVal(ctx, p.retry, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
		defer cancel()
		return p.client.CreateChatCompletion(ctx, chatReq)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "%s API error", p.name)
	}

	if len(resp.Choices) == 0 {
		return nil, eris.Errorf("no response from %s", p.name)
	}

	return &CompletionResponse{
		Content:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
