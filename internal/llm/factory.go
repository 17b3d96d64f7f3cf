package llm

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// NewProvider creates a new LLM provider based on configuration. An empty
// provider name (or "none") disables AI extraction and returns nil, nil.
// A missing API key is read from the provider's environment variable.
func NewProvider(config Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(config.Provider))
	config.Provider = name

	if config.APIKey == "" {
		if env := APIKeyEnv(name); env != "" {
			config.APIKey = os.Getenv(env)
		}
	}

	switch name {
	case "groq", "openai", "ollama":
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "anthropic", "claude":
		p, err := NewAnthropicProvider(config)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "", "none":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, eris.Errorf("unknown LLM provider: %s (supported: %s)",
			config.Provider, strings.Join(SupportedProviders, ", "))
	}
}
