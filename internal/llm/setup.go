package llm

import (
	"fmt"
	"os"
	"strings"
)

// vendor holds the static facts about a supported provider
type vendor struct {
	envVar       string
	consoleURL   string
	baseURL      string
	defaultModel string
}

var vendors = map[string]vendor{
	"groq": {
		envVar:       "GROQ_API_KEY",
		consoleURL:   "https://console.groq.com/",
		baseURL:      "https://api.groq.com/openai/v1",
		defaultModel: "llama-3.3-70b-versatile",
	},
	"openai": {
		envVar:       "OPENAI_API_KEY",
		consoleURL:   "https://platform.openai.com/api-keys",
		defaultModel: "gpt-4o-mini",
	},
	"anthropic": {
		envVar:       "ANTHROPIC_API_KEY",
		consoleURL:   "https://console.anthropic.com/",
		defaultModel: "claude-haiku-4-5-20251001",
	},
	"ollama": {
		baseURL:      "http://localhost:11434/v1",
		defaultModel: "llama3.1",
	},
}

// SupportedProviders lists the accepted provider names
var SupportedProviders = []string{"groq", "openai", "anthropic", "ollama"}

func lookupVendor(provider string) vendor {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "claude" {
		provider = "anthropic"
	}
	return vendors[provider]
}

// APIKeyEnv returns the environment variable holding the provider's API key
func APIKeyEnv(provider string) string {
	return lookupVendor(provider).envVar
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	return lookupVendor(provider).defaultModel
}

// DefaultBaseURL returns the API endpoint of OpenAI-compatible vendors other
// than OpenAI itself.
func DefaultBaseURL(provider string) string {
	return lookupVendor(provider).baseURL
}

// SetupGuide tells an operator how to enable AI extraction
type SetupGuide struct {
	Message      string   `json:"message"`
	Provider     string   `json:"provider"`
	Steps        []string `json:"steps"`
	EnvVar       string   `json:"env_var,omitempty"`
	ConsoleURL   string   `json:"console_url,omitempty"`
	Model        string   `json:"model"`
	APIKeySet    bool     `json:"api_key_set"`
	FallbackNote string   `json:"note"`
}

// Setup builds the guide for the configured provider. An empty or unknown
// provider gets the Groq instructions.
func Setup(config Config) SetupGuide {
	name := strings.ToLower(strings.TrimSpace(config.Provider))
	if _, ok := vendors[name]; !ok && name != "claude" {
		name = "groq"
	}
	if name == "claude" {
		name = "anthropic"
	}
	v := vendors[name]

	model := config.Model
	if model == "" {
		model = v.defaultModel
	}

	guide := SetupGuide{
		Message:    fmt.Sprintf("%s API Setup Instructions", displayName(name)),
		Provider:   name,
		EnvVar:     v.envVar,
		ConsoleURL: v.consoleURL,
		Model:      model,
		APIKeySet:  config.APIKey != "" || name == "ollama" || os.Getenv(v.envVar) != "",
		FallbackNote: "Pattern-based extraction works without an API key, " +
			"but AI extraction gives much better results for free-form Hebrew text.",
	}

	if name == "ollama" {
		guide.Steps = []string{
			"1. Install Ollama from https://ollama.com/",
			fmt.Sprintf("2. Pull the model: ollama pull %s", model),
			"3. Set PHYSIOFORM_LLM_PROVIDER=ollama",
			"4. Restart physioform",
		}
		return guide
	}

	guide.Steps = []string{
		fmt.Sprintf("1. Get your %s API key from %s", displayName(name), v.consoleURL),
		"2. Create a .env file next to the physioform binary",
		fmt.Sprintf("3. Add: %s=your-api-key-here", v.envVar),
		fmt.Sprintf("4. Set PHYSIOFORM_LLM_PROVIDER=%s (or llm.provider in config.yaml)", name),
		"5. Restart physioform; /health reports ai_extraction: true once the key works",
	}
	return guide
}

func displayName(provider string) string {
	switch provider {
	case "openai":
		return "OpenAI"
	case "groq":
		return "Groq"
	case "anthropic":
		return "Anthropic"
	case "ollama":
		return "Ollama"
	default:
		return provider
	}
}
