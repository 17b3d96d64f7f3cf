package model

import "time"

// Config is the complete physioform configuration
type Config struct {
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures the AI extraction provider
type LLMConfig struct {
	// Provider name: "groq", "openai", "ollama", "anthropic", "" (disabled)
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	// APIKey is usually left empty here and read from GROQ_API_KEY etc.
	APIKey  string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`

	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`

	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ProbeInterval  time.Duration `yaml:"probe_interval" mapstructure:"probe_interval"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
}

// CacheConfig configures the in-memory AI result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "console"
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "groq",
			Timeout:           30,
			MaxTokens:         1000,
			Temperature:       0.1,
			MaxRetries:        3,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			ProbeInterval:  5 * time.Minute,
			Environment:    "development",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
