package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock LLM provider for testing
type MockProvider struct {
	name      string
	available bool
	content   string
	err       error
	panicMsg  string
	lastReq   CompletionRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.lastReq = req
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &CompletionResponse{Content: m.content, Model: "mock-model", TokensUsed: 42}, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestExtractor_Disabled(t *testing.T) {
	e := NewExtractor(nil, DefaultConfig())

	assert.False(t, e.Enabled())
	assert.Empty(t, e.ProviderName())
	assert.False(t, e.IsAvailable(context.Background()))

	_, err := e.Extract(context.Background(), "text")
	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, StageNotConfigured, extErr.Stage)
}

func TestExtractor_Success(t *testing.T) {
	mock := &MockProvider{
		name:      "mock",
		available: true,
		content:   `{"activity_type": "התעמלות לאחר לידה", "participants": [{"name": "ליאת ישראלי", "id": "321654987", "receipt_number": "98765", "amount": "200"}]}`,
	}
	cfg := DefaultConfig()
	cfg.Model = "configured-model"
	e := NewExtractor(mock, cfg)

	ext, err := e.Extract(context.Background(), "שם: ליאת ישראלי")
	require.NoError(t, err)

	assert.True(t, e.Enabled())
	assert.Equal(t, "mock", e.ProviderName())
	assert.True(t, e.IsAvailable(context.Background()))
	require.Len(t, ext.Participants, 1)
	assert.Equal(t, "321654987", ext.Participants[0].NationalID)
	assert.Equal(t, "mock-model", ext.Model)
	assert.Equal(t, 42, ext.TokensUsed)

	assert.Equal(t, "configured-model", mock.lastReq.Model)
	assert.Contains(t, mock.lastReq.Prompt, "שם: ליאת ישראלי")
	assert.NotEmpty(t, mock.lastReq.System)
}

func TestExtractor_ProviderError(t *testing.T) {
	mock := &MockProvider{name: "mock", err: errors.New("connection refused")}
	e := NewExtractor(mock, DefaultConfig())

	_, err := e.Extract(context.Background(), "text")
	require.ErrorIs(t, err, ErrExtractionFailed)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, StageProvider, extErr.Stage)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExtractor_MalformedReply(t *testing.T) {
	mock := &MockProvider{name: "mock", content: "sorry, no JSON today"}
	e := NewExtractor(mock, DefaultConfig())

	_, err := e.Extract(context.Background(), "text")
	require.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractor_RecoversFromPanic(t *testing.T) {
	mock := &MockProvider{name: "mock", panicMsg: "boom"}
	e := NewExtractor(mock, DefaultConfig())

	ext, err := e.Extract(context.Background(), "text")
	assert.Nil(t, ext)
	require.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractor_CancelledContext(t *testing.T) {
	mock := &MockProvider{name: "mock", content: `{"participants": []}`}
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	e := NewExtractor(mock, cfg)

	// first call consumes the only token
	_, err := e.Extract(context.Background(), "text")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Extract(ctx, "text")
	require.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractor_TimeoutCoversRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(900 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := Config{
		Provider:   "groq",
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Timeout:    1,
		MaxRetries: 3,
	}
	provider, err := NewOpenAIProvider(cfg)
	require.NoError(t, err)
	e := NewExtractor(provider, cfg)

	start := time.Now()
	_, err = e.Extract(context.Background(), "text")
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrExtractionFailed)
	assert.Less(t, elapsed, 3*time.Second, "retries must stay within the configured timeout")
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewProvider(Config{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewProvider(Config{Provider: "gemini"})
	assert.Error(t, err)

	p, err = NewProvider(Config{Provider: "Groq", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())

	p, err = NewProvider(Config{Provider: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}

func TestNewProvider_KeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewProvider(Config{Provider: "openai"})
	assert.Error(t, err, "missing key must be reported")

	t.Setenv("OPENAI_API_KEY", "from-env")
	p, err := NewProvider(Config{Provider: "openai"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestSetup(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	guide := Setup(Config{Provider: "groq"})
	assert.Equal(t, "groq", guide.Provider)
	assert.Equal(t, "GROQ_API_KEY", guide.EnvVar)
	assert.Equal(t, "llama-3.3-70b-versatile", guide.Model)
	assert.False(t, guide.APIKeySet)
	assert.Contains(t, guide.Steps[0], "https://console.groq.com/")

	guide = Setup(Config{Provider: ""})
	assert.Equal(t, "groq", guide.Provider, "disabled AI falls back to the groq guide")

	guide = Setup(Config{Provider: "ollama"})
	assert.True(t, guide.APIKeySet)
	assert.Empty(t, guide.EnvVar)
}

func TestLimiter_Wait(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter(0.001, 1)
	require.NoError(t, l.Wait(ctx, "groq"))

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(short, "groq"), "the only token is spent")
	assert.NoError(t, l.Wait(short, "openai"), "limits are per provider")

	unlimited := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, unlimited.Wait(ctx, "groq"))
	}
}
