package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "llama-3.3-70b-versatile",
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: openai.Usage{TotalTokens: 100},
	}
}

func newTestOpenAIProvider(t *testing.T, baseURL string, maxRetries int) *OpenAIProvider {
	t.Helper()
	provider, err := NewOpenAIProvider(Config{
		Provider:   "groq",
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Timeout:    5,
		MaxRetries: maxRetries,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	provider.retry.InitialBackoff = time.Millisecond
	provider.retry.JitterFraction = 0
	return provider
}

func TestOpenAIProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Model != "llama-3.3-70b-versatile" {
			t.Errorf("Expected default groq model, got %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("Expected system and user messages, got %+v", req.Messages)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Error("Expected a JSON object response format")
		}

		_ = json.NewEncoder(w).Encode(chatResponse(`{"participants": []}`))
	}))
	defer server.Close()

	provider := newTestOpenAIProvider(t, server.URL, 0)

	resp, err := provider.Complete(context.Background(), CompletionRequest{System: "sys", Prompt: "hello"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != `{"participants": []}` {
		t.Errorf("Unexpected content: %s", resp.Content)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Expected 100 tokens, got %d", resp.TokensUsed)
	}
	if provider.Name() != "groq" {
		t.Errorf("Expected provider name groq, got %s", provider.Name())
	}
}

func TestOpenAIProvider_Complete_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse(`{"participants": []}`))
	}))
	defer server.Close()

	provider := newTestOpenAIProvider(t, server.URL, 2)

	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hello"}); err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Expected 2 calls, got %d", got)
	}
}

func TestOpenAIProvider_Complete_ServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider := newTestOpenAIProvider(t, server.URL, 2)

	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hello"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 calls, got %d", got)
	}
}

func TestOpenAIProvider_Complete_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API Key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	provider := newTestOpenAIProvider(t, server.URL, 3)

	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hello"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected a single call, got %d", got)
	}
}

func TestOpenAIProvider_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse("")
		resp.Choices = nil
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := newTestOpenAIProvider(t, server.URL, 0)

	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hello"}); err == nil {
		t.Fatal("Expected error for empty choices, got nil")
	}
}

func TestOpenAIProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"object": "list", "data": []}`))
	}))
	defer server.Close()

	provider := newTestOpenAIProvider(t, server.URL, 0)
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}

	server.Close()
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be unavailable after server shutdown")
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{Provider: "groq"}); err == nil {
		t.Error("Expected error without API key")
	}

	provider, err := NewOpenAIProvider(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("Ollama should not need a key: %v", err)
	}
	if provider.model != DefaultModel("ollama") {
		t.Errorf("Expected default ollama model, got %s", provider.model)
	}
}
