package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":    "test-id",
		"model": "openai/gpt-4o-mini",
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}
}

func TestOpenRouterClient_Chat(t *testing.T) {
	t.Run("successful chat", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(chatResponse("Hallo!"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{User("Hallo")}})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !result.Success || result.Content != "Hallo!" {
			t.Errorf("result = %+v", result)
		}
		if result.TotalTokens != 18 || result.Attempts != 1 {
			t.Errorf("TotalTokens = %d, Attempts = %d", result.TotalTokens, result.Attempts)
		}
	})

	t.Run("structured output", func(t *testing.T) {
		var got openRouterRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			json.NewEncoder(w).Encode(chatResponse("```json\n{\"terms\":[\"IP65\"]}\n```"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{User("expand")},
			ResponseFormat: JSONSchemaFormat("terms", json.RawMessage(`{"type":"object"}`)),
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_schema" {
			t.Errorf("response_format not forwarded: %+v", got.ResponseFormat)
		}
		if string(result.ParsedJSON) != `{"terms":["IP65"]}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
	})

	t.Run("retries server errors with nonce", func(t *testing.T) {
		var calls atomic.Int32
		var lastContent atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req openRouterRequest
			json.NewDecoder(r.Body).Decode(&req)
			lastContent.Store(req.Messages[len(req.Messages)-1].Content)
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(chatResponse("ok"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL, RetryDelay: time.Millisecond})
		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{User("frage")}})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Attempts != 3 {
			t.Errorf("Attempts = %d, want 3", result.Attempts)
		}
		if content := lastContent.Load().(string); !strings.Contains(content, "retry_2_id") {
			t.Errorf("last request lacks nonce: %q", content)
		}
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"bad key"}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL, RetryDelay: time.Millisecond})
		if _, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{User("x")}}); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := client.Chat(ctx, &ChatRequest{Messages: []Message{User("x")}}); err == nil {
			t.Error("expected error on cancelled context")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k"})
		if client.Name() != OpenRouterName || client.baseURL != OpenRouterBaseURL || client.maxRetries != 3 {
			t.Errorf("unexpected defaults: %+v", client)
		}
	})
}
