package providers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMockClient(t *testing.T) {
	t.Run("basic chat", func(t *testing.T) {
		client := NewMockClient()
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{User("Hello")},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !result.Success || result.Content != "mock response" {
			t.Errorf("result = %+v", result)
		}
		if client.RequestCount() != 1 {
			t.Errorf("RequestCount = %d, want 1", client.RequestCount())
		}
	})

	t.Run("structured output", func(t *testing.T) {
		client := NewMockClient()
		client.ResponseJSON = json.RawMessage(`{"terms":["IP65"]}`)
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{User("expand")},
			ResponseFormat: &ResponseFormat{Type: "json_object"},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if string(result.ParsedJSON) != `{"terms":["IP65"]}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
	})

	t.Run("should fail", func(t *testing.T) {
		client := NewMockClient()
		client.ShouldFail = true
		if _, err := client.Chat(context.Background(), &ChatRequest{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("fail after", func(t *testing.T) {
		client := NewMockClient()
		client.FailAfter = 1
		if _, err := client.Chat(context.Background(), &ChatRequest{}); err != nil {
			t.Fatalf("first request error = %v", err)
		}
		if _, err := client.Chat(context.Background(), &ChatRequest{}); err == nil {
			t.Error("second request should fail")
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		client := NewMockClient()
		client.Latency = time.Second
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()
		if _, err := client.Chat(ctx, &ChatRequest{}); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want DeadlineExceeded", err)
		}
	})

	t.Run("reset", func(t *testing.T) {
		client := NewMockClient()
		client.Chat(context.Background(), &ChatRequest{})
		client.Reset()
		if client.RequestCount() != 0 || len(client.Requests()) != 0 {
			t.Error("Reset() did not clear state")
		}
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows burst", func(t *testing.T) {
		limiter := NewRateLimiter(600)
		start := time.Now()
		for i := 0; i < 5; i++ {
			if err := limiter.Wait(context.Background()); err != nil {
				t.Fatalf("request %d failed: %v", i, err)
			}
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("took too long: %v", elapsed)
		}
	})

	t.Run("status", func(t *testing.T) {
		limiter := NewRateLimiter(60)
		status := limiter.Status()
		if status.RPM != 60 {
			t.Errorf("RPM = %d, want 60", status.RPM)
		}
		if status.TokensAvailable <= 0 {
			t.Error("expected positive tokens available")
		}
	})

	t.Run("record 429 drains", func(t *testing.T) {
		limiter := NewRateLimiter(60)
		limiter.Record429(time.Second)
		status := limiter.Status()
		if status.Last429.IsZero() {
			t.Error("Last429 should be set")
		}
		if status.TokensAvailable != 0 {
			t.Errorf("TokensAvailable = %d, want 0", status.TokensAvailable)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		limiter := NewRateLimiter(1)
		limiter.Wait(context.Background())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := limiter.Wait(ctx); err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("concurrent requests", func(t *testing.T) {
		limiter := NewRateLimiter(6000)
		var wg sync.WaitGroup
		var failures atomic.Int32
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(context.Background()); err != nil {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()
		if failures.Load() > 0 {
			t.Errorf("had %d errors", failures.Load())
		}
		if got := limiter.Status().TotalConsumed; got != 10 {
			t.Errorf("TotalConsumed = %d, want 10", got)
		}
	})
}
