package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"

	"inkwell/internal/config"
	"inkwell/internal/services"
)

func messageResponse(text string) string {
	return fmt.Sprintf(`{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [{"type": "text", "text": %q}],
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, text)
}

func newTestClient(t *testing.T, serverURL string, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithRequestOptions(option.WithBaseURL(serverURL), option.WithMaxRetries(0)),
		WithRetryBackoff(time.Millisecond, 4*time.Millisecond),
	}
	client, err := NewClient(config.TextGen{APIKey: "test-key", MaxTokens: 512, TimeoutSeconds: 5}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.TextGen{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCompleteJSONReturnsText(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, messageResponse(`{"title":"Testing"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `{"title":"Testing"}` {
		t.Fatalf("unexpected content %q", content)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 request, saw %d", calls.Load())
	}
}

func TestCompleteJSONRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, messageResponse(`{"ok":true}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := newTestClient(t, server.URL, WithSleeper(func(d time.Duration) {
		slept = append(slept, d)
	}))

	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content %q", content)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, saw %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != time.Millisecond {
		t.Fatalf("unexpected sleep schedule %v", slept)
	}
}

func TestCompleteJSONDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad prompt"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 request, saw %d", calls.Load())
	}
}

func TestCompleteJSONExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithSleeper(func(time.Duration) {}), WithRetryMaxAttempts(3))
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 requests, saw %d", calls.Load())
	}
}

func TestCompleteJSONRejectsEmptyPrompts(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	if _, err := client.CompleteJSON(context.Background(), "", "user"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty system prompt, got %v", err)
	}
	if _, err := client.CompleteJSON(context.Background(), "system", " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty user prompt, got %v", err)
	}
}
