package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newDeepSeekTestAdapter(t *testing.T, handler http.HandlerFunc) *DeepSeekAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := NewDeepSeekAdapter("test-key")
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	a.baseURL = srv.URL
	return a
}

func TestDeepSeekComplete(t *testing.T) {
	a := newDeepSeekTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"model": "deepseek-chat",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "42"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`))
	})

	resp, err := a.Complete(context.Background(), &Request{
		Model:    "deepseek-chat",
		Messages: []Message{{Role: RoleUser, Content: "meaning of life?"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "42" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 12 {
		t.Fatalf("unexpected total tokens %d", resp.Usage.TotalTokens)
	}
	if resp.Provider != "deepseek" {
		t.Fatalf("unexpected provider %s", resp.Provider)
	}
}

func TestDeepSeekRateLimitClassified(t *testing.T) {
	a := newDeepSeekTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "rate_limit_error", "code": "429"}}`))
	})

	_, err := a.Complete(context.Background(), &Request{
		Model:    "deepseek-chat",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.Code != CodeRateLimit {
		t.Fatalf("expected rate_limit, got %s", perr.Code)
	}
}

func TestDeepSeekAuthFailureClassified(t *testing.T) {
	a := newDeepSeekTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key", "type": "authentication_error", "code": "401"}}`))
	})

	_, err := a.Complete(context.Background(), &Request{
		Model:    "deepseek-chat",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.Code != CodeAuth {
		t.Fatalf("expected auth, got %s", perr.Code)
	}
}
