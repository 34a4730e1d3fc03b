package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"VinSight/pkg/logger"
)

func TestCompleteDisabled(t *testing.T) {
	c := New(Config{Enabled: false}, logger.Nop())
	if _, err := c.Complete(context.Background(), "hi", 0.2); err == nil {
		t.Fatalf("disabled client must return an error")
	}
}

func TestCompleteParsesChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model %v", req["model"])
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "wine commentary"}},
			},
		})
	}))
	defer srv.Close()

	c := New(Config{Enabled: true, BaseURL: srv.URL, APIKey: "key", Model: "gpt-4o-mini"}, logger.Nop())
	got, err := c.Complete(context.Background(), "hi", 0.2)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "wine commentary" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	c := New(Config{Enabled: true, BaseURL: srv.URL, APIKey: "key"}, logger.Nop())
	if _, err := c.Complete(context.Background(), "hi", 0.2); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestCompleteRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	c := New(Config{Enabled: true, BaseURL: srv.URL, APIKey: "key", Burst: 1, RatePerSec: 0.0001}, logger.Nop())
	if _, err := c.Complete(context.Background(), "hi", 0.2); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.Complete(context.Background(), "hi", 0.2); err == nil {
		t.Fatalf("second call should be rate limited")
	}
}
