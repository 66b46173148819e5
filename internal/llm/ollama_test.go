package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Options map[string]any `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Stream {
			t.Error("stream should be false")
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.Options["num_predict"] != float64(400) {
			t.Errorf("num_predict = %v", req.Options["num_predict"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "At least 10 satellites."},
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "qwen2.5", "")
	got, err := c.Complete(context.Background(), "How many satellites?", 400)
	if err != nil {
		t.Fatal(err)
	}
	if got != "At least 10 satellites." {
		t.Errorf("answer = %q", got)
	}
}

func TestOllamaClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "m", "")
	if _, err := c.Complete(context.Background(), "q", 100); err == nil {
		t.Error("expected API error")
	}
}

func TestOllamaClientContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewOllamaClient(srv.URL, "m", "")
	if _, err := c.Complete(ctx, "q", 100); err == nil {
		t.Error("expected context error")
	}
}
