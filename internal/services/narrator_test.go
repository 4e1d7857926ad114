package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ghostpatch/internal/anomaly"
)

func geminiTestConfig(url string) GeminiNarratorConfig {
	return GeminiNarratorConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "gemini-2.0-flash",
		Timeout: 2 * time.Second,
	}
}

func TestGeminiNarratorGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"The handle weeps on."}]}}]}`))
	}))
	defer srv.Close()

	n := NewGeminiNarrator(geminiTestConfig(srv.URL), nil)
	got, err := n.Generate(context.Background(), NarrationRequest{
		AnomalyName:  "The Weeping Handle",
		Smell:        anomaly.SmellLeak,
		PlayerText:   "close the handle",
		SessionState: "in_dialogue",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Content != "The handle weeps on." {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestGeminiNarratorHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewGeminiNarrator(geminiTestConfig(srv.URL), nil)
	if _, err := n.Generate(context.Background(), NarrationRequest{}); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestGeminiNarratorAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	n := NewGeminiNarrator(geminiTestConfig(srv.URL), nil)
	if _, err := n.Generate(context.Background(), NarrationRequest{}); err == nil {
		t.Error("expected error from API error payload")
	}
}

func TestGeminiNarratorNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	n := NewGeminiNarrator(geminiTestConfig(srv.URL), nil)
	if _, err := n.Generate(context.Background(), NarrationRequest{}); err == nil {
		t.Error("expected error on empty candidates")
	}
}
