package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ghostpatch/internal/anomaly"
)

// NarrationRequest carries the context the content collaborator narrates
// from.
type NarrationRequest struct {
	AnomalyName  string
	Smell        anomaly.SmellCategory
	PlayerText   string
	SessionState string
}

// Narration is generated dialogue/flavor content plus optional hints.
type Narration struct {
	Content string
	Hints   []string
}

// Narrator generates encounter narration. Implementations may time out or
// fail; callers substitute the deterministic fallback and continue.
type Narrator interface {
	Generate(ctx context.Context, req NarrationRequest) (Narration, error)
}

// GeminiNarratorConfig configures the remote narrator client.
type GeminiNarratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultGeminiNarratorConfig returns sensible defaults.
func DefaultGeminiNarratorConfig(apiKey string) GeminiNarratorConfig {
	return GeminiNarratorConfig{
		APIKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "gemini-2.0-flash",
		Timeout: 15 * time.Second,
	}
}

// GeminiNarrator calls the Gemini generateContent endpoint over plain HTTP.
type GeminiNarrator struct {
	cfg        GeminiNarratorConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiNarrator creates the remote narrator client.
func NewGeminiNarrator(cfg GeminiNarratorConfig, logger *zap.Logger) *GeminiNarrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiNarrator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("narrator"),
	}
}

// Request/response wire types, trimmed to the fields used.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate calls the model with a compact encounter prompt.
func (n *GeminiNarrator) Generate(ctx context.Context, req NarrationRequest) (Narration, error) {
	prompt := fmt.Sprintf(
		"You narrate a haunted-codebase repair game. The anomaly %q (smell: %s) is being confronted. "+
			"Session state: %s. The player said: %q. Reply with two short sentences of atmospheric narration.",
		req.AnomalyName, req.Smell, req.SessionState, req.PlayerText)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return Narration{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", n.cfg.BaseURL, n.cfg.Model, n.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Narration{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return Narration{}, fmt.Errorf("narrator call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Narration{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Narration{}, fmt.Errorf("narrator returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Narration{}, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return Narration{}, fmt.Errorf("narrator error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Narration{}, fmt.Errorf("narrator returned no content")
	}

	n.logger.Debug("Narration generated", zap.String("anomaly", req.AnomalyName))
	return Narration{Content: parsed.Candidates[0].Content.Parts[0].Text}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
