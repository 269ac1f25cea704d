// Package terms asks a local Ollama model for candidate marketplace search
// terms and validates what comes back.
package terms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TermsKey is the JSON field the model is told to put its terms under.
const TermsKey = "search_terms"

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Format  string         `json:"format"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generator calls Ollama's /api/generate endpoint in JSON mode.
type Generator struct {
	BaseURL     string
	Model       string
	Temperature float64
	Client      *http.Client
	logger      *slog.Logger
}

// NewGenerator constructs a generator for the given endpoint and model name.
func NewGenerator(baseURL, model string, temperature float64, timeout time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Generator{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Temperature: temperature,
		Client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Generate sends prompt to the model and returns the raw elements of the
// search_terms array. Callers run the result through Validate. Any failure
// is a *GenerationError; there is no retry.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]any, error) {
	payload, err := json.Marshal(generateRequest{
		Model:   g.Model,
		Prompt:  prompt,
		Format:  "json",
		Stream:  false,
		Options: map[string]any{"temperature": g.Temperature},
	})
	if err != nil {
		return nil, &GenerationError{Reason: "encode request", Err: err}
	}

	url := g.BaseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &GenerationError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, &GenerationError{Reason: "call model", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &GenerationError{Reason: fmt.Sprintf("model endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, &GenerationError{Reason: "decode model envelope", Err: err}
	}
	text := strings.TrimSpace(gr.Response)
	if text == "" {
		return nil, &GenerationError{Reason: "model returned no response"}
	}

	g.logger.Debug("model responded", "model", g.Model, "duration", time.Since(start), "response", text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, &GenerationError{Reason: "response is not a JSON object", Err: err}
	}

	raw, ok := obj[TermsKey].([]any)
	if !ok || len(raw) == 0 {
		return nil, &GenerationError{Reason: "no search terms found in the response"}
	}
	return raw, nil
}
