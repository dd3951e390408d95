package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tasksmith/internal/core/ports"
)

type OllamaConfig struct {
	BaseURL string
	Model   string
}

// OllamaClient talks to a local Ollama server through /api/generate with
// structured output enabled.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ports.ModelClient = (*OllamaClient)(nil)

type generateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  map[string]any `json:"format"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaClient(cfg OllamaConfig, httpClient *http.Client) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("ollama url is not set")
	}
	if cfg.Model == "" {
		return nil, errors.New("ollama model is not set")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OllamaClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: httpClient,
	}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, req ports.ModelRequest) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:   c.model,
		System:  req.SystemInstruction,
		Prompt:  req.Prompt,
		Stream:  false,
		Format:  subtaskJSONSchema(),
		Options: map[string]any{"temperature": 0},
	})
	if err != nil {
		return "", fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode ollama response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, out.Error)
	}
	if !out.Done {
		zap.L().Warn("ollama response not marked done", zap.String("model", c.model))
	}

	return out.Response, nil
}
