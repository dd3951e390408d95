package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"tasksmith/internal/core/ports"
)

type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiClient asks Gemini for JSON output constrained by the subtask schema.
// Thinking is disabled and temperature pinned to zero.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ ports.ModelClient = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is not set")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: cfg.Model}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, req ports.ModelRequest) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), generationConfig(req.SystemInstruction))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	zap.L().Debug("gemini response", zap.String("model", c.model), zap.Int("length", len(text)))
	return text, nil
}

func generationConfig(systemInstruction string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    subtaskSchema(),
	}
}
