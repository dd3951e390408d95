package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"tasksmith/internal/core/domain"
)

func TestNewGeminiClient_RequiresSettings(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{Model: "gemini-2.5-flash"})
	assert.Error(t, err)

	_, err = NewGeminiClient(context.Background(), GeminiConfig{APIKey: "key"})
	assert.Error(t, err)
}

func TestGenerationConfig(t *testing.T) {
	cfg := generationConfig("Split the task.")

	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.Temperature)
	assert.Zero(t, *cfg.Temperature)
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, int32(0), *cfg.ThinkingConfig.ThinkingBudget)

	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, cfg.SystemInstruction.Parts, 1)
	assert.Equal(t, "Split the task.", cfg.SystemInstruction.Parts[0].Text)

	schema := cfg.ResponseSchema
	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeArray, schema.Type)
	assert.Equal(t, []string{domain.FieldTitle}, schema.Items.Required)
	assert.Contains(t, schema.Items.Properties, domain.FieldEstimatedTime)
}

func TestSchemasDescribeTheSameFields(t *testing.T) {
	jsonProps := subtaskJSONSchema()["items"].(map[string]any)["properties"].(map[string]any)
	genaiProps := subtaskSchema().Items.Properties

	assert.Len(t, jsonProps, len(genaiProps))
	for name := range genaiProps {
		assert.Contains(t, jsonProps, name)
	}
}
