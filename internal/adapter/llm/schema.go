package llm

import (
	"google.golang.org/genai"

	"tasksmith/internal/core/domain"
)

// Both providers constrain output to an array of these objects, matching
// domain.TaskInput.

func subtaskSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				domain.FieldTitle:         {Type: genai.TypeString},
				domain.FieldBody:          {Type: genai.TypeString},
				domain.FieldDueDate:       {Type: genai.TypeString, Format: "date-time", Nullable: genai.Ptr(true)},
				domain.FieldEstimatedTime: {Type: genai.TypeInteger, Description: "Estimated effort in minutes"},
			},
			Required:         []string{domain.FieldTitle},
			PropertyOrdering: []string{domain.FieldTitle, domain.FieldBody, domain.FieldDueDate, domain.FieldEstimatedTime},
		},
	}
}

// subtaskJSONSchema is the same shape as plain JSON Schema.
func subtaskJSONSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				domain.FieldTitle:         map[string]any{"type": "string"},
				domain.FieldBody:          map[string]any{"type": "string"},
				domain.FieldDueDate:       map[string]any{"type": []string{"string", "null"}, "format": "date-time"},
				domain.FieldEstimatedTime: map[string]any{"type": "integer", "minimum": 0},
			},
			"required":             []string{domain.FieldTitle},
			"additionalProperties": false,
		},
	}
}
