package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tasksmith/internal/core/domain"
	"tasksmith/internal/core/ports"
)

const defaultModelTimeout = 60 * time.Second

// SubtaskPipeline turns a parent task into new child tasks through a model call.
type SubtaskPipeline struct {
	model             ports.ModelClient
	systemInstruction string
	timeout           time.Duration
}

var _ ports.SubtaskGenerator = (*SubtaskPipeline)(nil)

// NewSubtaskPipeline requires the system instruction loaded at startup.
func NewSubtaskPipeline(model ports.ModelClient, systemInstruction string, timeout time.Duration) (*SubtaskPipeline, error) {
	if model == nil {
		return nil, errors.New("model client is required")
	}
	if systemInstruction == "" {
		return nil, errors.New("system instruction is required")
	}
	if timeout <= 0 {
		timeout = defaultModelTimeout
	}
	return &SubtaskPipeline{
		model:             model,
		systemInstruction: systemInstruction,
		timeout:           timeout,
	}, nil
}

// BuildPrompt only describes the parent itself; ancestors are not included.
func (p *SubtaskPipeline) BuildPrompt(parent domain.Task) string {
	return parent.DisplayString()
}

func (p *SubtaskPipeline) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.model.Generate(ctx, ports.ModelRequest{
		SystemInstruction: p.systemInstruction,
		Prompt:            prompt,
	})
	if err != nil {
		if domain.KindOf(err) != "" {
			return "", err
		}
		return "", domain.NewError(domain.KindConnection, "service.SubtaskPipeline.Invoke", fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err))
	}
	return raw, nil
}

// ValidateAndConvert accepts the batch only if every element is valid. Each
// element becomes a fresh task under parent.
func (p *SubtaskPipeline) ValidateAndConvert(raw string, parent domain.Task) ([]domain.Task, error) {
	inputs, err := domain.ParseTaskInputs([]byte(raw))
	if err != nil {
		return nil, err
	}

	subtasks := make([]domain.Task, 0, len(inputs))
	for _, input := range inputs {
		task, err := input.ToTask(parent.ID())
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, task)
	}
	return subtasks, nil
}

func (p *SubtaskPipeline) RequestSubtasks(ctx context.Context, parent domain.Task) ([]domain.Task, error) {
	raw, err := p.Invoke(ctx, p.BuildPrompt(parent))
	if err != nil {
		return nil, err
	}

	subtasks, err := p.ValidateAndConvert(raw, parent)
	if err != nil {
		zap.L().Warn("model response rejected",
			zap.String("parent_id", parent.ID()),
			zap.Int("response_bytes", len(raw)),
			zap.Error(err),
		)
		return nil, err
	}
	return subtasks, nil
}
