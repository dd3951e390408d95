package service_test

import (
	"context"
	"errors"
	"testing"

	"tasksmith/internal/app/service"
	"tasksmith/internal/core/domain"
	"tasksmith/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const systemPrompt = "Break the task into subtasks."

func parentTask(t *testing.T) domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.CreateTaskInput{
		Title: "Parent Task",
		Body:  "Parent description",
	})
	require.NoError(t, err)
	return task
}

func newPipeline(t *testing.T, model ports.ModelClient) *service.SubtaskPipeline {
	t.Helper()
	pipeline, err := service.NewSubtaskPipeline(model, systemPrompt, 0)
	require.NoError(t, err)
	return pipeline
}

func TestNewSubtaskPipeline_RequiresConfiguration(t *testing.T) {
	_, err := service.NewSubtaskPipeline(nil, systemPrompt, 0)
	assert.Error(t, err)

	_, err = service.NewSubtaskPipeline(new(modelClientMock), "", 0)
	assert.Error(t, err)
}

func TestSubtaskPipeline_BuildPrompt(t *testing.T) {
	pipeline := newPipeline(t, new(modelClientMock))
	parent := parentTask(t)

	prompt := pipeline.BuildPrompt(parent)

	assert.Equal(t, parent.DisplayString(), prompt)
	assert.Contains(t, prompt, "Parent Task")
	assert.Contains(t, prompt, "Parent description")
}

func TestSubtaskPipeline_RequestSubtasks_Success(t *testing.T) {
	parent := parentTask(t)
	model := new(modelClientMock)
	model.On("Generate", mock.Anything, ports.ModelRequest{
		SystemInstruction: systemPrompt,
		Prompt:            parent.DisplayString(),
	}).Return(`[{"title":"Subtask 1"},{"title":"Subtask 2"}]`, nil).Once()

	subtasks, err := newPipeline(t, model).RequestSubtasks(context.Background(), parent)
	require.NoError(t, err)
	require.Len(t, subtasks, 2)

	assert.Equal(t, "Subtask 1", subtasks[0].Title)
	assert.Equal(t, "Subtask 2", subtasks[1].Title)
	assert.NotEqual(t, subtasks[0].ID(), subtasks[1].ID())
	for _, subtask := range subtasks {
		assert.NotEqual(t, parent.ID(), subtask.ID())
		assert.Equal(t, domain.StatusTodo, subtask.Status)
		assert.Equal(t, domain.PriorityMedium, subtask.Priority)
		require.NotNil(t, subtask.ParentID)
		assert.Equal(t, parent.ID(), *subtask.ParentID)
	}
	model.AssertExpectations(t)
}

func TestSubtaskPipeline_RequestSubtasks_KeepsBodies(t *testing.T) {
	parent := parentTask(t)
	model := new(modelClientMock)
	model.On("Generate", mock.Anything, mock.Anything).
		Return(`[{"title":"Child Task","body":"Child description"}]`, nil).Once()

	subtasks, err := newPipeline(t, model).RequestSubtasks(context.Background(), parent)
	require.NoError(t, err)
	require.Len(t, subtasks, 1)
	assert.Equal(t, "Child Task", subtasks[0].Title)
	assert.Equal(t, "Child description", subtasks[0].Body)
}

func TestSubtaskPipeline_RequestSubtasks_RejectsInvalidResponses(t *testing.T) {
	for name, raw := range map[string]string{
		"malformed json": `[{"title":"Subtask 1"`,
		"missing title":  `[{"title":"Subtask 1"},{"body":"orphan"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			model := new(modelClientMock)
			model.On("Generate", mock.Anything, mock.Anything).Return(raw, nil).Once()

			subtasks, err := newPipeline(t, model).RequestSubtasks(context.Background(), parentTask(t))
			require.Error(t, err)
			assert.Nil(t, subtasks)
			assert.True(t, domain.IsKind(err, domain.KindValidation))
		})
	}
}

func TestSubtaskPipeline_Invoke_ModelFailureIsConnectionError(t *testing.T) {
	model := new(modelClientMock)
	model.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("dial tcp: refused")).Once()

	_, err := newPipeline(t, model).Invoke(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConnection))
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "dial tcp: refused")
}

func TestSubtaskPipeline_Invoke_AppliesDeadline(t *testing.T) {
	model := new(modelClientMock)
	model.On("Generate", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return("[]", nil).Once()

	raw, err := newPipeline(t, model).Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
	model.AssertExpectations(t)
}
