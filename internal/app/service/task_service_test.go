package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tasksmith/internal/app/service"
	"tasksmith/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTaskService_CreateTask(t *testing.T) {
	store := new(taskStoreMock)
	store.On("AddTask", mock.Anything, mock.MatchedBy(func(task domain.Task) bool {
		return task.Title == "Ship it" && task.Status == domain.StatusTodo
	})).Return(true, nil).Once()

	task, err := service.NewTaskService(store, nil).CreateTask(context.Background(), domain.CreateTaskInput{Title: "Ship it"})
	require.NoError(t, err)
	assert.Len(t, task.ID(), 36)
	store.AssertExpectations(t)
}

func TestTaskService_CreateTask_InvalidInputNeverReachesStore(t *testing.T) {
	store := new(taskStoreMock)

	_, err := service.NewTaskService(store, nil).CreateTask(context.Background(), domain.CreateTaskInput{EstimatedTime: -1, Title: "x"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	store.AssertNotCalled(t, "AddTask", mock.Anything, mock.Anything)
}

func TestTaskService_CreateTask_NotAcknowledged(t *testing.T) {
	store := new(taskStoreMock)
	store.On("AddTask", mock.Anything, mock.Anything).Return(false, nil).Once()

	_, err := service.NewTaskService(store, nil).CreateTask(context.Background(), domain.CreateTaskInput{Title: "x"})
	assert.Error(t, err)
}

func TestTaskService_GetTask_NotFound(t *testing.T) {
	store := new(taskStoreMock)
	store.On("GetTask", mock.Anything, "missing").Return(nil, nil).Once()

	_, err := service.NewTaskService(store, nil).GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskService_ListTasks_FiltersByParent(t *testing.T) {
	parent := parentTask(t)
	parentID := parent.ID()
	child, err := domain.NewTask(domain.CreateTaskInput{Title: "child", ParentID: &parentID})
	require.NoError(t, err)

	store := new(taskStoreMock)
	store.On("ListTasks", mock.Anything).Return([]domain.Task{parent, child}, nil).Twice()
	svc := service.NewTaskService(store, nil)

	all, err := svc.ListTasks(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	children, err := svc.ListTasks(context.Background(), &parentID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID(), children[0].ID())
}

func TestTaskService_UpdateTask_TouchesUpdatedAt(t *testing.T) {
	existing := parentTask(t)
	store := new(taskStoreMock)
	store.On("GetTask", mock.Anything, existing.ID()).Return(&existing, nil).Twice()
	store.On("UpdateTask", mock.Anything, existing.ID(), mock.MatchedBy(func(updates domain.UpdatePayload) bool {
		touched, ok := updates[domain.FieldUpdatedAt].(time.Time)
		return ok &&
			touched.After(existing.UpdatedAt()) &&
			updates[domain.FieldStatus] == "COMPLETED" &&
			len(updates) == 2
	})).Return(true, nil).Once()

	_, err := service.NewTaskService(store, nil).UpdateTask(context.Background(), existing.ID(), domain.UpdatePayload{
		"id":     "other",
		"status": domain.StatusCompleted,
	})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestTaskService_UpdateTask_NothingToUpdate(t *testing.T) {
	store := new(taskStoreMock)

	_, err := service.NewTaskService(store, nil).UpdateTask(context.Background(), "id", domain.UpdatePayload{
		"id":        "x",
		"createdAt": "y",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNothingToSave)
	store.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "GetTask", mock.Anything, mock.Anything)
}

func TestTaskService_DeleteTask(t *testing.T) {
	store := new(taskStoreMock)
	store.On("DeleteTask", mock.Anything, "id").Return(true, nil).Once()
	store.On("DeleteTask", mock.Anything, "id").Return(false, nil).Once()
	svc := service.NewTaskService(store, nil)

	require.NoError(t, svc.DeleteTask(context.Background(), "id"))
	assert.ErrorIs(t, svc.DeleteTask(context.Background(), "id"), domain.ErrTaskNotFound)
}

func TestTaskService_GenerateSubtasks_SavesAcknowledgedSubtasks(t *testing.T) {
	parent := parentTask(t)
	first, err := domain.NewTask(domain.CreateTaskInput{Title: "Subtask 1"})
	require.NoError(t, err)
	second, err := domain.NewTask(domain.CreateTaskInput{Title: "Subtask 2"})
	require.NoError(t, err)

	store := new(taskStoreMock)
	store.On("GetTask", mock.Anything, parent.ID()).Return(&parent, nil).Once()
	store.On("AddTask", mock.Anything, first).Return(true, nil).Once()
	store.On("AddTask", mock.Anything, second).Return(false, nil).Once()

	generator := new(generatorMock)
	generator.On("RequestSubtasks", mock.Anything, parent).Return([]domain.Task{first, second}, nil).Once()

	saved, err := service.NewTaskService(store, generator).GenerateSubtasks(context.Background(), parent.ID())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, first.ID(), saved[0].ID())
	store.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestTaskService_GenerateSubtasks_ValidationFailureWritesNothing(t *testing.T) {
	parent := parentTask(t)
	store := new(taskStoreMock)
	store.On("GetTask", mock.Anything, parent.ID()).Return(&parent, nil).Once()

	model := new(modelClientMock)
	model.On("Generate", mock.Anything, mock.Anything).Return(`[{"body":"no title"}]`, nil).Once()
	pipeline, err := service.NewSubtaskPipeline(model, systemPrompt, time.Second)
	require.NoError(t, err)

	saved, err := service.NewTaskService(store, pipeline).GenerateSubtasks(context.Background(), parent.ID())
	require.Error(t, err)
	assert.Empty(t, saved)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	store.AssertNotCalled(t, "AddTask", mock.Anything, mock.Anything)
}

func TestTaskService_GenerateSubtasks_ParentNotFound(t *testing.T) {
	store := new(taskStoreMock)
	store.On("GetTask", mock.Anything, "missing").Return(nil, nil).Once()
	generator := new(generatorMock)

	_, err := service.NewTaskService(store, generator).GenerateSubtasks(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	generator.AssertNotCalled(t, "RequestSubtasks", mock.Anything, mock.Anything)
}

func TestTaskService_GenerateSubtasks_StoreFailureStops(t *testing.T) {
	parent := parentTask(t)
	child, err := domain.NewTask(domain.CreateTaskInput{Title: "c"})
	require.NoError(t, err)

	store := new(taskStoreMock)
	store.On("GetTask", mock.Anything, parent.ID()).Return(&parent, nil).Once()
	store.On("AddTask", mock.Anything, child).Return(false, errors.New("connection reset")).Once()
	generator := new(generatorMock)
	generator.On("RequestSubtasks", mock.Anything, parent).Return([]domain.Task{child, child}, nil).Once()

	saved, err := service.NewTaskService(store, generator).GenerateSubtasks(context.Background(), parent.ID())
	require.Error(t, err)
	assert.Empty(t, saved)
	store.AssertNumberOfCalls(t, "AddTask", 1)
}

func TestTaskService_GenerateSubtasks_WithoutGenerator(t *testing.T) {
	store := new(taskStoreMock)

	_, err := service.NewTaskService(store, nil).GenerateSubtasks(context.Background(), "any")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	store.AssertNotCalled(t, "GetTask", mock.Anything, mock.Anything)
}
