package service_test

import (
	"context"

	"tasksmith/internal/core/domain"
	"tasksmith/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type taskStoreMock struct {
	mock.Mock
}

func (m *taskStoreMock) Connect(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *taskStoreMock) Close(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *taskStoreMock) Ping(ctx context.Context) error    { return m.Called(ctx).Error(0) }

func (m *taskStoreMock) AddTask(ctx context.Context, task domain.Task) (bool, error) {
	args := m.Called(ctx, task)
	return args.Bool(0), args.Error(1)
}

func (m *taskStoreMock) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)

	var task *domain.Task
	if value := args.Get(0); value != nil {
		task = value.(*domain.Task)
	}
	return task, args.Error(1)
}

func (m *taskStoreMock) ListTasks(ctx context.Context) ([]domain.Task, error) {
	args := m.Called(ctx)

	var tasks []domain.Task
	if value := args.Get(0); value != nil {
		tasks = value.([]domain.Task)
	}
	return tasks, args.Error(1)
}

func (m *taskStoreMock) UpdateTask(ctx context.Context, id string, updates domain.UpdatePayload) (bool, error) {
	args := m.Called(ctx, id, updates)
	return args.Bool(0), args.Error(1)
}

func (m *taskStoreMock) DeleteTask(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type modelClientMock struct {
	mock.Mock
}

func (m *modelClientMock) Generate(ctx context.Context, req ports.ModelRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type generatorMock struct {
	mock.Mock
}

func (m *generatorMock) RequestSubtasks(ctx context.Context, parent domain.Task) ([]domain.Task, error) {
	args := m.Called(ctx, parent)

	var tasks []domain.Task
	if value := args.Get(0); value != nil {
		tasks = value.([]domain.Task)
	}
	return tasks, args.Error(1)
}

var (
	_ ports.TaskStore        = (*taskStoreMock)(nil)
	_ ports.ModelClient      = (*modelClientMock)(nil)
	_ ports.SubtaskGenerator = (*generatorMock)(nil)
)
