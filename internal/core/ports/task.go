package ports

import (
	"context"

	"tasksmith/internal/core/domain"
)

// TaskStore is the storage gateway. Boolean results follow one convention:
// false means nothing was written, changed or removed.
type TaskStore interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	Ping(ctx context.Context) error

	AddTask(ctx context.Context, task domain.Task) (bool, error)
	// GetTask returns (nil, nil) when no task has the given id.
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	// ListTasks skips documents that cannot be reconstructed.
	ListTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, updates domain.UpdatePayload) (bool, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
}

type ModelRequest struct {
	SystemInstruction string
	Prompt            string
}

// ModelClient calls a generative model whose output is constrained to a JSON
// array of domain.TaskInput. It returns the raw response text.
type ModelClient interface {
	Generate(ctx context.Context, req ModelRequest) (string, error)
}

type SubtaskGenerator interface {
	RequestSubtasks(ctx context.Context, parent domain.Task) ([]domain.Task, error)
}

type TaskService interface {
	CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	ListTasks(ctx context.Context, parentID *string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, updates domain.UpdatePayload) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	GenerateSubtasks(ctx context.Context, parentID string) ([]domain.Task, error)
}
