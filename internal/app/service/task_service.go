package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tasksmith/internal/core/domain"
	"tasksmith/internal/core/ports"
)

var errNotPersisted = errors.New("store did not acknowledge the write")

type TaskService struct {
	taskStore ports.TaskStore
	generator ports.SubtaskGenerator
}

func NewTaskService(taskStore ports.TaskStore, generator ports.SubtaskGenerator) *TaskService {
	return &TaskService{taskStore: taskStore, generator: generator}
}

func (s *TaskService) CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error) {
	task, err := domain.NewTask(input)
	if err != nil {
		return domain.Task{}, err
	}

	ok, err := s.taskStore.AddTask(ctx, task)
	if err != nil {
		return domain.Task{}, err
	}
	if !ok {
		return domain.Task{}, errNotPersisted
	}
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (domain.Task, error) {
	task, err := s.taskStore.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if task == nil {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return *task, nil
}

// ListTasks returns every task, or only the direct children of parentID.
func (s *TaskService) ListTasks(ctx context.Context, parentID *string) ([]domain.Task, error) {
	tasks, err := s.taskStore.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	if parentID == nil {
		return tasks, nil
	}

	children := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.ParentID != nil && *task.ParentID == *parentID {
			children = append(children, task)
		}
	}
	return children, nil
}

// UpdateTask applies a partial update and touches updatedAt. The stored task
// is returned as it is after the write.
func (s *TaskService) UpdateTask(ctx context.Context, id string, updates domain.UpdatePayload) (domain.Task, error) {
	prepared, err := domain.PrepareUpdates(updates)
	if err != nil {
		return domain.Task{}, err
	}
	if len(prepared) == 0 {
		return domain.Task{}, domain.NewError(domain.KindValidation, "service.UpdateTask", domain.ErrNothingToSave)
	}

	existing, err := s.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}

	payload := make(domain.UpdatePayload, len(prepared)+1)
	for key, value := range prepared {
		payload[key] = value
	}
	payload[domain.FieldUpdatedAt] = existing.MarkUpdated().UpdatedAt()

	ok, err := s.taskStore.UpdateTask(ctx, id, payload)
	if err != nil {
		return domain.Task{}, err
	}
	if !ok {
		zap.L().Warn("update modified no document", zap.String("task_id", id))
	}

	return s.GetTask(ctx, id)
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	ok, err := s.taskStore.DeleteTask(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTaskNotFound
	}
	return nil
}

// GenerateSubtasks asks the model for children of parentID and stores them.
// Only the subtasks the store acknowledged are returned.
func (s *TaskService) GenerateSubtasks(ctx context.Context, parentID string) ([]domain.Task, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: subtask generation is not configured", domain.ErrModelUnavailable)
	}

	parent, err := s.GetTask(ctx, parentID)
	if err != nil {
		return nil, err
	}

	subtasks, err := s.generator.RequestSubtasks(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("generate subtasks for %s: %w", parentID, err)
	}

	saved := make([]domain.Task, 0, len(subtasks))
	for _, subtask := range subtasks {
		ok, err := s.taskStore.AddTask(ctx, subtask)
		if err != nil {
			return saved, err
		}
		if !ok {
			zap.L().Warn("failed to save subtask", zap.String("parent_id", parentID), zap.String("title", subtask.Title))
			continue
		}
		saved = append(saved, subtask)
	}

	zap.L().Info("subtasks generated",
		zap.String("parent_id", parentID),
		zap.Int("proposed", len(subtasks)),
		zap.Int("saved", len(saved)),
	)
	return saved, nil
}

var _ ports.TaskService = (*TaskService)(nil)
