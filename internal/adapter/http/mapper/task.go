package mapper

import (
	"tasksmith/internal/adapter/http/dto"
	"tasksmith/internal/core/domain"
)

func ToTaskItems(tasks []domain.Task) []dto.TaskItem {
	items := make([]dto.TaskItem, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, ToTaskItem(task))
	}
	return items
}

func ToTaskItem(task domain.Task) dto.TaskItem {
	item := dto.TaskItem{
		ID:            task.ID(),
		Title:         task.Title,
		Body:          task.Body,
		Status:        task.Status.String(),
		Priority:      task.Priority.String(),
		EstimatedTime: task.EstimatedTime,
		CreatedAt:     domain.FormatTimestamp(task.CreatedAt()),
		UpdatedAt:     domain.FormatTimestamp(task.UpdatedAt()),
	}

	if task.ParentID != nil {
		value := *task.ParentID
		item.ParentID = &value
	}

	if task.DueDate != nil {
		value := domain.FormatTimestamp(*task.DueDate)
		item.DueDate = &value
	}

	return item
}
