package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work. Content fields are plain values; identity and audit
// timestamps are only set by NewTask, FromDocument and MarkUpdated.
type Task struct {
	Title         string
	Body          string
	ParentID      *string
	Status        Status
	Priority      Priority
	DueDate       *time.Time
	EstimatedTime int

	id        string
	createdAt time.Time
	updatedAt time.Time
}

type CreateTaskInput struct {
	Title         string
	Body          string
	ParentID      *string
	Status        Status
	Priority      Priority
	DueDate       *time.Time
	EstimatedTime int
}

// nowUTC is truncated to the precision the document format keeps.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func NewTask(in CreateTaskInput) (Task, error) {
	const op = "domain.NewTask"

	if strings.TrimSpace(in.Title) == "" {
		return Task{}, validationError(op, ErrEmptyTitle)
	}
	if in.EstimatedTime < 0 {
		return Task{}, validationError(op, ErrNegativeTime)
	}

	status := in.Status
	if status == 0 {
		status = StatusTodo
	}
	if !status.Valid() {
		return Task{}, validationError(op, fmt.Errorf("invalid status %d", int(status)))
	}

	priority := in.Priority
	if priority == 0 {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return Task{}, validationError(op, fmt.Errorf("invalid priority %d", int(priority)))
	}

	now := nowUTC()
	return Task{
		Title:         in.Title,
		Body:          in.Body,
		ParentID:      cloneString(in.ParentID),
		Status:        status,
		Priority:      priority,
		DueDate:       normalizeTimePtr(in.DueDate),
		EstimatedTime: in.EstimatedTime,
		id:            uuid.NewString(),
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func (t Task) ID() string           { return t.id }
func (t Task) CreatedAt() time.Time { return t.createdAt }
func (t Task) UpdatedAt() time.Time { return t.updatedAt }

// MarkUpdated returns a copy of t with UpdatedAt moved to now. The new value is
// always strictly after the previous one.
func (t Task) MarkUpdated() Task {
	now := nowUTC()
	if !now.After(t.updatedAt) {
		now = t.updatedAt.Add(time.Microsecond)
	}
	t.updatedAt = now
	return t
}

// DisplayString renders the task in a fixed field order. It is used as the
// model prompt, so it must not depend on locale.
func (t Task) DisplayString() string {
	var b strings.Builder

	shortID := t.id
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	due := "none"
	if t.DueDate != nil {
		due = FormatTimestamp(*t.DueDate)
	}

	parent := "none"
	if t.ParentID != nil {
		parent = *t.ParentID
	}

	fmt.Fprintf(&b, "Task(ID: %s..., Title: '%s', Body: '%s', Status: %s, Priority: %s, Due: %s, Estimate: %d min, Parent: %s, Updated: %s)",
		shortID,
		t.Title,
		t.Body,
		t.Status,
		t.Priority,
		due,
		t.EstimatedTime,
		parent,
		FormatTimestamp(t.updatedAt),
	)
	return b.String()
}

func (t Task) String() string {
	return t.DisplayString()
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}
