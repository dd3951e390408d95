package domain

import "fmt"

// Status is the completion state of a task. The zero value means "unset".
type Status int

const (
	StatusTodo Status = iota + 1
	StatusInProgress
	StatusCompleted
)

var statusNames = map[Status]string{
	StatusTodo:       "TODO",
	StatusInProgress: "IN_PROGRESS",
	StatusCompleted:  "COMPLETED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func ParseStatus(name string) (Status, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusCompleted}
}

// Priority is the urgency of a task. The zero value means "unset".
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityTop
)

var priorityNames = map[Priority]string{
	PriorityLow:    "LOW",
	PriorityMedium: "MEDIUM",
	PriorityHigh:   "HIGH",
	PriorityTop:    "TOP",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func ParsePriority(name string) (Priority, error) {
	for priority, n := range priorityNames {
		if n == name {
			return priority, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", name)
}

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityTop}
}
