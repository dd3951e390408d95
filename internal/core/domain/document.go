package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Document is the flat, schema-less representation a store persists.
type Document map[string]any

// Document keys.
const (
	FieldID            = "id"
	FieldTitle         = "title"
	FieldBody          = "body"
	FieldParentID      = "parentId"
	FieldStatus        = "status"
	FieldPriority      = "priority"
	FieldDueDate       = "dueDate"
	FieldEstimatedTime = "estimatedTime"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
)

// TimestampLayout keeps microseconds and always writes an explicit offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts ISO-8601 with or without fractional seconds. Values
// without an offset are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Truncate(time.Microsecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

func (t Task) ToDocument() Document {
	doc := Document{
		FieldID:            t.id,
		FieldTitle:         t.Title,
		FieldBody:          t.Body,
		FieldParentID:      nil,
		FieldStatus:        t.Status.String(),
		FieldPriority:      t.Priority.String(),
		FieldDueDate:       nil,
		FieldEstimatedTime: t.EstimatedTime,
		FieldCreatedAt:     FormatTimestamp(t.createdAt),
		FieldUpdatedAt:     FormatTimestamp(t.updatedAt),
	}
	if t.ParentID != nil {
		doc[FieldParentID] = *t.ParentID
	}
	if t.DueDate != nil {
		doc[FieldDueDate] = FormatTimestamp(*t.DueDate)
	}
	return doc
}

// FromDocument rebuilds a task, keeping the stored id and audit timestamps.
// Missing optional fields take their defaults; unknown keys are ignored.
func FromDocument(doc Document) (Task, error) {
	const op = "domain.FromDocument"

	if doc == nil {
		return Task{}, deserializationError(op, errors.New("document is nil"))
	}

	title, ok := doc[FieldTitle].(string)
	if !ok {
		return Task{}, deserializationError(op, errors.New("title is missing or not a string"))
	}

	in := CreateTaskInput{Title: title}

	if v, present := doc[FieldBody]; present && v != nil {
		body, ok := v.(string)
		if !ok {
			return Task{}, deserializationError(op, fmt.Errorf("body has type %T", v))
		}
		in.Body = body
	}

	if v, present := doc[FieldParentID]; present && v != nil {
		parentID, ok := v.(string)
		if !ok {
			return Task{}, deserializationError(op, fmt.Errorf("parentId has type %T", v))
		}
		if parentID != "" {
			in.ParentID = &parentID
		}
	}

	if v, present := doc[FieldStatus]; present && v != nil {
		status, err := statusFromValue(v)
		if err != nil {
			return Task{}, deserializationError(op, err)
		}
		in.Status = status
	}

	if v, present := doc[FieldPriority]; present && v != nil {
		priority, err := priorityFromValue(v)
		if err != nil {
			return Task{}, deserializationError(op, err)
		}
		in.Priority = priority
	}

	if v, present := doc[FieldDueDate]; present && v != nil {
		due, err := timeFromValue(v)
		if err != nil {
			return Task{}, deserializationError(op, fmt.Errorf("dueDate: %w", err))
		}
		in.DueDate = &due
	}

	if v, present := doc[FieldEstimatedTime]; present && v != nil {
		minutes, err := intFromValue(v)
		if err != nil {
			return Task{}, deserializationError(op, fmt.Errorf("estimatedTime: %w", err))
		}
		in.EstimatedTime = minutes
	}

	task, err := NewTask(in)
	if err != nil {
		return Task{}, deserializationError(op, err)
	}

	if v, present := doc[FieldID]; present && v != nil {
		id, ok := v.(string)
		if !ok || id == "" {
			return Task{}, deserializationError(op, fmt.Errorf("id has type %T", v))
		}
		task.id = id
	}

	if v, present := doc[FieldCreatedAt]; present && v != nil {
		createdAt, err := timeFromValue(v)
		if err != nil {
			return Task{}, deserializationError(op, fmt.Errorf("createdAt: %w", err))
		}
		task.createdAt = createdAt
		task.updatedAt = createdAt
	}

	if v, present := doc[FieldUpdatedAt]; present && v != nil {
		updatedAt, err := timeFromValue(v)
		if err != nil {
			return Task{}, deserializationError(op, fmt.Errorf("updatedAt: %w", err))
		}
		task.updatedAt = updatedAt
	}

	if task.updatedAt.Before(task.createdAt) {
		return Task{}, deserializationError(op, errors.New("updatedAt is before createdAt"))
	}

	return task, nil
}

// EncodeTimes returns a copy of doc with time values rendered as timestamps,
// which is the form every store persists.
func EncodeTimes(doc Document) Document {
	out := make(Document, len(doc))
	for key, value := range doc {
		switch v := value.(type) {
		case time.Time:
			out[key] = FormatTimestamp(v)
		case *time.Time:
			if v == nil {
				out[key] = nil
			} else {
				out[key] = FormatTimestamp(*v)
			}
		default:
			out[key] = value
		}
	}
	return out
}

func statusFromValue(v any) (Status, error) {
	switch s := v.(type) {
	case Status:
		if !s.Valid() {
			return 0, fmt.Errorf("invalid status %d", int(s))
		}
		return s, nil
	case string:
		return ParseStatus(s)
	default:
		return 0, fmt.Errorf("status has type %T", v)
	}
}

func priorityFromValue(v any) (Priority, error) {
	switch p := v.(type) {
	case Priority:
		if !p.Valid() {
			return 0, fmt.Errorf("invalid priority %d", int(p))
		}
		return p, nil
	case string:
		return ParsePriority(p)
	default:
		return 0, fmt.Errorf("priority has type %T", v)
	}
}

func timeFromValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Truncate(time.Microsecond), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, errors.New("nil time")
		}
		return t.UTC().Truncate(time.Microsecond), nil
	case string:
		return ParseTimestamp(t)
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}

// intFromValue accepts the integer shapes stores and JSON decoders hand back.
func intFromValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, fmt.Errorf("%d is out of range", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		// float64(math.MaxInt) rounds up to 2^63, which no int can hold.
		if n < math.MinInt || n >= math.MaxInt {
			return 0, fmt.Errorf("%v is out of range", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
