package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// UpdatePayload is a partial update keyed by Document field names.
type UpdatePayload map[string]any

// Keys that never reach a store: identity and creation time are immutable.
var droppedUpdateKeys = map[string]struct{}{
	FieldID:        {},
	"_id":          {},
	FieldCreatedAt: {},
}

// PrepareUpdates filters and normalizes a partial update for storage. Enums
// become their names and times become UTC. An empty result means there is
// nothing to persist.
func PrepareUpdates(updates UpdatePayload) (Document, error) {
	const op = "domain.PrepareUpdates"

	prepared := Document{}
	for _, key := range sortedKeys(updates) {
		if _, drop := droppedUpdateKeys[key]; drop {
			continue
		}

		value, err := prepareValue(key, updates[key])
		if err != nil {
			return nil, validationError(op, err)
		}
		prepared[key] = value
	}
	return prepared, nil
}

func prepareValue(key string, value any) (any, error) {
	switch key {
	case FieldTitle:
		title, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("title has type %T", value)
		}
		if strings.TrimSpace(title) == "" {
			return nil, ErrEmptyTitle
		}
		return title, nil

	case FieldBody:
		body, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("body has type %T", value)
		}
		return body, nil

	case FieldParentID:
		switch v := value.(type) {
		case nil:
			return nil, nil
		case string:
			return v, nil
		case *string:
			if v == nil {
				return nil, nil
			}
			return *v, nil
		default:
			return nil, fmt.Errorf("parentId has type %T", value)
		}

	case FieldStatus:
		status, err := statusFromValue(value)
		if err != nil {
			return nil, err
		}
		return status.String(), nil

	case FieldPriority:
		priority, err := priorityFromValue(value)
		if err != nil {
			return nil, err
		}
		return priority.String(), nil

	case FieldDueDate:
		if value == nil {
			return nil, nil
		}
		if p, ok := value.(*time.Time); ok && p == nil {
			return nil, nil
		}
		t, err := timeFromValue(value)
		if err != nil {
			return nil, fmt.Errorf("dueDate: %w", err)
		}
		return t, nil

	case FieldUpdatedAt:
		t, err := timeFromValue(value)
		if err != nil {
			return nil, fmt.Errorf("updatedAt: %w", err)
		}
		return t, nil

	case FieldEstimatedTime:
		minutes, err := intFromValue(value)
		if err != nil {
			return nil, fmt.Errorf("estimatedTime: %w", err)
		}
		if minutes < 0 {
			return nil, ErrNegativeTime
		}
		return minutes, nil

	default:
		return nil, errors.New("unknown field " + key)
	}
}

func sortedKeys(m UpdatePayload) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UpdatedAtOf returns the updatedAt a prepared update writes, if any. Stores
// apply such an update only while the stored createdAt is not after it.
func UpdatedAtOf(prepared Document) (time.Time, bool) {
	t, ok := prepared[FieldUpdatedAt].(time.Time)
	return t, ok
}
