package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"tasksmith/internal/adapter/http/dto"
	"tasksmith/internal/core/domain"
)

var ErrInvalidTaskPayload = errors.New("invalid task payload")

// Request keys and the document fields they write.
var taskFields = map[string]string{
	"title":          domain.FieldTitle,
	"body":           domain.FieldBody,
	"parent_id":      domain.FieldParentID,
	"status":         domain.FieldStatus,
	"priority":       domain.FieldPriority,
	"due_date":       domain.FieldDueDate,
	"estimated_time": domain.FieldEstimatedTime,
}

// Keys that may be sent as null to clear the stored value.
var nullableFields = map[string]bool{
	"parent_id": true,
	"due_date":  true,
}

func BuildCreateTaskInput(req dto.CreateTaskRequest, raw map[string]json.RawMessage) (domain.CreateTaskInput, error) {
	if hasUnknownFields(raw) {
		return domain.CreateTaskInput{}, ErrInvalidTaskPayload
	}
	for key := range raw {
		if !nullableFields[key] && isJSONNull(raw[key]) {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.CreateTaskInput{}, ErrInvalidTaskPayload
	}

	input := domain.CreateTaskInput{
		Title:    title,
		ParentID: req.ParentID,
	}

	if req.Body != nil {
		input.Body = *req.Body
	}

	if req.Status != nil {
		status, err := parseStatus(*req.Status)
		if err != nil {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
		input.Status = status
	}

	if req.Priority != nil {
		priority, err := parsePriority(*req.Priority)
		if err != nil {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
		input.Priority = priority
	}

	if req.DueDate != nil {
		dueDate, err := domain.ParseTimestamp(*req.DueDate)
		if err != nil {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
		input.DueDate = &dueDate
	}

	if req.EstimatedTime != nil {
		if *req.EstimatedTime < 0 {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
		input.EstimatedTime = *req.EstimatedTime
	}

	return input, nil
}

// BuildUpdatePayload keeps only the keys present in raw. parent_id and
// due_date accept null to clear the value.
func BuildUpdatePayload(req dto.UpdateTaskRequest, raw map[string]json.RawMessage) (domain.UpdatePayload, error) {
	if len(raw) == 0 || hasUnknownFields(raw) {
		return nil, ErrInvalidTaskPayload
	}

	payload := domain.UpdatePayload{}
	for key, value := range raw {
		null := isJSONNull(value)
		if null && !nullableFields[key] {
			return nil, ErrInvalidTaskPayload
		}

		field := taskFields[key]
		switch key {
		case "title":
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return nil, ErrInvalidTaskPayload
			}
			payload[field] = title

		case "body":
			payload[field] = *req.Body

		case "parent_id":
			if null {
				payload[field] = nil
				continue
			}
			payload[field] = *req.ParentID

		case "status":
			status, err := parseStatus(*req.Status)
			if err != nil {
				return nil, ErrInvalidTaskPayload
			}
			payload[field] = status

		case "priority":
			priority, err := parsePriority(*req.Priority)
			if err != nil {
				return nil, ErrInvalidTaskPayload
			}
			payload[field] = priority

		case "due_date":
			if null {
				payload[field] = nil
				continue
			}
			dueDate, err := domain.ParseTimestamp(*req.DueDate)
			if err != nil {
				return nil, ErrInvalidTaskPayload
			}
			payload[field] = dueDate

		case "estimated_time":
			if *req.EstimatedTime < 0 {
				return nil, ErrInvalidTaskPayload
			}
			payload[field] = *req.EstimatedTime
		}
	}

	return payload, nil
}

// DecodeObject splits a request body into its top-level keys. Anything other
// than a JSON object is rejected.
func DecodeObject(body []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, ErrInvalidTaskPayload
	}
	return raw, nil
}

func parseStatus(value string) (domain.Status, error) {
	return domain.ParseStatus(normalizeEnum(value))
}

func parsePriority(value string) (domain.Priority, error) {
	return domain.ParsePriority(normalizeEnum(value))
}

// normalizeEnum lets clients send "in_progress" or "In Progress".
func normalizeEnum(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	return strings.ReplaceAll(value, " ", "_")
}

func hasUnknownFields(raw map[string]json.RawMessage) bool {
	for key := range raw {
		if _, ok := taskFields[key]; !ok {
			return true
		}
	}
	return false
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

// ParseParentFilter reads the optional parent_id query value.
func ParseParentFilter(value string, present bool) (*string, error) {
	if !present {
		return nil, nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrInvalidTaskPayload
	}
	return &value, nil
}
