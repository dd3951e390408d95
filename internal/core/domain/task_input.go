package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// TaskInput is the subset of a task a generative model is allowed to propose.
// Identity, hierarchy, status, priority and audit fields are assigned after
// validation.
type TaskInput struct {
	Title         string  `json:"title" validate:"required"`
	Body          string  `json:"body"`
	DueDate       *string `json:"dueDate,omitempty"`
	EstimatedTime int     `json:"estimatedTime" validate:"gte=0"`
}

var inputValidator = validator.New(validator.WithRequiredStructEnabled())

// Exact keys of a TaskInput object. encoding/json matches struct fields case
// insensitively, so keys are checked before decoding.
var taskInputKeys = map[string]struct{}{
	"title":         {},
	"body":          {},
	"dueDate":       {},
	"estimatedTime": {},
}

// ParseTaskInputs decodes and validates a JSON array of TaskInput. Any unknown,
// duplicated or differently cased key, missing title or malformed element
// rejects the whole batch.
func ParseTaskInputs(raw []byte) ([]TaskInput, error) {
	const op = "domain.ParseTaskInputs"

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, validationError(op, errors.New("response is not a JSON array"))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var elements []json.RawMessage
	if err := dec.Decode(&elements); err != nil {
		return nil, validationError(op, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, validationError(op, errors.New("unexpected data after JSON array"))
	}

	inputs := make([]TaskInput, 0, len(elements))
	for i, element := range elements {
		in, err := decodeTaskInput(element)
		if err != nil {
			return nil, validationError(op, fmt.Errorf("element %d: %w", i, err))
		}
		inputs = append(inputs, in)
	}

	return inputs, nil
}

func decodeTaskInput(element json.RawMessage) (TaskInput, error) {
	if err := checkInputKeys(element); err != nil {
		return TaskInput{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(element))
	dec.DisallowUnknownFields()

	var in TaskInput
	if err := dec.Decode(&in); err != nil {
		return TaskInput{}, err
	}
	if err := inputValidator.Struct(in); err != nil {
		return TaskInput{}, err
	}
	if in.DueDate != nil {
		if _, err := ParseTimestamp(*in.DueDate); err != nil {
			return TaskInput{}, err
		}
	}
	return in, nil
}

func checkInputKeys(element json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(element))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("element is not a JSON object")
	}

	seen := make(map[string]struct{}, len(taskInputKeys))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		if _, ok := taskInputKeys[key]; !ok {
			return fmt.Errorf("unknown field %q", key)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate field %q", key)
		}
		seen[key] = struct{}{}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
	}
	return nil
}

// ToTask builds a fresh task from the input. parentID may be empty for a root task.
func (in TaskInput) ToTask(parentID string) (Task, error) {
	create := CreateTaskInput{
		Title:         in.Title,
		Body:          in.Body,
		EstimatedTime: in.EstimatedTime,
	}
	if parentID != "" {
		create.ParentID = &parentID
	}
	if in.DueDate != nil {
		due, err := ParseTimestamp(*in.DueDate)
		if err != nil {
			return Task{}, validationError("domain.TaskInput.ToTask", err)
		}
		create.DueDate = &due
	}
	return NewTask(create)
}
