package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrNotConnected  = errors.New("store is not connected")
	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrNegativeTime  = errors.New("estimated time must not be negative")
	ErrNothingToSave = errors.New("no fields to update")

	ErrModelUnavailable = errors.New("model call failed")
)

// ErrorKind classifies failures so callers can report them without parsing messages.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindDeserialization ErrorKind = "deserialization"
	KindConnection      ErrorKind = "connection"
	KindNotFound        ErrorKind = "not_found"
)

// Error carries a kind and the operation that produced it.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func validationError(op string, err error) error {
	return NewError(KindValidation, op, err)
}

func deserializationError(op string, err error) error {
	return NewError(KindDeserialization, op, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrTaskNotFound) {
		return KindNotFound
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
