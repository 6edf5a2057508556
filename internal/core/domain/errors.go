package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound     Kind = "NotFound"
	KindBusinessRule Kind = "BusinessRule"
	KindInvalidState Kind = "InvalidState"
	KindUnexpected   Kind = "Unexpected"
)

// Error carries a failure classified by Kind. Sentinels of the same kind
// match any Error of that kind through errors.Is.
type Error struct {
	Kind    Kind
	Entity  string
	Key     string
	Message string
	Err     error
}

var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrBusinessRule = &Error{Kind: KindBusinessRule}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrUnexpected   = &Error{Kind: KindUnexpected}

	ErrEmptyOrder = NewBusinessRule("Order must have at least one item.")
)

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNotFound && e.Entity != "":
		return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	isSentinel := t.Entity == "" && t.Key == "" && t.Message == "" && t.Err == nil
	return isSentinel && t.Kind == e.Kind
}

func NewNotFound(entity string, key any) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Key: fmt.Sprint(key)}
}

func NewBusinessRule(format string, args ...any) *Error {
	return &Error{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// Unexpected wraps err with an operation label. Errors that are already
// classified pass through untouched.
func Unexpected(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindUnexpected, Message: op, Err: err}
}

// KindOf reports the kind of err, treating unclassified errors as unexpected.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnexpected
}
