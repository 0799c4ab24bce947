package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidField      = errors.New("invalid field")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrInvalidReference  = errors.New("invalid reference")
	ErrCyclicReference   = errors.New("cyclic reference")
	ErrHasDependents     = errors.New("has dependents")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingResolution = errors.New("missing resolution")
	ErrCyclicThread      = errors.New("cyclic thread")
)

// ValidationError reports a caller-correctable failure together with the
// entity and field that caused it. It unwraps to one of the Err* kinds.
type ValidationError struct {
	Kind   error
	Entity EntityType
	Field  string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	prefix := e.Kind.Error()
	if e.Entity != "" && e.Field != "" {
		prefix = fmt.Sprintf("%s: %s.%s", prefix, e.Entity, e.Field)
	} else if e.Field != "" {
		prefix = fmt.Sprintf("%s: %s", prefix, e.Field)
	}
	if e.Msg == "" {
		return prefix
	}
	return prefix + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Errorf builds a ValidationError of the given kind.
func Errorf(kind error, entity EntityType, field, format string, args ...any) error {
	return &ValidationError{Kind: kind, Entity: entity, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports that the addressed record does not exist.
func NotFound(entity EntityType, id string) error {
	return &ValidationError{Kind: ErrNotFound, Entity: entity, Field: "id", Msg: fmt.Sprintf("%s %q not found", entity, id)}
}

// KindOf returns the sentinel kind carried by err, or nil when err is not a
// ValidationError and does not wrap one of the known kinds.
func KindOf(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	for _, kind := range []error{
		ErrNotFound, ErrInvalidField, ErrReferenceNotFound, ErrInvalidReference,
		ErrCyclicReference, ErrHasDependents, ErrInvalidTransition,
		ErrMissingResolution, ErrCyclicThread,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
