package performance

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failure")
)

// NotFoundError reports a goal, milestone, metric or review that does not
// exist at operation time.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError wraps whatever the backing store reported.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// storeErr converts a store error into the domain taxonomy. Domain errors pass
// through untouched so that they survive a transaction boundary.
func storeErr(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	var notFound *NotFoundError
	var invalid *ValidationError
	var persistence *PersistenceError
	switch {
	case errors.As(err, &notFound), errors.As(err, &invalid), errors.As(err, &persistence):
		return err
	case errors.Is(err, ErrRowNotFound):
		return &NotFoundError{Entity: entity, ID: id}
	}
	return &PersistenceError{Op: op, Err: err}
}
