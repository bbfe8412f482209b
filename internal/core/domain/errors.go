package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Push operations return it before any batching begins.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled indicates the push was cancelled before it made progress.
	ErrCancelled = errors.New("push cancelled")

	// ErrPushIncomplete indicates a push stopped because the retry policy gave up.
	ErrPushIncomplete = errors.New("push incomplete")

	// ErrTransport indicates the appliance did not accept a feed.
	ErrTransport = errors.New("feed transport failed")

	// ErrPushInProgress indicates a push of the same kind is already running.
	ErrPushInProgress = errors.New("push in progress")
)

// ErrorClass tells the feed engine how to react to a failure.
type ErrorClass int

const (
	// ClassRecoverable failures are routed through the retry policy.
	ClassRecoverable ErrorClass = iota

	// ClassFatal failures abort the push without consulting the policy.
	ClassFatal
)

// String implements fmt.Stringer.
func (c ErrorClass) String() string {
	if c == ClassFatal {
		return "fatal"
	}
	return "recoverable"
}

// ClassifiedError attaches an ErrorClass to an error.
type ClassifiedError struct {
	Class ErrorClass
	Err   error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.Err == nil {
		return e.Class.String() + " error"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Fatal tags err as fatal. A nil err stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: ClassFatal, Err: err}
}

// Recoverable tags err as recoverable. A nil err stays nil.
func Recoverable(err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: ClassRecoverable, Err: err}
}

// ClassOf returns the outermost classification attached to err.
// Untagged errors are recoverable.
func ClassOf(err error) ErrorClass {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ClassRecoverable
}

// IsFatal reports whether err is tagged fatal.
func IsFatal(err error) bool {
	return err != nil && ClassOf(err) == ClassFatal
}

// IsCancellation reports whether err's chain carries a cancellation or
// deadline. It says nothing about whether the caller's context is done.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
