package apperr

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrValidation         = errors.New("validation failed")
	ErrNotReady           = errors.New("job not ready")
	ErrBusy               = errors.New("job queue is full")
	ErrTerminal           = errors.New("job already finished")
	ErrInvalidTransition  = errors.New("invalid job transition")
	ErrAdapterUnavailable = errors.New("adapter unavailable")
	ErrCancelled          = errors.New("job cancelled")
)

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NotFound reports an unknown job id or a missing asset.
func NotFound(kind, id string) error {
	return NewAppError("not_found", fmt.Sprintf("%s %q not found", kind, id), ErrNotFound)
}

// NotReady reports that a job has not reached completed yet.
func NotReady(id, status string) error {
	return NewAppError("not_ready", fmt.Sprintf("job %q is %s", id, status), ErrNotReady)
}

// StageError ties an error to the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AdapterError wraps a failure returned by an external collaborator.
type AdapterError struct {
	Adapter string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Adapter, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Unavailable reports that an adapter has no live backend.
func Unavailable(adapter, reason string) error {
	return &AdapterError{Adapter: adapter, Err: fmt.Errorf("%w: %s", ErrAdapterUnavailable, reason)}
}

// IsUnavailable reports whether err stems from a missing backend rather than a call failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrAdapterUnavailable)
}
