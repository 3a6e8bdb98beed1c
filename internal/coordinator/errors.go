package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error is the error delivered to a task's Future.
//
// Every failure the coordinator reports carries a Code so callers can decide
// user-visible behaviour (retry, fall back, surface) without string matching.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// TaskID identifies the affected task. Empty for errors shared by many
	// tasks, such as an initialization failure.
	TaskID string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes coordinator errors.
type ErrorCode string

const (
	// ErrCodeInitialization indicates the engine connection could not be created.
	ErrCodeInitialization ErrorCode = "INITIALIZATION_FAILED"

	// ErrCodeQuery indicates the engine rejected or failed the statement.
	ErrCodeQuery ErrorCode = "QUERY_FAILED"

	// ErrCodeCancelled indicates the task was removed before it ran, or its
	// caller gave up waiting.
	ErrCodeCancelled ErrorCode = "CANCELLED"

	// ErrCodeClosed indicates the coordinator was already shut down.
	ErrCodeClosed ErrorCode = "CLOSED"

	// ErrCodeDeadlineExceeded indicates the per-query timeout or the caller's
	// deadline expired.
	ErrCodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.TaskID != "" {
		msg = fmt.Sprintf("%s (task=%s)", msg, e.TaskID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsInitializationError returns true if the engine could not be created.
func IsInitializationError(err error) bool {
	return hasCode(err, ErrCodeInitialization)
}

// IsQueryError returns true if the statement itself failed.
func IsQueryError(err error) bool {
	return hasCode(err, ErrCodeQuery)
}

// IsCancelled returns true if the task was cancelled before completion.
func IsCancelled(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

// IsClosed returns true if the coordinator had been shut down.
func IsClosed(err error) bool {
	return hasCode(err, ErrCodeClosed)
}

// IsDeadlineExceeded returns true if a timeout expired.
func IsDeadlineExceeded(err error) bool {
	return hasCode(err, ErrCodeDeadlineExceeded)
}

func newInitializationError(err error) *Error {
	return &Error{
		Code:    ErrCodeInitialization,
		Message: "failed to initialize engine connection",
		Err:     err,
	}
}

func newQueryError(taskID string, err error) *Error {
	return &Error{
		Code:    ErrCodeQuery,
		Message: "query failed",
		TaskID:  taskID,
		Err:     err,
	}
}

func newCancelledError(taskID, reason string) *Error {
	return &Error{
		Code:    ErrCodeCancelled,
		Message: "query cancelled: " + reason,
		TaskID:  taskID,
	}
}

func newClosedError(taskID string) *Error {
	return &Error{
		Code:    ErrCodeClosed,
		Message: "coordinator is closed",
		TaskID:  taskID,
	}
}

func newDeadlineError(taskID string, err error) *Error {
	return &Error{
		Code:    ErrCodeDeadlineExceeded,
		Message: "query deadline exceeded",
		TaskID:  taskID,
		Err:     err,
	}
}

// contextError maps a done context to CANCELLED or DEADLINE_EXCEEDED.
func contextError(taskID string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newDeadlineError(taskID, err)
	}
	ce := newCancelledError(taskID, "caller context done")
	ce.Err = err
	return ce
}

// outcome is the metrics label for a settled error.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var ce *Error
	if errors.As(err, &ce) {
		return strings.ToLower(string(ce.Code))
	}
	return "error"
}
