// Package errors provides standardized error handling for the scheduled jobs.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDataFetchFailed          ErrorCode = "DATA_FETCH_FAILED"
	ErrCodeRosterFetchFailed        ErrorCode = "ROSTER_FETCH_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSMSSendFailed          ErrorCode = "SMS_SEND_FAILED"
	ErrCodeIndexingFailed         ErrorCode = "INDEXING_FAILED"

	ErrCodeRunLockHeld          ErrorCode = "RUN_LOCK_HELD"
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets callers match on the error code with errors.Is.
func (e *StandardError) Is(target error) bool {
	other, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the ErrorCode from err when it wraps a StandardError.
func CodeOf(err error) (ErrorCode, bool) {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code, true
	}
	return "", false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewDataFetchFailedError flags a failed source query; the whole computation
// aborts, so the next scheduled run retries from live data.
func NewDataFetchFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataFetchFailed,
		Message:   fmt.Sprintf("Failed to fetch %s", source),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewRosterFetchFailedError flags a failed admin roster lookup.
func NewRosterFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRosterFetchFailed,
		Message:   "Failed to fetch active admin roster",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError flags a rejected mail delivery.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Failed to send delay notification email",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSMSSendFailedError flags a rejected SMS escalation.
func NewSMSSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSMSSendFailed,
		Message:   "Failed to send delay escalation SMS",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexingFailedError flags a failed run-report index request.
func NewIndexingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "Failed to index run report",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunLockHeldError signals that a concurrent trigger already owns the run.
func NewRunLockHeldError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRunLockHeld,
		Message:   "Another trigger currently owns the run lock",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidConfigurationError flags unusable service configuration.
func NewInvalidConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidConfiguration,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
