package types

import "fmt"

// ErrorCode represents a unified error code across the toolkit.
type ErrorCode string

// Stream and sequence error codes
const (
	ErrValidation       ErrorCode = "VALIDATION"
	ErrOperationAborted ErrorCode = "OPERATION_ABORTED"
	ErrRetryExhausted   ErrorCode = "RETRY_EXHAUSTED"
	ErrBatchFailure     ErrorCode = "BATCH_FAILURE"
	ErrOperatorTimeout  ErrorCode = "OPERATOR_TIMEOUT"
)

// Queue error codes
const (
	ErrQueueOverflow ErrorCode = "QUEUE_OVERFLOW"
	ErrQueueFull     ErrorCode = "QUEUE_FULL"
)

// Worker pool error codes
const (
	ErrPoolTerminating ErrorCode = "POOL_TERMINATING"
	ErrWorkerFailure   ErrorCode = "WORKER_FAILURE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Attempts  int       `json:"attempts,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithAttempts records how many attempts were made before the error was raised.
func (e *Error) WithAttempts(attempts int) *Error {
	e.Attempts = attempts
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given toolkit error code,
// unwrapping as needed.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
