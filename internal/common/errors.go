package common

import (
	"context"
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

// Extraction error taxonomy. Document-level failures abort the job; the
// rest are recoverable and must be swallowed (and logged) at the page or
// backend level.
var (
	ErrDocumentUnreadable = errors.New("document unreadable")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrEngineUnavailable  = errors.New("recognition engine unavailable")
	ErrRecognitionFailed  = errors.New("recognition failed")
	ErrEnhancementFailed  = errors.New("enhancement failed")
	ErrTimeout            = errors.New("stage timed out")
	ErrCancelled          = errors.New("job cancelled")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// Error constructors
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

// ClassifyContext maps context termination onto the extraction taxonomy so
// a deadline expiry surfaces as a timeout and not as a cancellation.
func ClassifyContext(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return NewAppError("TIMEOUT", "operation deadline exceeded", ErrTimeout)
	case errors.Is(err, context.Canceled):
		return NewAppError("CANCELLED", "operation cancelled", ErrCancelled)
	default:
		return err
	}
}

// ErrorCode maps an error chain to the short machine-readable code exposed
// on a failed job.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDocumentUnreadable):
		return "DOCUMENT_UNREADABLE"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrCancelled):
		return "CANCELLED"
	case errors.Is(err, ErrEngineUnavailable):
		return "ENGINE_UNAVAILABLE"
	case errors.Is(err, ErrRecognitionFailed):
		return "RECOGNITION_FAILED"
	case errors.Is(err, ErrEnhancementFailed):
		return "ENHANCEMENT_FAILED"
	case errors.Is(err, ErrBackendUnavailable):
		return "BACKEND_UNAVAILABLE"
	default:
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr.Code
		}
		return "INTERNAL"
	}
}
