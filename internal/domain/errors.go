package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"
	CodeNotFound      ErrorCode = "NOT_FOUND"

	// Pipeline specific errors
	CodeQuizNotFound      ErrorCode = "QUIZ_NOT_FOUND"
	CodeNoEnabledFiles    ErrorCode = "NO_ENABLED_FILES"
	CodeNoContentFound    ErrorCode = "NO_CONTENT_FOUND"
	CodeQueueUnavailable  ErrorCode = "QUEUE_UNAVAILABLE"
	CodeParseError        ErrorCode = "PARSE_ERROR"
	CodeFinalizationError ErrorCode = "FINALIZATION_ERROR"
	CodeLLMServiceError   ErrorCode = "LLM_SERVICE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil)
}

// NewNoEnabledFilesError indicates the user has no source files enabled
// for retrieval, so there is nothing to generate questions from.
func NewNoEnabledFilesError(userID string) *DomainError {
	return NewError(CodeNoEnabledFiles, fmt.Sprintf("No enabled source files for user %s", userID), nil)
}

// NewNoContentFoundError indicates the vector index returned no chunks.
func NewNoContentFoundError(message string) *DomainError {
	return NewError(CodeNoContentFound, message, nil)
}

// NewQueueUnavailableError indicates task dispatch cannot proceed at all.
func NewQueueUnavailableError(err error) *DomainError {
	return NewError(CodeQueueUnavailable, "Task queue is not available", err)
}

// NewParseError reports a model response that failed strict validation.
// Index is the offending element, rule the violated constraint.
func NewParseError(index int, rule string) *DomainError {
	return NewError(CodeParseError, fmt.Sprintf("Invalid question at index %d: %s", index, rule), nil)
}

// NewParseErrorf wraps a lower-level decode failure as a parse error.
func NewParseErrorf(format string, args ...interface{}) *DomainError {
	return NewError(CodeParseError, fmt.Sprintf(format, args...), nil)
}

// NewFinalizationError indicates quiz assembly could not complete, either
// because no questions were ever collected or a storage step failed.
func NewFinalizationError(quizID string, err error) *DomainError {
	return NewError(CodeFinalizationError, fmt.Sprintf("Failed to finalize quiz %s", quizID), err)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(CodeLLMServiceError, "Failed to process with LLM service", err)
}

// IsParseError reports whether err is a model-output parse error. Parse
// errors are terminal for the issuing worker: redelivering the task would
// not change the already-consumed model output path, so the consumer
// acknowledges the message instead of retrying it.
func IsParseError(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == CodeParseError
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates request validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e[0].Error())
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %q", value)}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("value %d is out of range [%d, %d]", value, min, max)}
}

func NewNotOneOfError(field string, value, allowed interface{}) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("value %v is not one of %v", value, allowed)}
}
