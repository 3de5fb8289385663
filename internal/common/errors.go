package common

import (
	"errors"
	"fmt"
)

// Stable machine codes for the pipeline's error taxonomy.
const (
	CodeClassification = "CLASSIFICATION_ERROR" // source kind undeterminable / ambiguous folder
	CodeExtraction     = "EXTRACTION_ERROR"     // no text obtainable from any method
	CodeCapacity       = "CAPACITY_ERROR"       // template has no free block
	CodeWriteConflict  = "WRITE_CONFLICT"       // block holds a different candidate
	CodeConfig         = "CONFIG_ERROR"
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
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoCapacity   = errors.New("no free block in template")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewClassificationError(message string, cause error) *AppError {
	return NewAppError(CodeClassification, message, cause)
}

func NewExtractionError(message string, cause error) *AppError {
	return NewAppError(CodeExtraction, message, cause)
}

func NewCapacityError(message string) *AppError {
	return NewAppError(CodeCapacity, message, ErrNoCapacity)
}

func NewWriteConflictError(message string) *AppError {
	return NewAppError(CodeWriteConflict, message, nil)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ErrorCode extracts the machine code from err, or "" when err is not an AppError.
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether err carries the given machine code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
