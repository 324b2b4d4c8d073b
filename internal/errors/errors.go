package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"tabprep/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. Pipeline errors get their
// domain code; other errors keep an existing code or become internal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, the domain code of a
// pipeline error, or CodeInternalError
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return domainCode(err)
}

func domainCode(err error) string {
	switch {
	case core.IsSchemaError(err):
		return CodeSchemaMismatch
	case core.IsPreparationError(err):
		return CodePreparationFailed
	case core.IsSplitError(err):
		return CodeSplitFailed
	}
	return CodeInternalError
}

// HTTPStatus maps an error to a response status. Pipeline errors are
// well-formed requests the data cannot satisfy.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeInvalidInput, CodeConfigInvalid:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSchemaMismatch, CodePreparationFailed, CodeSplitFailed:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Predefined error codes
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeSchemaMismatch    = "SCHEMA_MISMATCH"
	CodePreparationFailed = "PREPARATION_FAILED"
	CodeSplitFailed       = "SPLIT_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
