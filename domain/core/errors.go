package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Schema errors
	ErrSchemaMismatch = errors.New("records do not share identical field names")
	ErrUnknownField   = errors.New("field not present in recordset schema")
	ErrEmptyRecordset = errors.New("recordset is empty")

	// Preparation errors
	ErrEmptyField          = errors.New("field has no present values")
	ErrUnsupportedStrategy = errors.New("strategy not supported for field type")
	ErrDegenerateRange     = errors.New("field has zero range")

	// Split errors
	ErrInvalidFraction  = errors.New("test fraction must lie strictly between 0 and 1")
	ErrInsufficientData = errors.New("insufficient data for split")
)

// Error constructors with context
func NewSchemaMismatchError(index int, reason string) error {
	return fmt.Errorf("%w: record %d %s", ErrSchemaMismatch, index, reason)
}

func NewUnknownFieldError(field string) error {
	return fmt.Errorf("%w: %q", ErrUnknownField, field)
}

func NewEmptyFieldError(field string) error {
	return fmt.Errorf("%w: %q", ErrEmptyField, field)
}

func NewUnsupportedStrategyError(field, strategy, reason string) error {
	return fmt.Errorf("%w: %s on %q (%s)", ErrUnsupportedStrategy, strategy, field, reason)
}

func NewDegenerateRangeError(field string, value float64) error {
	return fmt.Errorf("%w: every present value of %q equals %g", ErrDegenerateRange, field, value)
}

func NewInvalidFractionError(fraction float64) error {
	return fmt.Errorf("%w: got %g", ErrInvalidFraction, fraction)
}

func NewInsufficientDataError(n int) error {
	return fmt.Errorf("%w: need at least 2 records, got %d", ErrInsufficientData, n)
}

// Error checking helpers
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrEmptyRecordset)
}

func IsPreparationError(err error) bool {
	return errors.Is(err, ErrEmptyField) ||
		errors.Is(err, ErrUnsupportedStrategy) ||
		errors.Is(err, ErrDegenerateRange)
}

func IsSplitError(err error) bool {
	return errors.Is(err, ErrInvalidFraction) ||
		errors.Is(err, ErrInsufficientData)
}

// IsDomainError reports whether err originates from a pipeline operation
// rather than from I/O or configuration.
func IsDomainError(err error) bool {
	return IsSchemaError(err) || IsPreparationError(err) || IsSplitError(err)
}
