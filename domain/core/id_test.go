package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"run-123", RunID("run-123"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestComputeRecordHashIgnoresFieldOrder(t *testing.T) {
	a := ComputeRecordHash(map[string]string{"name": "t:ann", "age": "n:30"})
	b := ComputeRecordHash(map[string]string{"age": "n:30", "name": "t:ann"})
	if a != b {
		t.Fatalf("expected identical hashes, got %s and %s", a, b)
	}

	// "ab"+"c" and "a"+"bc" must not collide
	c := ComputeRecordHash(map[string]string{"ab": "c"})
	d := ComputeRecordHash(map[string]string{"a": "bc"})
	if c == d {
		t.Fatalf("expected length-prefixed encoding to separate %q and %q", "ab=c", "a=bc")
	}
}

func TestDomainErrorClassification(t *testing.T) {
	tests := []struct {
		err  error
		want func(error) bool
	}{
		{NewSchemaMismatchError(2, "is missing field \"age\""), IsSchemaError},
		{NewUnknownFieldError("age"), IsSchemaError},
		{NewEmptyFieldError("age"), IsPreparationError},
		{NewDegenerateRangeError("age", 3), IsPreparationError},
		{NewUnsupportedStrategyError("name", "median", "text values"), IsPreparationError},
		{NewInvalidFractionError(1.5), IsSplitError},
		{NewInsufficientDataError(1), IsSplitError},
	}

	for _, tt := range tests {
		if !tt.want(tt.err) {
			t.Errorf("classification failed for %v", tt.err)
		}
		if !IsDomainError(tt.err) {
			t.Errorf("expected %v to be a domain error", tt.err)
		}
	}

	if IsDomainError(errors.New("disk full")) {
		t.Error("plain errors must not be classified as domain errors")
	}
}
