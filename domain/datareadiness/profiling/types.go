package profiling

import (
	"fmt"

	"tabprep/domain/core"
)

// ValidationReport summarises the quality of a recordset
type ValidationReport struct {
	RecordCount     int            `json:"record_count"`
	Fields          []string       `json:"fields"`
	AbsentCounts    map[string]int `json:"absent_counts"`
	OutlierIndices  []int          `json:"outlier_indices"`
	OutlierFlags    []OutlierFlag  `json:"outlier_flags"`
	DuplicateGroups [][]int        `json:"duplicate_groups"`
	ComputedAt      core.Timestamp `json:"computed_at"`
}

// OutlierFlag records one field value that tripped its predicate
type OutlierFlag struct {
	Index int     `json:"index"`
	Field string  `json:"field"`
	Value float64 `json:"value"`
}

// TotalAbsent returns the number of missing cells across all fields
func (r *ValidationReport) TotalAbsent() int {
	total := 0
	for _, n := range r.AbsentCounts {
		total += n
	}
	return total
}

// DuplicateCount returns how many records deduplication would remove
func (r *ValidationReport) DuplicateCount() int {
	n := 0
	for _, g := range r.DuplicateGroups {
		n += len(g) - 1
	}
	return n
}

// Clean reports whether nothing was flagged
func (r *ValidationReport) Clean() bool {
	return r.TotalAbsent() == 0 && len(r.OutlierIndices) == 0 && len(r.DuplicateGroups) == 0
}

// Summary provides a human-readable summary of the report
func (r *ValidationReport) Summary() string {
	return fmt.Sprintf("Validation: %d records, %d missing cells, %d outlier records, %d duplicate groups",
		r.RecordCount, r.TotalAbsent(), len(r.OutlierIndices), len(r.DuplicateGroups))
}

// OutlierPredicate flags a present numeric value as anomalous
type OutlierPredicate func(value float64) bool

// Above flags values strictly greater than limit
func Above(limit float64) OutlierPredicate {
	return func(v float64) bool { return v > limit }
}

// Below flags values strictly less than limit
func Below(limit float64) OutlierPredicate {
	return func(v float64) bool { return v < limit }
}

// Outside flags values strictly outside [low, high]
func Outside(low, high float64) OutlierPredicate {
	return func(v float64) bool { return v < low || v > high }
}

// OutlierRule is the declarative form of a predicate, as found in plan files.
// Min and Max are inclusive bounds. IQR, when positive, adds Tukey fences
// computed from the data the rule is compiled against.
type OutlierRule struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	IQR float64  `json:"iqr,omitempty" yaml:"iqr,omitempty"`
}

// IsEmpty reports whether the rule flags nothing
func (r OutlierRule) IsEmpty() bool {
	return r.Min == nil && r.Max == nil && r.IQR <= 0
}

// OutlierRules maps field names to rules
type OutlierRules map[string]OutlierRule

// InferredType represents the detected type of a field
type InferredType string

const (
	TypeInteger InferredType = "integer"
	TypeFloat   InferredType = "float"
	TypeNumeric InferredType = "numeric" // integers and floats mixed
	TypeText    InferredType = "text"
	TypeMixed   InferredType = "mixed" // numbers and text mixed
	TypeEmpty   InferredType = "empty" // every value missing
)

// FieldProfile contains the statistical profile of a field
type FieldProfile struct {
	Field         string        `json:"field"`
	InferredType  InferredType  `json:"inferred_type"`
	PresentCount  int           `json:"present_count"`
	AbsentCount   int           `json:"absent_count"`
	DistinctCount int           `json:"distinct_count"`
	MissingRate   float64       `json:"missing_rate"`
	NumericStats  *NumericStats `json:"numeric_stats,omitempty"`
}

// NumericStats contains statistics for numeric fields
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// IsNumeric reports whether the profile describes a numeric field
func (fp FieldProfile) IsNumeric() bool {
	switch fp.InferredType {
	case TypeInteger, TypeFloat, TypeNumeric:
		return true
	}
	return false
}
