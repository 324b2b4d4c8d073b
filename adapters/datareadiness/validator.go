package datareadiness

import (
	"sort"

	"tabprep/domain/core"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/profiling"
)

// Validator implements ValidatorPort
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate counts missing values per field, flags outlier records and groups
// duplicate records. The recordset is read in a single pass.
func (v *Validator) Validate(rs ingestion.Recordset, predicates map[string]profiling.OutlierPredicate) (*profiling.ValidationReport, error) {
	if rs.IsEmpty() {
		return nil, core.ErrEmptyRecordset
	}

	fields, err := rs.Schema()
	if err != nil {
		return nil, err
	}

	// Resolve predicate fields up front so an unknown field fails before any work
	inSchema := make(map[string]bool, len(fields))
	for _, f := range fields {
		inSchema[f] = true
	}
	predicateFields := make([]string, 0, len(predicates))
	for f, p := range predicates {
		if p == nil {
			continue
		}
		if !inSchema[f] {
			return nil, core.NewUnknownFieldError(f)
		}
		predicateFields = append(predicateFields, f)
	}
	sort.Slice(predicateFields, func(i, j int) bool {
		return indexOf(fields, predicateFields[i]) < indexOf(fields, predicateFields[j])
	})

	report := &profiling.ValidationReport{
		RecordCount:     rs.Len(),
		Fields:          fields,
		AbsentCounts:    make(map[string]int, len(fields)),
		OutlierIndices:  []int{},
		OutlierFlags:    []profiling.OutlierFlag{},
		DuplicateGroups: [][]int{},
	}
	for _, f := range fields {
		report.AbsentCounts[f] = 0
	}

	grouper := ingestion.NewDuplicateGrouper()

	for i := 0; i < rs.Len(); i++ {
		rec := rs.At(i)

		for _, f := range fields {
			if val, _ := rec.Get(f); val.Absent() {
				report.AbsentCounts[f]++
			}
		}

		flagged := false
		for _, f := range predicateFields {
			val, _ := rec.Get(f)
			num, ok := val.AsFloat64()
			if !ok || !predicates[f](num) {
				continue
			}
			report.OutlierFlags = append(report.OutlierFlags, profiling.OutlierFlag{Index: i, Field: f, Value: num})
			flagged = true
		}
		if flagged {
			report.OutlierIndices = append(report.OutlierIndices, i)
		}

		grouper.Add(i, rec)
	}

	report.DuplicateGroups = grouper.Duplicates()
	report.ComputedAt = core.Now()

	return report, nil
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return len(fields)
}

// CompileRules compiles declarative outlier rules against rs
func (v *Validator) CompileRules(rs ingestion.Recordset, rules profiling.OutlierRules) (map[string]profiling.OutlierPredicate, error) {
	return CompilePredicates(rs, rules)
}
