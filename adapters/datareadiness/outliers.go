package datareadiness

import (
	"math"
	"sort"

	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/profiling"
)

// CompilePredicates turns declarative outlier rules into predicates. IQR
// fences are computed from the present numeric values of rs, the same
// recordset the predicates are then evaluated against.
func CompilePredicates(rs ingestion.Recordset, rules profiling.OutlierRules) (map[string]profiling.OutlierPredicate, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	fields := make([]string, 0, len(rules))
	for f := range rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	predicates := make(map[string]profiling.OutlierPredicate, len(rules))
	for _, field := range fields {
		rule := rules[field]
		if rule.IsEmpty() {
			continue
		}
		if _, err := rs.RequireField(field); err != nil {
			return nil, err
		}

		low, high := math.Inf(-1), math.Inf(1)
		if rule.Min != nil {
			low = *rule.Min
		}
		if rule.Max != nil {
			high = *rule.Max
		}

		if rule.IQR > 0 {
			q1, q3, ok, err := fieldQuartiles(rs, field)
			if err != nil {
				return nil, err
			}
			if ok {
				iqr := q3 - q1
				low = math.Max(low, q1-rule.IQR*iqr)
				high = math.Min(high, q3+rule.IQR*iqr)
			}
		}

		predicates[field] = profiling.Outside(low, high)
	}
	return predicates, nil
}

// fieldQuartiles returns Q1 and Q3 of the present numeric values of field;
// ok is false when the field has none
func fieldQuartiles(rs ingestion.Recordset, field string) (float64, float64, bool, error) {
	var data []float64
	for _, v := range rs.Column(field) {
		if n, ok := v.AsFloat64(); ok {
			data = append(data, n)
		}
	}
	if len(data) == 0 {
		return 0, 0, false, nil
	}
	q1, q3, err := quartiles(data)
	if err != nil {
		return 0, 0, false, err
	}
	return q1, q3, true, nil
}
