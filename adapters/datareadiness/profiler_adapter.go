package datareadiness

import (
	"github.com/montanaflynn/stats"

	"tabprep/domain/core"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/profiling"
)

// ProfilerAdapter implements ProfilerPort for data profiling
type ProfilerAdapter struct{}

// NewProfilerAdapter creates a new profiler adapter
func NewProfilerAdapter() *ProfilerAdapter {
	return &ProfilerAdapter{}
}

// ProfileFields analyzes every field of the recordset in schema order
func (p *ProfilerAdapter) ProfileFields(rs ingestion.Recordset) ([]profiling.FieldProfile, error) {
	if rs.IsEmpty() {
		return nil, core.ErrEmptyRecordset
	}
	fields, err := rs.Schema()
	if err != nil {
		return nil, err
	}

	profiles := make([]profiling.FieldProfile, len(fields))
	for i, field := range fields {
		profile, err := p.profileField(field, rs.Column(field))
		if err != nil {
			return nil, err
		}
		profiles[i] = profile
	}
	return profiles, nil
}

// profileField analyzes a single column
func (p *ProfilerAdapter) profileField(field string, column []ingestion.Value) (profiling.FieldProfile, error) {
	profile := profiling.FieldProfile{Field: field}

	distinct := make(map[string]struct{})
	var numbers []float64
	intCount, floatCount, textCount := 0, 0, 0

	for _, v := range column {
		if v.Absent() {
			profile.AbsentCount++
			continue
		}
		profile.PresentCount++
		distinct[v.Canonical()] = struct{}{}

		switch {
		case v.IsInteger():
			intCount++
		case v.IsText():
			textCount++
			continue
		default:
			floatCount++
		}
		n, _ := v.AsFloat64()
		numbers = append(numbers, n)
	}

	profile.DistinctCount = len(distinct)
	if len(column) > 0 {
		profile.MissingRate = float64(profile.AbsentCount) / float64(len(column))
	}
	profile.InferredType = inferType(intCount, floatCount, textCount)

	if profile.IsNumeric() {
		numeric, err := computeNumericStats(numbers)
		if err != nil {
			return profile, err
		}
		profile.NumericStats = numeric
	}

	return profile, nil
}

// inferType determines the field type from per-kind counts
func inferType(ints, floats, texts int) profiling.InferredType {
	switch {
	case ints+floats+texts == 0:
		return profiling.TypeEmpty
	case texts > 0 && ints+floats > 0:
		return profiling.TypeMixed
	case texts > 0:
		return profiling.TypeText
	case floats == 0:
		return profiling.TypeInteger
	case ints == 0:
		return profiling.TypeFloat
	}
	return profiling.TypeNumeric
}

// computeNumericStats calculates summary statistics for present numeric values
func computeNumericStats(data []float64) (*profiling.NumericStats, error) {
	min, err := stats.Min(data)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return nil, err
	}
	q1, q3, err := quartiles(data)
	if err != nil {
		return nil, err
	}

	return &profiling.NumericStats{
		Min:    min,
		Max:    max,
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Q1:     q1,
		Q3:     q3,
	}, nil
}

// quartiles returns the lower and upper quartile. A single value is its own
// quartile; stats.Quartile would report NaN for the empty lower half.
func quartiles(data []float64) (float64, float64, error) {
	if len(data) == 1 {
		return data[0], data[0], nil
	}
	q, err := stats.Quartile(data)
	if err != nil {
		return 0, 0, err
	}
	return q.Q1, q.Q3, nil
}
