package cleaner

import (
	"math"

	"github.com/montanaflynn/stats"

	"tabprep/domain/core"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/preparation"
)

// Cleaner implements CleanerPort: duplicate removal and missing-value imputation
type Cleaner struct{}

// NewCleaner creates a cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Deduplicate drops every record equal to an earlier one. Survivors keep
// their relative order, so the first occurrence of each group is retained.
func (c *Cleaner) Deduplicate(rs ingestion.Recordset) (ingestion.Recordset, error) {
	if _, err := rs.Schema(); err != nil {
		return ingestion.Recordset{}, err
	}

	grouper := ingestion.NewDuplicateGrouper()
	keep := make([]int, 0, rs.Len())
	for i := 0; i < rs.Len(); i++ {
		if !grouper.Add(i, rs.At(i)) {
			keep = append(keep, i)
		}
	}
	return rs.Select(keep), nil
}

// FillMissing fits strategy on field and replaces its missing values
func (c *Cleaner) FillMissing(rs ingestion.Recordset, field string, strategy preparation.FillStrategy) (ingestion.Recordset, error) {
	state, err := c.FitFill(rs, field, strategy)
	if err != nil {
		return ingestion.Recordset{}, err
	}
	return c.ApplyFill(rs, state)
}

// FitFill computes the replacement value for field without touching rs
func (c *Cleaner) FitFill(rs ingestion.Recordset, field string, strategy preparation.FillStrategy) (preparation.FillState, error) {
	if _, err := rs.RequireField(field); err != nil {
		return preparation.FillState{}, err
	}

	var (
		value ingestion.Value
		err   error
	)
	switch strategy.Kind {
	case preparation.StrategyConstant:
		if strategy.Constant.Absent() {
			return preparation.FillState{}, core.NewUnsupportedStrategyError(field, strategy.String(), "constant must be a present value")
		}
		value = strategy.Constant
	case preparation.StrategyMode:
		value, err = modeOf(field, rs.Column(field))
	case preparation.StrategyMedian, preparation.StrategyMean:
		value, err = numericStatistic(field, strategy.Kind, rs.Column(field))
	default:
		return preparation.FillState{}, core.NewUnsupportedStrategyError(field, strategy.String(), "unknown strategy")
	}
	if err != nil {
		return preparation.FillState{}, err
	}

	return preparation.FillState{
		Field:    field,
		Strategy: strategy.String(),
		Value:    value,
	}, nil
}

// ApplyFill replaces the missing values of state.Field with state.Value
func (c *Cleaner) ApplyFill(rs ingestion.Recordset, state preparation.FillState) (ingestion.Recordset, error) {
	if _, err := rs.RequireField(state.Field); err != nil {
		return ingestion.Recordset{}, err
	}
	if state.Value.Absent() {
		return ingestion.Recordset{}, core.NewUnsupportedStrategyError(state.Field, state.Strategy, "fill value is missing")
	}

	return rs.Map(func(_ int, rec ingestion.Record) ingestion.Record {
		if v, _ := rec.Get(state.Field); v.Absent() {
			return rec.With(state.Field, state.Value)
		}
		return rec
	}), nil
}

// numericStatistic computes the median or mean of the present values. The
// result is an integer when every present value is one and the statistic
// has no fractional part.
func numericStatistic(field string, kind preparation.StrategyKind, column []ingestion.Value) (ingestion.Value, error) {
	data := make([]float64, 0, len(column))
	allInts := true
	for _, v := range column {
		if v.Absent() {
			continue
		}
		if v.IsText() {
			return ingestion.Value{}, core.NewUnsupportedStrategyError(field, string(kind), "field holds text values")
		}
		if !v.IsInteger() {
			allInts = false
		}
		n, _ := v.AsFloat64()
		data = append(data, n)
	}
	if len(data) == 0 {
		return ingestion.Value{}, core.NewEmptyFieldError(field)
	}

	var (
		result float64
		err    error
	)
	if kind == preparation.StrategyMedian {
		result, err = stats.Median(data)
	} else {
		result, err = stats.Mean(data)
	}
	if err != nil {
		return ingestion.Value{}, err
	}

	if allInts && result == math.Trunc(result) && math.Abs(result) < 1<<53 {
		return ingestion.NewIntegerValue(int64(result)), nil
	}
	return ingestion.NewFloatValue(result), nil
}

// modeOf returns the most frequent present value; ties go to the value seen first
func modeOf(field string, column []ingestion.Value) (ingestion.Value, error) {
	counts := make(map[string]int)
	firstSeen := make(map[string]ingestion.Value)
	var order []string

	for _, v := range column {
		if v.Absent() {
			continue
		}
		key := v.Canonical()
		if _, ok := firstSeen[key]; !ok {
			firstSeen[key] = v
			order = append(order, key)
		}
		counts[key]++
	}
	if len(order) == 0 {
		return ingestion.Value{}, core.NewEmptyFieldError(field)
	}

	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return firstSeen[best], nil
}
