package scaler

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"tabprep/domain/core"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/preparation"
)

// Scaler implements ScalerPort
type Scaler struct{}

// NewScaler creates a scaler
func NewScaler() *Scaler {
	return &Scaler{}
}

// Scale fits method on field and writes the scaled values to <field>_scaled
func (s *Scaler) Scale(rs ingestion.Recordset, field string, method preparation.ScaleMethod) (ingestion.Recordset, preparation.ScalerState, error) {
	state, err := s.Fit(rs, field, method)
	if err != nil {
		return ingestion.Recordset{}, preparation.ScalerState{}, err
	}
	out, err := s.Transform(rs, state)
	if err != nil {
		return ingestion.Recordset{}, preparation.ScalerState{}, err
	}
	return out, state, nil
}

// Fit computes scaling parameters from the present values of field
func (s *Scaler) Fit(rs ingestion.Recordset, field string, method preparation.ScaleMethod) (preparation.ScalerState, error) {
	if _, err := rs.RequireField(field); err != nil {
		return preparation.ScalerState{}, err
	}
	if method == "" {
		method = preparation.ScaleMinMax
	}

	data, err := presentNumbers(field, string(method), rs.Column(field))
	if err != nil {
		return preparation.ScalerState{}, err
	}

	state := preparation.ScalerState{
		Field:  field,
		Method: method,
		Min:    floats.Min(data),
		Max:    floats.Max(data),
	}
	state.Mean, state.StdDev = popMeanStdDev(data)

	switch method {
	case preparation.ScaleMinMax:
		if state.Max == state.Min {
			return preparation.ScalerState{}, core.NewDegenerateRangeError(field, state.Min)
		}
	case preparation.ScaleStandard:
		if state.StdDev == 0 || math.IsInf(state.StdDev, 0) || math.IsNaN(state.StdDev) {
			return preparation.ScalerState{}, core.NewDegenerateRangeError(field, state.Mean)
		}
	default:
		return preparation.ScalerState{}, core.NewUnsupportedStrategyError(field, string(method), "unknown scale method")
	}

	return state, nil
}

// Transform applies fitted parameters to rs. Values outside the fitted
// range map outside [0, 1]; they are not clipped.
func (s *Scaler) Transform(rs ingestion.Recordset, state preparation.ScalerState) (ingestion.Recordset, error) {
	if _, err := rs.RequireField(state.Field); err != nil {
		return ingestion.Recordset{}, err
	}
	for _, v := range rs.Column(state.Field) {
		if v.IsText() {
			return ingestion.Recordset{}, core.NewUnsupportedStrategyError(state.Field, string(state.Method), "field holds text values")
		}
	}

	target := state.Target()
	return rs.Map(func(_ int, rec ingestion.Record) ingestion.Record {
		v, _ := rec.Get(state.Field)
		n, ok := v.AsFloat64()
		if !ok {
			return rec.With(target, ingestion.NewMissingValue())
		}
		return rec.With(target, ingestion.NewFloatValue(state.Apply(n)))
	}), nil
}

// popMeanStdDev is stat.PopMeanStdDev that survives values whose squares
// overflow: on a non-finite result the data is rescaled by a power of two
// (exact) and the statistics are scaled back.
func popMeanStdDev(data []float64) (float64, float64) {
	mean, std := stat.PopMeanStdDev(data, nil)
	if isFinite(mean) && isFinite(std) {
		return mean, std
	}

	_, exp := math.Frexp(floats.Norm(data, math.Inf(1)))
	scaled := make([]float64, len(data))
	floats.ScaleTo(scaled, math.Ldexp(1, -exp), data)
	mean, std = stat.PopMeanStdDev(scaled, nil)
	return math.Ldexp(mean, exp), math.Ldexp(std, exp)
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func presentNumbers(field, method string, column []ingestion.Value) ([]float64, error) {
	data := make([]float64, 0, len(column))
	for _, v := range column {
		if v.IsText() {
			return nil, core.NewUnsupportedStrategyError(field, method, "field holds text values")
		}
		if n, ok := v.AsFloat64(); ok {
			data = append(data, n)
		}
	}
	if len(data) == 0 {
		return nil, core.NewEmptyFieldError(field)
	}
	return data, nil
}
