package preparation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/profiling"
)

func TestPlanValidate(t *testing.T) {
	lo, hi := 10.0, 0.0

	tests := []struct {
		name    string
		mutate  func(p *Plan)
		wantErr bool
	}{
		{"default plan", func(p *Plan) {}, false},
		{"unknown scope", func(p *Plan) { p.FitScope = "everything" }, true},
		{"fill without field", func(p *Plan) { p.Fill = []FillSpec{{Strategy: "median"}} }, true},
		{"unknown strategy", func(p *Plan) { p.Fill = []FillSpec{{Field: "age", Strategy: "knn"}} }, true},
		{"scale without field", func(p *Plan) { p.Scale = []ScaleSpec{{Method: "minmax"}} }, true},
		{"unknown scale method", func(p *Plan) { p.Scale = []ScaleSpec{{Field: "age", Method: "log"}} }, true},
		{"inverted bounds", func(p *Plan) {
			p.Outliers = profiling.OutlierRules{"age": {Min: &lo, Max: &hi}}
		}, true},
		{"negative iqr", func(p *Plan) {
			p.Outliers = profiling.OutlierRules{"age": {IQR: -1}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPlan()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFillSpecConstantValues(t *testing.T) {
	tests := []struct {
		raw  interface{}
		want ingestion.Value
	}{
		{28, ingestion.NewIntegerValue(28)},
		{json.Number("28"), ingestion.NewIntegerValue(28)},
		{json.Number("2.5"), ingestion.NewFloatValue(2.5)},
		{2.5, ingestion.NewFloatValue(2.5)},
		{"unknown", ingestion.NewTextValue("unknown")},
		{nil, ingestion.NewMissingValue()},
	}

	for _, tt := range tests {
		s, err := FillSpec{Field: "x", Strategy: "constant", Value: tt.raw}.ToStrategy()
		require.NoError(t, err)
		assert.Equal(t, StrategyConstant, s.Kind)
		assert.True(t, tt.want.Equal(s.Constant), "raw %v", tt.raw)
	}
}

func TestScalerStateApply(t *testing.T) {
	mm := ScalerState{Field: "age", Method: ScaleMinMax, Min: 20, Max: 120}
	assert.InDelta(t, 0.0, mm.Apply(20), 1e-12)
	assert.InDelta(t, 1.0, mm.Apply(120), 1e-12)
	assert.InDelta(t, 1.5, mm.Apply(170), 1e-12, "unseen values are not clipped")
	assert.Equal(t, "age_scaled", mm.Target())

	z := ScalerState{Field: "age", Method: ScaleStandard, Mean: 50, StdDev: 10}
	assert.InDelta(t, -1.0, z.Apply(40), 1e-12)
}

func TestParseFitScope(t *testing.T) {
	s, err := ParseFitScope("")
	require.NoError(t, err)
	assert.Equal(t, FitOnTrain, s)

	s, err = ParseFitScope("FULL")
	require.NoError(t, err)
	assert.Equal(t, FitOnFull, s)

	_, err = ParseFitScope("test")
	assert.Error(t, err)
}
