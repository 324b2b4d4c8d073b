package preparation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/profiling"
)

// Plan describes one end-to-end preparation run
type Plan struct {
	Dedupe       bool                   `json:"dedupe" yaml:"dedupe"`
	Outliers     profiling.OutlierRules `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	Fill         []FillSpec             `json:"fill,omitempty" yaml:"fill,omitempty"`
	Scale        []ScaleSpec            `json:"scale,omitempty" yaml:"scale,omitempty"`
	TestFraction float64                `json:"test_fraction" yaml:"test_fraction"`
	Seed         int64                  `json:"seed" yaml:"seed"`
	FitScope     FitScope               `json:"fit_scope" yaml:"fit_scope"`
}

// FillSpec is the declarative form of a FillStrategy for one field
type FillSpec struct {
	Field    string      `json:"field" yaml:"field"`
	Strategy string      `json:"strategy" yaml:"strategy"`
	Value    interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

// ScaleSpec requests a derived scaled field
type ScaleSpec struct {
	Field  string `json:"field" yaml:"field"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

// DefaultPlan mirrors a typical 80/20 preparation with leakage-free fitting
func DefaultPlan() Plan {
	return Plan{
		Dedupe:       true,
		TestFraction: 0.2,
		Seed:         42,
		FitScope:     FitOnTrain,
	}
}

// Validate checks the plan for structural problems before any data is touched
func (p *Plan) Validate() error {
	if _, err := ParseFitScope(string(p.FitScope)); err != nil {
		return err
	}
	for i, f := range p.Fill {
		if f.Field == "" {
			return fmt.Errorf("fill[%d]: field is required", i)
		}
		if _, err := f.ToStrategy(); err != nil {
			return fmt.Errorf("fill[%d]: %w", i, err)
		}
	}
	for i, s := range p.Scale {
		if s.Field == "" {
			return fmt.Errorf("scale[%d]: field is required", i)
		}
		if _, err := ParseScaleMethod(s.Method); err != nil {
			return fmt.Errorf("scale[%d]: %w", i, err)
		}
	}
	for field, rule := range p.Outliers {
		if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
			return fmt.Errorf("outliers[%s]: min %g exceeds max %g", field, *rule.Min, *rule.Max)
		}
		if rule.IQR < 0 {
			return fmt.Errorf("outliers[%s]: iqr multiplier must not be negative", field)
		}
	}
	return nil
}

// ToStrategy converts the declarative entry into a FillStrategy
func (f FillSpec) ToStrategy() (FillStrategy, error) {
	switch StrategyKind(strings.ToLower(strings.TrimSpace(f.Strategy))) {
	case StrategyMedian:
		return Median(), nil
	case StrategyMean:
		return Mean(), nil
	case StrategyMode:
		return Mode(), nil
	case StrategyConstant:
		v, err := ValueOf(f.Value)
		if err != nil {
			return FillStrategy{}, err
		}
		return Constant(v), nil
	}
	return FillStrategy{}, fmt.Errorf("unknown fill strategy %q", f.Strategy)
}

// ValueOf converts a decoded YAML or JSON scalar into a Value
func ValueOf(raw interface{}) (ingestion.Value, error) {
	switch v := raw.(type) {
	case nil:
		return ingestion.NewMissingValue(), nil
	case int:
		return ingestion.NewIntegerValue(int64(v)), nil
	case int64:
		return ingestion.NewIntegerValue(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return ingestion.NewFloatValue(float64(v)), nil
		}
		return ingestion.NewIntegerValue(int64(v)), nil
	case float64:
		return ingestion.NewFloatValue(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return ingestion.NewIntegerValue(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return ingestion.Value{}, fmt.Errorf("invalid number %q", v.String())
		}
		return ingestion.NewFloatValue(f), nil
	case string:
		return ingestion.NewTextValue(v), nil
	case bool:
		return ingestion.NewTextValue(fmt.Sprintf("%t", v)), nil
	}
	return ingestion.Value{}, fmt.Errorf("unsupported constant of type %T", raw)
}
