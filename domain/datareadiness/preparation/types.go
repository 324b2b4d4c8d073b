package preparation

import (
	"fmt"
	"math"
	"strings"

	"tabprep/domain/datareadiness/ingestion"
)

// StrategyKind names an imputation strategy
type StrategyKind string

const (
	StrategyMedian   StrategyKind = "median"
	StrategyMean     StrategyKind = "mean"
	StrategyMode     StrategyKind = "mode"
	StrategyConstant StrategyKind = "constant"
)

// FillStrategy selects how missing values of a field are replaced
type FillStrategy struct {
	Kind     StrategyKind
	Constant ingestion.Value // only for StrategyConstant
}

// Median fills with the median of present values
func Median() FillStrategy { return FillStrategy{Kind: StrategyMedian} }

// Mean fills with the arithmetic mean of present values
func Mean() FillStrategy { return FillStrategy{Kind: StrategyMean} }

// Mode fills with the most frequent present value
func Mode() FillStrategy { return FillStrategy{Kind: StrategyMode} }

// Constant fills with a fixed value
func Constant(v ingestion.Value) FillStrategy {
	return FillStrategy{Kind: StrategyConstant, Constant: v}
}

func (s FillStrategy) String() string {
	if s.Kind == StrategyConstant {
		return fmt.Sprintf("constant(%s)", s.Constant.String())
	}
	return string(s.Kind)
}

// IsStatistical reports whether the strategy derives its value from the data
func (s FillStrategy) IsStatistical() bool {
	return s.Kind != StrategyConstant
}

// FillState is a fitted fill: the value that replaces missing cells of Field
type FillState struct {
	Field    string          `json:"field"`
	Strategy string          `json:"strategy"`
	Value    ingestion.Value `json:"value"`
}

// ScaleMethod names a scaling transform
type ScaleMethod string

const (
	ScaleMinMax   ScaleMethod = "minmax"
	ScaleStandard ScaleMethod = "standard"
)

// ParseScaleMethod accepts the names used in plan files and flags
func ParseScaleMethod(s string) (ScaleMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minmax", "min-max", "min_max", "":
		return ScaleMinMax, nil
	case "standard", "zscore", "z-score":
		return ScaleStandard, nil
	}
	return "", fmt.Errorf("unknown scale method %q", s)
}

// ScaledSuffix is appended to the source field name to form the derived field
const ScaledSuffix = "_scaled"

// ScaledField returns the derived field name for field
func ScaledField(field string) string { return field + ScaledSuffix }

// ScalerState holds fitted scaling parameters so the identical transform
// can be applied to unseen data
type ScalerState struct {
	Field  string      `json:"field"`
	Method ScaleMethod `json:"method"`
	Min    float64     `json:"min"`
	Max    float64     `json:"max"`
	Mean   float64     `json:"mean"`
	StdDev float64     `json:"std_dev"`
}

// Apply transforms a single value with the fitted parameters. When a
// difference overflows, both operands are halved first; halving is exact,
// so the ratio is unchanged.
func (s ScalerState) Apply(v float64) float64 {
	if s.Method == ScaleStandard {
		d := v - s.Mean
		if math.IsInf(d, 0) {
			return (v/2 - s.Mean/2) / (s.StdDev / 2)
		}
		return d / s.StdDev
	}
	d, r := v-s.Min, s.Max-s.Min
	if math.IsInf(d, 0) || math.IsInf(r, 0) {
		d, r = v/2-s.Min/2, s.Max/2-s.Min/2
	}
	return d / r
}

// Target returns the derived field the scaler writes
func (s ScalerState) Target() string { return ScaledField(s.Field) }

// FitScope decides which slice statistics are fitted on
type FitScope string

const (
	// FitOnTrain fits fill and scale statistics on the training partition only
	FitOnTrain FitScope = "train"
	// FitOnFull fits on the whole cleaned recordset before splitting
	FitOnFull FitScope = "full"
)

// ParseFitScope validates a scope name
func ParseFitScope(s string) (FitScope, error) {
	switch FitScope(strings.ToLower(strings.TrimSpace(s))) {
	case FitOnTrain, "":
		return FitOnTrain, nil
	case FitOnFull:
		return FitOnFull, nil
	}
	return "", fmt.Errorf("unknown fit scope %q (want train or full)", s)
}
