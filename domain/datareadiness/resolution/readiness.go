package resolution

import (
	"fmt"

	"tabprep/domain/datareadiness/profiling"
)

// ReadinessGate checks field profiles for conditions that make a field a
// poor model input or that will make a preparation step fail
type ReadinessGate struct {
	config GateConfig
}

// GateConfig defines the readiness thresholds
type GateConfig struct {
	MaxMissingRate     float64 `json:"max_missing_rate"`      // fields above this are rejected
	MinPresentCount    int     `json:"min_present_count"`     // fewer present values are rejected
	MinStdDev          float64 `json:"min_std_dev"`           // numeric fields below this cannot be scaled
	MaxTextUniqueRatio float64 `json:"max_text_unique_ratio"` // text fields above this look like identifiers
}

// DefaultGateConfig returns sensible defaults for readiness gates
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxMissingRate:     0.95,
		MinPresentCount:    1,
		MinStdDev:          1e-10,
		MaxTextUniqueRatio: 0.9,
	}
}

// NewReadinessGate creates a gate with config
func NewReadinessGate(config GateConfig) *ReadinessGate {
	return &ReadinessGate{config: config}
}

// EvaluateReadiness evaluates every profiled field
func (g *ReadinessGate) EvaluateReadiness(profiles []profiling.FieldProfile) ReadinessResult {
	result := ReadinessResult{
		TotalFields:    len(profiles),
		ReadyFields:    []FieldEvaluation{},
		RejectedFields: []FieldEvaluation{},
	}

	for _, profile := range profiles {
		evaluation := g.evaluateProfile(profile)

		if evaluation.Ready {
			result.ReadyFields = append(result.ReadyFields, evaluation)
		} else {
			result.RejectedFields = append(result.RejectedFields, evaluation)
		}
	}

	result.ReadyCount = len(result.ReadyFields)
	result.RejectedCount = len(result.RejectedFields)

	return result
}

// evaluateProfile evaluates a single profile against readiness criteria
func (g *ReadinessGate) evaluateProfile(profile profiling.FieldProfile) FieldEvaluation {
	eval := FieldEvaluation{
		Field:      profile.Field,
		Ready:      true,
		Rejections: make([]RejectionReason, 0),
	}

	if profile.PresentCount < g.config.MinPresentCount {
		eval.reject("insufficient_values", "error",
			fmt.Sprintf("%d present values < minimum %d", profile.PresentCount, g.config.MinPresentCount))
	}

	if profile.MissingRate > g.config.MaxMissingRate {
		eval.reject("excessive_missing_rate", "error",
			fmt.Sprintf("Missing rate %.1f%% > maximum %.1f%%", profile.MissingRate*100, g.config.MaxMissingRate*100))
	}

	// Warnings leave the field usable
	if profile.IsNumeric() && profile.NumericStats != nil && profile.NumericStats.StdDev < g.config.MinStdDev {
		eval.warn("constant_value", fmt.Sprintf("Standard deviation %.2e < minimum %.2e; scaling will fail",
			profile.NumericStats.StdDev, g.config.MinStdDev))
	}

	if profile.InferredType == profiling.TypeMixed {
		eval.warn("mixed_types", "Numbers and text mixed; median and mean fills are unavailable")
	}

	if profile.InferredType == profiling.TypeText && profile.PresentCount > 1 {
		ratio := float64(profile.DistinctCount) / float64(profile.PresentCount)
		if ratio > g.config.MaxTextUniqueRatio {
			eval.warn("identifier_like", fmt.Sprintf("%.0f%% of text values are distinct", ratio*100))
		}
	}

	return eval
}

func (e *FieldEvaluation) reject(rule, severity, message string) {
	e.Rejections = append(e.Rejections, RejectionReason{Rule: rule, Message: message, Severity: severity})
	if severity == "error" {
		e.Ready = false
	}
}

func (e *FieldEvaluation) warn(rule, message string) {
	e.reject(rule, "warning", message)
}

// ReadinessResult contains the outcome of readiness evaluation
type ReadinessResult struct {
	TotalFields    int               `json:"total_fields"`
	ReadyCount     int               `json:"ready_count"`
	RejectedCount  int               `json:"rejected_count"`
	ReadyFields    []FieldEvaluation `json:"ready_fields"`
	RejectedFields []FieldEvaluation `json:"rejected_fields"`
}

// FieldEvaluation contains the evaluation of a single field
type FieldEvaluation struct {
	Field      string            `json:"field"`
	Ready      bool              `json:"ready"`
	Rejections []RejectionReason `json:"rejections,omitempty"`
}

// RejectionReason explains why a field was rejected or flagged
type RejectionReason struct {
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning"
}

// Summary provides a human-readable summary of readiness results
func (r *ReadinessResult) Summary() string {
	if r.TotalFields == 0 {
		return "Readiness Evaluation: no fields"
	}
	return fmt.Sprintf("Readiness Evaluation: %d/%d fields ready (%.1f%%)",
		r.ReadyCount, r.TotalFields, float64(r.ReadyCount)/float64(r.TotalFields)*100)
}

// GetRejectedReasons counts the rules that rejected fields
func (r *ReadinessResult) GetRejectedReasons() map[string]int {
	reasons := make(map[string]int)

	for _, rejected := range r.RejectedFields {
		for _, rejection := range rejected.Rejections {
			reasons[rejection.Rule]++
		}
	}

	return reasons
}
