package ports

import (
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/profiling"
)

// ValidatorPort inspects a recordset without modifying it
type ValidatorPort interface {
	Validate(rs ingestion.Recordset, predicates map[string]profiling.OutlierPredicate) (*profiling.ValidationReport, error)
	CompileRules(rs ingestion.Recordset, rules profiling.OutlierRules) (map[string]profiling.OutlierPredicate, error)
}

// ProfilerPort computes per-field statistical profiles
type ProfilerPort interface {
	ProfileFields(rs ingestion.Recordset) ([]profiling.FieldProfile, error)
}
