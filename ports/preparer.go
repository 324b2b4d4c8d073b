package ports

import (
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/preparation"
)

// CleanerPort removes duplicates and imputes missing values. Every method
// returns a new recordset and leaves its input untouched.
type CleanerPort interface {
	Deduplicate(rs ingestion.Recordset) (ingestion.Recordset, error)
	FitFill(rs ingestion.Recordset, field string, strategy preparation.FillStrategy) (preparation.FillState, error)
	ApplyFill(rs ingestion.Recordset, state preparation.FillState) (ingestion.Recordset, error)
	FillMissing(rs ingestion.Recordset, field string, strategy preparation.FillStrategy) (ingestion.Recordset, error)
}

// ScalerPort fits and applies scaling transforms
type ScalerPort interface {
	Fit(rs ingestion.Recordset, field string, method preparation.ScaleMethod) (preparation.ScalerState, error)
	Transform(rs ingestion.Recordset, state preparation.ScalerState) (ingestion.Recordset, error)
	Scale(rs ingestion.Recordset, field string, method preparation.ScaleMethod) (ingestion.Recordset, preparation.ScalerState, error)
}

// SplitterPort partitions a recordset into training and evaluation subsets
type SplitterPort interface {
	Split(rs ingestion.Recordset, testFraction float64, seed int64) (train, test ingestion.Recordset, err error)
}
