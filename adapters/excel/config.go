package excel

import (
	"tabprep/adapters/datareadiness/coercer"
)

// ReaderConfig holds configuration for file loading
type ReaderConfig struct {
	Sheet          string                 `json:"sheet"` // XLSX sheet; empty selects the first sheet
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
}

// DefaultReaderConfig returns sensible defaults for file loading
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
