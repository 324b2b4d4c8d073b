package coercer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"tabprep/domain/datareadiness/ingestion"
)

// TypeCoercer turns raw cell text into typed values, one column at a time
type TypeCoercer struct {
	config  CoercionConfig
	markers map[string]bool
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	MissingMarkers   []string `json:"missing_markers"`   // compared case-insensitively after trimming
	NormalizeStrings bool     `json:"normalize_strings"` // NFC-normalise and strip control characters
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		MissingMarkers:   []string{"", "na", "nan", "null", "<nil>"},
		NormalizeStrings: true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	markers := make(map[string]bool, len(config.MissingMarkers))
	for _, m := range config.MissingMarkers {
		markers[strings.ToLower(strings.TrimSpace(m))] = true
	}
	return &TypeCoercer{config: config, markers: markers}
}

// CoerceValue converts a single cell on its own: integer, then float, then text
func (c *TypeCoercer) CoerceValue(raw string) ingestion.Value {
	s := c.clean(raw)
	if c.IsMissing(s) {
		return ingestion.NewMissingValue()
	}
	if n, ok := parseInteger(s); ok {
		return ingestion.NewIntegerValue(n)
	}
	if f, ok := parseFloat(s); ok {
		return ingestion.NewFloatValue(f)
	}
	return ingestion.NewTextValue(s)
}

// IsMissing reports whether a cleaned cell is one of the missing markers
func (c *TypeCoercer) IsMissing(s string) bool {
	return c.markers[strings.ToLower(s)]
}

// AnalyzeTypeDistribution counts how the present cells of a column parse
func (c *TypeCoercer) AnalyzeTypeDistribution(cells []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(cells)}

	for _, raw := range cells {
		s := c.clean(raw)
		if c.IsMissing(s) {
			continue
		}
		analysis.PresentCount++
		if _, ok := parseInteger(s); ok {
			analysis.IntegerCount++
			analysis.FloatCount++
			continue
		}
		if _, ok := parseFloat(s); ok {
			analysis.FloatCount++
		}
	}

	analysis.RecommendedType = determineRecommendedType(analysis)
	return analysis
}

// CoerceColumn converts a whole column to one value type. A column is
// integer if every present cell parses as int64, float if every present cell
// parses as a finite float, and text otherwise.
func (c *TypeCoercer) CoerceColumn(cells []string) []ingestion.Value {
	kind := c.AnalyzeTypeDistribution(cells).RecommendedType

	out := make([]ingestion.Value, len(cells))
	for i, raw := range cells {
		s := c.clean(raw)
		if c.IsMissing(s) {
			out[i] = ingestion.NewMissingValue()
			continue
		}
		switch kind {
		case ingestion.ValueTypeInteger:
			n, _ := parseInteger(s)
			out[i] = ingestion.NewIntegerValue(n)
		case ingestion.ValueTypeFloat:
			f, _ := parseFloat(s)
			out[i] = ingestion.NewFloatValue(f)
		default:
			out[i] = ingestion.NewTextValue(s)
		}
	}
	return out
}

// BuildRecordset types each column of a header-plus-rows table and assembles
// the records. Short rows are padded with missing values; long rows and
// invalid headers are errors.
func (c *TypeCoercer) BuildRecordset(header []string, rows [][]string) (ingestion.Recordset, error) {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := c.clean(h)
		if name == "" {
			return ingestion.Recordset{}, fmt.Errorf("column %d has an empty header", i+1)
		}
		if seen[name] {
			return ingestion.Recordset{}, fmt.Errorf("duplicate column header %q", name)
		}
		seen[name] = true
		names[i] = name
	}
	if len(names) == 0 {
		return ingestion.Recordset{}, fmt.Errorf("header row is empty")
	}

	columns := make([][]string, len(names))
	for r, row := range rows {
		if len(row) > len(names) {
			return ingestion.Recordset{}, fmt.Errorf("row %d has %d cells but the header has %d", r+1, len(row), len(names))
		}
		for col := range names {
			cell := ""
			if col < len(row) {
				cell = row[col]
			}
			columns[col] = append(columns[col], cell)
		}
	}

	typed := make([][]ingestion.Value, len(names))
	for col := range names {
		typed[col] = c.CoerceColumn(columns[col])
	}

	records := make([]ingestion.Record, len(rows))
	for r := range rows {
		fields := make([]ingestion.Field, len(names))
		for col, name := range names {
			fields[col] = ingestion.NewField(name, typed[col][r])
		}
		rec, err := ingestion.NewRecord(fields...)
		if err != nil {
			return ingestion.Recordset{}, fmt.Errorf("row %d: %w", r+1, err)
		}
		records[r] = rec
	}
	return ingestion.NewRecordset(records...), nil
}

// clean trims a cell and, when configured, normalises it to NFC and removes
// control characters
func (c *TypeCoercer) clean(s string) string {
	s = strings.TrimSpace(s)
	if !c.config.NormalizeStrings {
		return s
	}
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

func parseInteger(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// determineRecommendedType chooses the narrowest type every present cell fits
func determineRecommendedType(analysis TypeAnalysis) ingestion.ValueType {
	switch {
	case analysis.PresentCount == 0:
		return ingestion.ValueTypeMissing
	case analysis.IntegerCount == analysis.PresentCount:
		return ingestion.ValueTypeInteger
	case analysis.FloatCount == analysis.PresentCount:
		return ingestion.ValueTypeFloat
	}
	return ingestion.ValueTypeText
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int                 `json:"total_count"`
	PresentCount    int                 `json:"present_count"`
	IntegerCount    int                 `json:"integer_count"`
	FloatCount      int                 `json:"float_count"` // includes integers
	RecommendedType ingestion.ValueType `json:"recommended_type"`
}
