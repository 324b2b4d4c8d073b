package ingestion

import (
	"fmt"

	"tabprep/domain/core"
)

// Recordset is an ordered sequence of records sharing one field schema.
// A Recordset is never modified after construction; transformations build
// a new one.
type Recordset struct {
	records []Record
}

// NewRecordset copies records into a new recordset
func NewRecordset(records ...Record) Recordset {
	return Recordset{records: append([]Record(nil), records...)}
}

// Len returns the number of records
func (rs Recordset) Len() int { return len(rs.records) }

// IsEmpty reports whether the recordset has no records
func (rs Recordset) IsEmpty() bool { return len(rs.records) == 0 }

// At returns the record at index i
func (rs Recordset) At(i int) Record { return rs.records[i] }

// Records returns a copy of the record slice
func (rs Recordset) Records() []Record {
	return append([]Record(nil), rs.records...)
}

// Schema returns the shared field names in the first record's order. It
// fails with core.ErrSchemaMismatch if any record's field set differs.
func (rs Recordset) Schema() ([]string, error) {
	if len(rs.records) == 0 {
		return nil, nil
	}
	first := rs.records[0]
	names := first.Names()
	for i := 1; i < len(rs.records); i++ {
		rec := rs.records[i]
		for _, name := range names {
			if !rec.Has(name) {
				return nil, core.NewSchemaMismatchError(i, fmt.Sprintf("is missing field %q", name))
			}
		}
		if rec.Len() != len(names) {
			for _, name := range rec.Names() {
				if !first.Has(name) {
					return nil, core.NewSchemaMismatchError(i, fmt.Sprintf("has unexpected field %q", name))
				}
			}
		}
	}
	return names, nil
}

// RequireField checks the schema and that it contains field
func (rs Recordset) RequireField(field string) ([]string, error) {
	names, err := rs.Schema()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if name == field {
			return names, nil
		}
	}
	return nil, core.NewUnknownFieldError(field)
}

// Column returns the values of field in record order. Callers must have
// checked the field with RequireField.
func (rs Recordset) Column(field string) []Value {
	col := make([]Value, len(rs.records))
	for i, rec := range rs.records {
		col[i], _ = rec.Get(field)
	}
	return col
}

// Select builds a recordset from the records at the given indices
func (rs Recordset) Select(indices []int) Recordset {
	out := make([]Record, len(indices))
	for i, idx := range indices {
		out[i] = rs.records[idx]
	}
	return Recordset{records: out}
}

// Map builds a recordset by transforming every record
func (rs Recordset) Map(fn func(i int, rec Record) Record) Recordset {
	out := make([]Record, len(rs.records))
	for i, rec := range rs.records {
		out[i] = fn(i, rec)
	}
	return Recordset{records: out}
}

// Equal reports whether both recordsets hold Equal records in the same order
func (rs Recordset) Equal(other Recordset) bool {
	if len(rs.records) != len(other.records) {
		return false
	}
	for i := range rs.records {
		if !rs.records[i].Equal(other.records[i]) {
			return false
		}
	}
	return true
}
