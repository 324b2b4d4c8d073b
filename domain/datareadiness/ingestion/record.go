package ingestion

import (
	"fmt"

	"tabprep/domain/core"
)

// Field is one named cell of a record
type Field struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// NewField pairs a field name with a value
func NewField(name string, value Value) Field {
	return Field{Name: name, Value: value}
}

// Record is an ordered, immutable mapping from field name to value
type Record struct {
	fields []Field
}

// NewRecord builds a record, rejecting empty or repeated field names
func NewRecord(fields ...Field) (Record, error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return Record{}, fmt.Errorf("record field name cannot be empty")
		}
		if seen[f.Name] {
			return Record{}, fmt.Errorf("record field %q appears more than once", f.Name)
		}
		seen[f.Name] = true
	}
	return Record{fields: append([]Field(nil), fields...)}, nil
}

// MustRecord is NewRecord for literals known to be valid
func MustRecord(fields ...Field) Record {
	r, err := NewRecord(fields...)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of fields
func (r Record) Len() int { return len(r.fields) }

// Names returns the field names in record order
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the record's fields
func (r Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Get returns the value for name and whether the field exists
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether the record carries the field
func (r Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// With returns a copy of the record with name set to value. Existing fields
// keep their position; new fields are appended.
func (r Record) With(name string, value Value) Record {
	out := make([]Field, len(r.fields), len(r.fields)+1)
	copy(out, r.fields)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return Record{fields: out}
		}
	}
	return Record{fields: append(out, Field{Name: name, Value: value})}
}

// Equal reports whether both records carry the same field set with equal values
func (r Record) Equal(other Record) bool {
	if len(r.fields) != len(other.fields) {
		return false
	}
	for _, f := range r.fields {
		v, ok := other.Get(f.Name)
		if !ok || !f.Value.Equal(v) {
			return false
		}
	}
	return true
}

// Hash fingerprints the record; Equal records always hash identically
func (r Record) Hash() core.RecordHash {
	canon := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		canon[f.Name] = f.Value.Canonical()
	}
	return core.ComputeRecordHash(canon)
}
