package jsonrecords

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"tabprep/domain/datareadiness/ingestion"
)

// Decode parses either a top-level array of objects or an object whose
// "records" key holds that array. Object key order becomes field order.
func Decode(data []byte) (ingestion.Recordset, error) {
	if !gjson.ValidBytes(data) {
		return ingestion.Recordset{}, fmt.Errorf("invalid JSON document")
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.IsArray():
		return decodeArray(root)
	case root.IsObject():
		records := root.Get("records")
		if !records.IsArray() {
			return ingestion.Recordset{}, fmt.Errorf(`object must hold a "records" array`)
		}
		return decodeArray(records)
	}
	return ingestion.Recordset{}, fmt.Errorf("expected an array of records, got %s", root.Type)
}

func decodeArray(arr gjson.Result) (ingestion.Recordset, error) {
	var (
		records []ingestion.Record
		err     error
	)
	arr.ForEach(func(_, item gjson.Result) bool {
		var rec ingestion.Record
		rec, err = decodeRecord(len(records), item)
		if err != nil {
			return false
		}
		records = append(records, rec)
		return true
	})
	if err != nil {
		return ingestion.Recordset{}, err
	}
	return ingestion.NewRecordset(records...), nil
}

func decodeRecord(index int, item gjson.Result) (ingestion.Record, error) {
	if !item.IsObject() {
		return ingestion.Record{}, fmt.Errorf("record %d: expected an object", index)
	}

	var (
		fields []ingestion.Field
		err    error
	)
	item.ForEach(func(key, val gjson.Result) bool {
		var v ingestion.Value
		v, err = decodeValue(val)
		if err != nil {
			err = fmt.Errorf("record %d field %q: %w", index, key.String(), err)
			return false
		}
		fields = append(fields, ingestion.NewField(key.String(), v))
		return true
	})
	if err != nil {
		return ingestion.Record{}, err
	}

	rec, err := ingestion.NewRecord(fields...)
	if err != nil {
		return ingestion.Record{}, fmt.Errorf("record %d: %w", index, err)
	}
	return rec, nil
}

// decodeValue maps a JSON scalar to a Value. Integer literals stay integers;
// booleans become the text "true" or "false".
func decodeValue(val gjson.Result) (ingestion.Value, error) {
	switch val.Type {
	case gjson.Null:
		return ingestion.NewMissingValue(), nil
	case gjson.String:
		return ingestion.NewTextValue(val.Str), nil
	case gjson.True, gjson.False:
		return ingestion.NewTextValue(val.Raw), nil
	case gjson.Number:
		if !strings.ContainsAny(val.Raw, ".eE") {
			if n, err := strconv.ParseInt(val.Raw, 10, 64); err == nil {
				return ingestion.NewIntegerValue(n), nil
			}
		}
		return ingestion.NewFloatValue(val.Num), nil
	}
	return ingestion.Value{}, fmt.Errorf("nested %s values are not supported", kindOf(val))
}

func kindOf(val gjson.Result) string {
	if val.IsArray() {
		return "array"
	}
	return "object"
}

// Encode writes rs as a JSON array of objects, keeping field order
func Encode(rs ingestion.Recordset) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < rs.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeRecord(&buf, rs.At(i)); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func encodeRecord(buf *bytes.Buffer, rec ingestion.Record) error {
	buf.WriteByte('{')
	for i, f := range rec.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := encodeValue(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v ingestion.Value) error {
	switch {
	case v.Absent():
		buf.WriteString("null")
	case v.IsInteger():
		n, _ := v.AsInt64()
		buf.WriteString(strconv.FormatInt(n, 10))
	case v.IsText():
		s, err := json.Marshal(v.AsString())
		if err != nil {
			return err
		}
		buf.Write(s)
	default:
		f, _ := v.AsFloat64()
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEI") {
			s += ".0" // keep the float kind on a round trip
		}
		if strings.Contains(s, "Inf") {
			return fmt.Errorf("cannot encode %s as JSON", s)
		}
		buf.WriteString(s)
	}
	return nil
}

// Recordset wraps ingestion.Recordset with JSON (un)marshalling so it can
// sit inside request and response bodies
type Recordset struct {
	ingestion.Recordset
}

// MarshalJSON implements json.Marshaler
func (r Recordset) MarshalJSON() ([]byte, error) {
	return Encode(r.Recordset)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Recordset) UnmarshalJSON(data []byte) error {
	rs, err := Decode(data)
	if err != nil {
		return err
	}
	r.Recordset = rs
	return nil
}
