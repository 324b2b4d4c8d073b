package testkit

import (
	"tabprep/domain/datareadiness/ingestion"
)

// Field names of the sample user recordset
const (
	FieldUserID   = "user_id"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldAge      = "age"
	FieldPurchase = "purchase_amount"
)

// SampleUsers returns the five-row user table used throughout the walkthrough:
// one missing email, one missing age, and an exact duplicate pair (Emily
// Davis) whose age of 120 is out of range.
func SampleUsers() ingestion.Recordset {
	return ingestion.NewRecordset(
		user(1, "John Smith", text("john@example.com"), ingestion.NewIntegerValue(28), 150.50),
		user(2, "Jane Doe", ingestion.NewMissingValue(), ingestion.NewIntegerValue(22), 89.99),
		user(3, "Mike Johnson", text("mike@example.com"), ingestion.NewMissingValue(), 230.00),
		user(4, "Emily Davis", text("emily@example.com"), ingestion.NewIntegerValue(120), 45.25),
		user(4, "Emily Davis", text("emily@example.com"), ingestion.NewIntegerValue(120), 45.25),
	)
}

// SampleUserFields lists the sample schema in column order
func SampleUserFields() []string {
	return []string{FieldUserID, FieldName, FieldEmail, FieldAge, FieldPurchase}
}

func user(id int64, name string, email, age ingestion.Value, purchase float64) ingestion.Record {
	return ingestion.MustRecord(
		ingestion.NewField(FieldUserID, ingestion.NewIntegerValue(id)),
		ingestion.NewField(FieldName, text(name)),
		ingestion.NewField(FieldEmail, email),
		ingestion.NewField(FieldAge, age),
		ingestion.NewField(FieldPurchase, ingestion.NewFloatValue(purchase)),
	)
}

func text(s string) ingestion.Value { return ingestion.NewTextValue(s) }

// Numbers builds a single-field recordset, nil entries becoming missing
func Numbers(field string, values ...*float64) ingestion.Recordset {
	records := make([]ingestion.Record, len(values))
	for i, v := range values {
		val := ingestion.NewMissingValue()
		if v != nil {
			val = ingestion.NewFloatValue(*v)
		}
		records[i] = ingestion.MustRecord(ingestion.NewField(field, val))
	}
	return ingestion.NewRecordset(records...)
}

// F is shorthand for a float pointer in Numbers literals
func F(v float64) *float64 { return &v }
