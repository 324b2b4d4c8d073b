package testkit

import (
	"testing"
)

func TestShoppingGeneratorDeterministic(t *testing.T) {
	config := DefaultShoppingConfig()

	a := NewShoppingDataGenerator(config).Generate()
	b := NewShoppingDataGenerator(config).Generate()

	if a.Len() != config.CustomerCount {
		t.Fatalf("expected %d records, got %d", config.CustomerCount, a.Len())
	}
	if !a.Equal(b) {
		t.Fatal("same seed must produce identical recordsets")
	}

	if _, err := a.Schema(); err != nil {
		t.Fatalf("generated records must share a schema: %v", err)
	}
}

func TestShoppingGeneratorInjectsDefects(t *testing.T) {
	config := DefaultShoppingConfig()
	config.CustomerCount = 1000
	config.MissingRate = 0.1
	rs := NewShoppingDataGenerator(config).Generate()

	missing := 0
	for _, v := range rs.Column(FieldAge) {
		if v.Absent() {
			missing++
		}
	}
	if missing == 0 {
		t.Error("expected some missing ages")
	}
}

func TestSampleUsersShape(t *testing.T) {
	rs := SampleUsers()
	if rs.Len() != 5 {
		t.Fatalf("expected 5 sample users, got %d", rs.Len())
	}
	names, err := rs.Schema()
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range SampleUserFields() {
		if names[i] != want {
			t.Errorf("field %d: expected %s, got %s", i, want, names[i])
		}
	}
	if !rs.At(3).Equal(rs.At(4)) {
		t.Error("the last two sample rows must be identical")
	}
}
