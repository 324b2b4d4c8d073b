package datareadiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabprep/domain/core"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/profiling"
	"tabprep/internal/testkit"
)

func TestProfileFieldsSampleUsers(t *testing.T) {
	profiles, err := NewProfilerAdapter().ProfileFields(testkit.SampleUsers())
	require.NoError(t, err)
	require.Len(t, profiles, 5)

	byField := make(map[string]profiling.FieldProfile)
	for _, p := range profiles {
		byField[p.Field] = p
	}

	age := byField[testkit.FieldAge]
	assert.Equal(t, profiling.TypeInteger, age.InferredType)
	assert.Equal(t, 4, age.PresentCount)
	assert.Equal(t, 1, age.AbsentCount)
	assert.Equal(t, 3, age.DistinctCount)
	assert.InDelta(t, 0.2, age.MissingRate, 1e-9)
	require.NotNil(t, age.NumericStats)
	assert.Equal(t, 22.0, age.NumericStats.Min)
	assert.Equal(t, 120.0, age.NumericStats.Max)
	assert.Equal(t, 74.0, age.NumericStats.Median)
	assert.InDelta(t, 72.5, age.NumericStats.Mean, 1e-9)

	email := byField[testkit.FieldEmail]
	assert.Equal(t, profiling.TypeText, email.InferredType)
	assert.Nil(t, email.NumericStats)

	assert.Equal(t, profiling.TypeFloat, byField[testkit.FieldPurchase].InferredType)
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name                string
		ints, floats, texts int
		expected            profiling.InferredType
	}{
		{"nothing present", 0, 0, 0, profiling.TypeEmpty},
		{"only integers", 3, 0, 0, profiling.TypeInteger},
		{"only floats", 0, 2, 0, profiling.TypeFloat},
		{"ints and floats", 1, 1, 0, profiling.TypeNumeric},
		{"only text", 0, 0, 4, profiling.TypeText},
		{"numbers and text", 2, 0, 1, profiling.TypeMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, inferType(tt.ints, tt.floats, tt.texts))
		})
	}
}

func TestProfileFieldsAllMissing(t *testing.T) {
	rs := testkit.Numbers("x", nil, nil)
	profiles, err := NewProfilerAdapter().ProfileFields(rs)
	require.NoError(t, err)
	assert.Equal(t, profiling.TypeEmpty, profiles[0].InferredType)
	assert.Equal(t, 1.0, profiles[0].MissingRate)
	assert.Nil(t, profiles[0].NumericStats)
}

func TestProfileFieldsEmpty(t *testing.T) {
	_, err := NewProfilerAdapter().ProfileFields(ingestion.NewRecordset())
	assert.ErrorIs(t, err, core.ErrEmptyRecordset)
}

func TestQuartilesSingleValue(t *testing.T) {
	q1, q3, err := quartiles([]float64{7})
	require.NoError(t, err)
	assert.Equal(t, 7.0, q1)
	assert.Equal(t, 7.0, q3)
}
