package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabprep/domain/datareadiness/preparation"
	"tabprep/internal/errors"
)

const samplePlan = `
dedupe: true
test_fraction: 0.25
seed: 7
fit_scope: full
outliers:
  age:
    min: 0
    max: 100
  purchase_amount:
    iqr: 1.5
fill:
  - field: age
    strategy: median
  - field: email
    strategy: constant
    value: unknown@example.com
scale:
  - field: purchase_amount
    method: minmax
`

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan([]byte(samplePlan))
	require.NoError(t, err)

	assert.True(t, plan.Dedupe)
	assert.Equal(t, 0.25, plan.TestFraction)
	assert.Equal(t, int64(7), plan.Seed)
	assert.Equal(t, preparation.FitOnFull, plan.FitScope)

	require.Contains(t, plan.Outliers, "age")
	assert.Equal(t, 100.0, *plan.Outliers["age"].Max)
	assert.Equal(t, 1.5, plan.Outliers["purchase_amount"].IQR)

	require.Len(t, plan.Fill, 2)
	strategy, err := plan.Fill[1].ToStrategy()
	require.NoError(t, err)
	assert.Equal(t, "unknown@example.com", strategy.Constant.AsString())

	require.Len(t, plan.Scale, 1)
}

func TestParsePlanKeepsDefaults(t *testing.T) {
	plan, err := ParsePlan([]byte("fill: []\n"))
	require.NoError(t, err)
	assert.Equal(t, preparation.DefaultPlan().TestFraction, plan.TestFraction)
	assert.Equal(t, preparation.FitOnTrain, plan.FitScope)
}

func TestParsePlanErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"bad yaml":       "fill: [",
		"bad strategy":   "fill:\n  - field: a\n    strategy: interpolate\n",
		"bad fit scope":  "fit_scope: everything\n",
		"missing field":  "scale:\n  - method: minmax\n",
		"inverted range": "outliers:\n  a:\n    min: 5\n    max: 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlan([]byte(doc))
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadPlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), plan.Seed)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	plan, err = LoadPlan("")
	require.NoError(t, err)
	assert.Equal(t, preparation.DefaultPlan(), plan)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TEST_FRACTION", "0.3")
	t.Setenv("RANDOM_SEED", "123")
	t.Setenv("FIT_SCOPE", "full")
	t.Setenv("BATCH_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Pipeline.BatchConcurrency)

	plan := cfg.Pipeline.ApplyOverrides(preparation.DefaultPlan())
	assert.Equal(t, 0.3, plan.TestFraction)
	assert.Equal(t, int64(123), plan.Seed)
	assert.Equal(t, preparation.FitOnFull, plan.FitScope)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	for name, env := range map[string][2]string{
		"fraction not a number": {"TEST_FRACTION", "lots"},
		"fraction out of range": {"TEST_FRACTION", "1"},
		"seed not an integer":   {"RANDOM_SEED", "4.2"},
		"unknown scope":         {"FIT_SCOPE", "half"},
		"zero concurrency":      {"BATCH_CONCURRENCY", "0"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestParsePlanJSON(t *testing.T) {
	plan, err := ParsePlanJSON([]byte(`{
		"fit_scope": "full",
		"outliers": {"age": {"max": 100}},
		"fill": [{"field": "age", "strategy": "constant", "value": 30}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, preparation.FitOnFull, plan.FitScope)
	assert.Equal(t, 100.0, *plan.Outliers["age"].Max)
	assert.Equal(t, preparation.DefaultPlan().Seed, plan.Seed)

	strategy, err := plan.Fill[0].ToStrategy()
	require.NoError(t, err)
	n, ok := strategy.Constant.AsInt64()
	require.True(t, ok)
	assert.Equal(t, int64(30), n)

	_, err = ParsePlanJSON([]byte(`{"dedup": true}`))
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = ParsePlanJSON([]byte(`{"fit_scope": "everything"}`))
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
