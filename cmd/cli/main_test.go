package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabprep/adapters/jsonrecords"
)

const usersCSV = `user_id,name,email,age,purchase_amount
1,John Smith,john@example.com,28,150.50
2,Jane Doe,,22,89.99
3,Mike Johnson,mike@example.com,,230.00
4,Emily Davis,emily@example.com,120,45.25
4,Emily Davis,emily@example.com,120,45.25
`

const planYAML = `dedupe: true
outliers:
  age: {max: 100}
fill:
  - field: age
    strategy: median
  - field: email
    strategy: constant
    value: unknown
scale:
  - field: purchase_amount
    method: minmax
test_fraction: 0.25
seed: 42
`

func clearEnv(t *testing.T) {
	for _, key := range []string{"PIPELINE_PLAN", "TEST_FRACTION", "RANDOM_SEED", "FIT_SCOPE", "BATCH_CONCURRENCY"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := writeFile(t, dir, "users.csv", usersCSV)
	plan := writeFile(t, dir, "plan.yaml", planYAML)

	out, err := run(t, "validate", data, "--plan", plan)
	require.NoError(t, err)
	assert.Contains(t, out, "Records: 5, Fields: 5")
	assert.Contains(t, out, "record 3: age = 120")
	assert.Contains(t, out, "[3, 4]")
}

func TestProfileCommand(t *testing.T) {
	clearEnv(t)
	data := writeFile(t, t.TempDir(), "users.csv", usersCSV)

	out, err := run(t, "profile", data)
	require.NoError(t, err)
	assert.Contains(t, out, "• age (integer)")
	assert.Contains(t, out, "• email (text)")
}

func TestReportCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := writeFile(t, dir, "users.csv", usersCSV)
	target := filepath.Join(dir, "report.html")

	_, err := run(t, "report", data, "--format", "html", "--out", target)
	require.NoError(t, err)

	body, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<table>")

	_, err = run(t, "report", data, "--format", "pdf")
	assert.Error(t, err)
}

func TestPrepareCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := writeFile(t, dir, "users.csv", usersCSV)
	plan := writeFile(t, dir, "plan.yaml", planYAML)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "prepare", data, "--plan", plan, "--out", outDir, "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned: 4 records, Train: 3, Test: 1")

	for _, name := range []string{"train.json", "test.json", "result.json"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	trainData, err := os.ReadFile(filepath.Join(outDir, "train.json"))
	require.NoError(t, err)
	train, err := jsonrecords.Decode(trainData)
	require.NoError(t, err)
	assert.Equal(t, 3, train.Len())

	names, err := train.Schema()
	require.NoError(t, err)
	assert.Contains(t, names, "purchase_amount_scaled")
}

func TestPrepareBatchCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	first := writeFile(t, dir, "first.csv", usersCSV)
	second := writeFile(t, dir, "second.csv", usersCSV)
	outDir := filepath.Join(dir, "out")

	_, err := run(t, "prepare", first, second, "--out", outDir, "--concurrency", "2")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, "first", "train.json"))
	assert.FileExists(t, filepath.Join(outDir, "second", "test.json"))
}

func TestPrepareFlagErrors(t *testing.T) {
	clearEnv(t)
	data := writeFile(t, t.TempDir(), "users.csv", usersCSV)

	_, err := run(t, "prepare", data, "--fit-scope", "everything")
	assert.ErrorContains(t, err, "unknown fit scope")

	_, err = run(t, "prepare", data, "--test-fraction", "1.5")
	assert.ErrorContains(t, err, "fraction")

	_, err = run(t, "prepare", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorContains(t, err, "not found")
}
