package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabprep/adapters/datareadiness"
	"tabprep/adapters/datareadiness/cleaner"
	"tabprep/adapters/datareadiness/scaler"
	"tabprep/adapters/datareadiness/splitter"
	"tabprep/adapters/rng"
	"tabprep/domain/core"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/preparation"
	"tabprep/domain/datareadiness/profiling"
	"tabprep/internal/errors"
	"tabprep/internal/testkit"
)

func newService() *PipelineService {
	return NewPipelineService(
		datareadiness.NewValidator(),
		datareadiness.NewProfilerAdapter(),
		cleaner.NewCleaner(),
		scaler.NewScaler(),
		splitter.NewSplitter(rng.NewAdapter()),
	)
}

func samplePlan(scope preparation.FitScope) preparation.Plan {
	maxAge := 100.0
	plan := preparation.DefaultPlan()
	plan.FitScope = scope
	plan.TestFraction = 0.25
	plan.Outliers = profiling.OutlierRules{testkit.FieldAge: {Max: &maxAge}}
	plan.Fill = []preparation.FillSpec{{Field: testkit.FieldAge, Strategy: "median"}}
	plan.Scale = []preparation.ScaleSpec{{Field: testkit.FieldPurchase, Method: "minmax"}}
	return plan
}

func TestRunFitOnFull(t *testing.T) {
	result, err := newService().Run(context.Background(), testkit.SampleUsers(), samplePlan(preparation.FitOnFull))
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []int{3, 4}, result.Report.OutlierIndices)
	assert.Equal(t, [][]int{{3, 4}}, result.Report.DuplicateGroups)
	assert.Len(t, result.Profiles, 5)

	assert.Equal(t, 4, result.Cleaned.Len())
	require.Len(t, result.Fills, 1)
	assert.True(t, result.Fills[0].Value.Equal(ingestion.NewIntegerValue(28)))
	require.Len(t, result.Scalers, 1)
	assert.Equal(t, 45.25, result.Scalers[0].Min)

	assert.Equal(t, 3, result.Train.Len())
	assert.Equal(t, 1, result.Test.Len())

	for _, rec := range append(result.Train.Records(), result.Test.Records()...) {
		age, _ := rec.Get(testkit.FieldAge)
		assert.False(t, age.Absent())
		assert.True(t, rec.Has(preparation.ScaledField(testkit.FieldPurchase)))
	}

	var names []string
	for _, s := range result.Steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"analyze", "deduplicate", "fill", "scale", "split"}, names)
}

func TestRunFitOnTrainUsesTrainingStatisticsOnly(t *testing.T) {
	config := testkit.DefaultShoppingConfig()
	config.MissingRate = 0.1
	rs := testkit.NewShoppingDataGenerator(config).Generate()

	plan := samplePlan(preparation.FitOnTrain)
	result, err := newService().Run(context.Background(), rs, plan)
	require.NoError(t, err)

	// the same partition, made directly
	deduped, err := cleaner.NewCleaner().Deduplicate(rs)
	require.NoError(t, err)
	train, test, err := splitter.NewSplitter(rng.NewAdapter()).Split(deduped, plan.TestFraction, plan.Seed)
	require.NoError(t, err)

	wantFill, err := cleaner.NewCleaner().FitFill(train, testkit.FieldAge, preparation.Median())
	require.NoError(t, err)
	assert.True(t, wantFill.Value.Equal(result.Fills[0].Value))

	assert.Equal(t, train.Len(), result.Train.Len())
	assert.Equal(t, test.Len(), result.Test.Len())
	assert.Equal(t, deduped.Len(), result.Cleaned.Len())

	state := result.Scalers[0]
	for _, rec := range result.Train.Records() {
		v, _ := rec.Get(state.Target())
		n, ok := v.AsFloat64()
		require.True(t, ok)
		assert.True(t, n >= 0 && n <= 1, "training values scale into [0, 1]")
	}
	for _, rec := range result.Test.Records() {
		src, _ := rec.Get(testkit.FieldPurchase)
		x, _ := src.AsFloat64()
		v, _ := rec.Get(state.Target())
		n, _ := v.AsFloat64()
		assert.InDelta(t, state.Apply(x), n, 1e-12)
	}
}

func TestRunReportDescribesFullInput(t *testing.T) {
	rs := testkit.NewShoppingDataGenerator(testkit.DefaultShoppingConfig()).Generate()
	rules := profiling.OutlierRules{testkit.FieldPurchase: {IQR: 1.5}}

	analysis, err := newService().Analyze(rs, rules)
	require.NoError(t, err)

	for _, scope := range []preparation.FitScope{preparation.FitOnTrain, preparation.FitOnFull} {
		plan := samplePlan(scope)
		plan.Outliers = rules

		result, err := newService().Run(context.Background(), rs, plan)
		require.NoError(t, err)
		assert.Equal(t, rs.Len(), result.Report.RecordCount, "scope %s", scope)
		assert.Equal(t, analysis.Report.OutlierIndices, result.Report.OutlierIndices, "scope %s", scope)
		assert.Equal(t, analysis.Report.OutlierFlags, result.Report.OutlierFlags, "scope %s", scope)
	}
}

func TestRunIsAllOrNothing(t *testing.T) {
	plan := samplePlan(preparation.FitOnFull)
	plan.Scale = []preparation.ScaleSpec{{Field: testkit.FieldName}}

	result, err := newService().Run(context.Background(), testkit.SampleUsers(), plan)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, core.ErrUnsupportedStrategy)
	assert.Equal(t, errors.CodePreparationFailed, errors.GetCode(err))
}

func TestRunErrors(t *testing.T) {
	svc := newService()

	plan := samplePlan(preparation.FitOnTrain)
	plan.TestFraction = 1
	_, err := svc.Run(context.Background(), testkit.SampleUsers(), plan)
	assert.ErrorIs(t, err, core.ErrInvalidFraction)

	plan = samplePlan(preparation.FitOnTrain)
	plan.Fill = []preparation.FillSpec{{Field: "age", Strategy: "interpolate"}}
	_, err = svc.Run(context.Background(), testkit.SampleUsers(), plan)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Run(context.Background(), ingestion.NewRecordset(), preparation.DefaultPlan())
	assert.ErrorIs(t, err, core.ErrEmptyRecordset)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Run(ctx, testkit.SampleUsers(), preparation.DefaultPlan())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatch(t *testing.T) {
	svc := newService()
	plan := samplePlan(preparation.FitOnTrain)

	var inputs []NamedRecordset
	for _, seed := range []int64{1, 2, 3, 4} {
		config := testkit.DefaultShoppingConfig()
		config.Seed = seed
		inputs = append(inputs, NamedRecordset{
			Name:      string(rune('a' + seed - 1)),
			Recordset: testkit.NewShoppingDataGenerator(config).Generate(),
		})
	}

	results, err := svc.RunBatch(context.Background(), inputs, plan, 2)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))
	for i, r := range results {
		assert.Equal(t, inputs[i].Name, r.Name)
		require.NotNil(t, r.Result)
		assert.Equal(t, r.Result.Cleaned.Len(), r.Result.Train.Len()+r.Result.Test.Len())
	}
}

func TestRunBatchFailsAsAWhole(t *testing.T) {
	broken := ingestion.NewRecordset(
		ingestion.MustRecord(ingestion.NewField("a", ingestion.NewIntegerValue(1))),
		ingestion.MustRecord(ingestion.NewField("b", ingestion.NewIntegerValue(2))),
	)
	inputs := []NamedRecordset{
		{Name: "good", Recordset: testkit.SampleUsers()},
		{Name: "broken", Recordset: broken},
	}

	results, err := newService().RunBatch(context.Background(), inputs, preparation.DefaultPlan(), 0)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, core.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "broken")
}

func TestAnalyze(t *testing.T) {
	analysis, err := newService().Analyze(testkit.SampleUsers(), nil)
	require.NoError(t, err)
	assert.Empty(t, analysis.Report.OutlierIndices)
	assert.Equal(t, 5, analysis.Readiness.TotalFields)
}
