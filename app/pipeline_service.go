package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tabprep/domain/core"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/preparation"
	"tabprep/domain/datareadiness/profiling"
	"tabprep/domain/datareadiness/resolution"
	"tabprep/internal"
	"tabprep/internal/errors"
	"tabprep/ports"
)

// PipelineService runs validation, cleaning, scaling and splitting as one
// all-or-nothing operation
type PipelineService struct {
	validatorPort ports.ValidatorPort
	profilerPort  ports.ProfilerPort
	cleanerPort   ports.CleanerPort
	scalerPort    ports.ScalerPort
	splitterPort  ports.SplitterPort
	gate          *resolution.ReadinessGate
	logger        *internal.Logger
}

// NewPipelineService creates a pipeline service
func NewPipelineService(
	validatorPort ports.ValidatorPort,
	profilerPort ports.ProfilerPort,
	cleanerPort ports.CleanerPort,
	scalerPort ports.ScalerPort,
	splitterPort ports.SplitterPort,
) *PipelineService {
	return &PipelineService{
		validatorPort: validatorPort,
		profilerPort:  profilerPort,
		cleanerPort:   cleanerPort,
		scalerPort:    scalerPort,
		splitterPort:  splitterPort,
		gate:          resolution.NewReadinessGate(resolution.DefaultGateConfig()),
		logger:        internal.DefaultLogger.WithComponent("Pipeline"),
	}
}

// PipelineResult holds every output of one run
type PipelineResult struct {
	RunID     core.RunID                  `json:"run_id"`
	Plan      preparation.Plan            `json:"plan"`
	Report    *profiling.ValidationReport `json:"report"`
	Profiles  []profiling.FieldProfile    `json:"profiles"`
	Readiness resolution.ReadinessResult  `json:"readiness"`
	Cleaned   ingestion.Recordset         `json:"-"`
	Train     ingestion.Recordset         `json:"-"`
	Test      ingestion.Recordset         `json:"-"`
	Fills     []preparation.FillState     `json:"fills"`
	Scalers   []preparation.ScalerState   `json:"scalers"`
	Steps     []StepTiming                `json:"steps"`
	StartedAt core.Timestamp              `json:"started_at"`
	Duration  time.Duration               `json:"duration_ns"`
}

// StepTiming records how long one pipeline step took
type StepTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ns"`
}

// Analysis is the read-only part of a run: report, profiles and readiness
type Analysis struct {
	Report    *profiling.ValidationReport `json:"report"`
	Profiles  []profiling.FieldProfile    `json:"profiles"`
	Readiness resolution.ReadinessResult  `json:"readiness"`
}

// Analyze validates and profiles rs without changing it
func (s *PipelineService) Analyze(rs ingestion.Recordset, rules profiling.OutlierRules) (*Analysis, error) {
	predicates, err := s.validatorPort.CompileRules(rs, rules)
	if err != nil {
		return nil, fmt.Errorf("outlier rules: %w", err)
	}
	report, err := s.validatorPort.Validate(rs, predicates)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	profiles, err := s.profilerPort.ProfileFields(rs)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return &Analysis{
		Report:    report,
		Profiles:  profiles,
		Readiness: s.gate.EvaluateReadiness(profiles),
	}, nil
}

// Run executes plan against rs. The validation report, including IQR
// fences, always describes the full input. With FitOnTrain the split happens
// before any fill or scaler is fitted, and the states fitted on the training
// partition are applied unchanged to the evaluation partition.
func (s *PipelineService) Run(ctx context.Context, rs ingestion.Recordset, plan preparation.Plan) (*PipelineResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("invalid plan: %w", err))
	}
	scope, _ := preparation.ParseFitScope(string(plan.FitScope))
	plan.FitScope = scope

	started := time.Now()
	result := &PipelineResult{
		RunID:     core.NewRunID(),
		Plan:      plan,
		StartedAt: core.Now(),
		Fills:     []preparation.FillState{},
		Scalers:   []preparation.ScalerState{},
	}
	s.logger.Info("Run %s started: %d records, fit scope %s", result.RunID, rs.Len(), plan.FitScope)

	err := s.step(ctx, result, "analyze", func() error {
		analysis, err := s.Analyze(rs, plan.Outliers)
		if err != nil {
			return err
		}
		result.Report = analysis.Report
		result.Profiles = analysis.Profiles
		result.Readiness = analysis.Readiness
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("%s", result.Report.Summary())

	cleaned := rs
	if plan.Dedupe {
		err = s.step(ctx, result, "deduplicate", func() error {
			var err error
			cleaned, err = s.cleanerPort.Deduplicate(rs)
			return err
		})
		if err != nil {
			return nil, err
		}
		s.logger.Debug("Deduplicate removed %d records", rs.Len()-cleaned.Len())
	}

	if plan.FitScope == preparation.FitOnFull {
		err = s.runFitOnFull(ctx, result, cleaned, plan)
	} else {
		err = s.runFitOnTrain(ctx, result, cleaned, plan)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(started)
	s.logger.Info("Run %s finished in %s: %d train, %d test records",
		result.RunID, result.Duration, result.Train.Len(), result.Test.Len())
	return result, nil
}

// runFitOnFull fills and scales the whole cleaned recordset, then splits it
func (s *PipelineService) runFitOnFull(ctx context.Context, result *PipelineResult, cleaned ingestion.Recordset, plan preparation.Plan) error {
	err := s.step(ctx, result, "fill", func() error {
		for _, spec := range plan.Fill {
			strategy, _ := spec.ToStrategy()
			state, err := s.cleanerPort.FitFill(cleaned, spec.Field, strategy)
			if err != nil {
				return fmt.Errorf("fill %s: %w", spec.Field, err)
			}
			if cleaned, err = s.cleanerPort.ApplyFill(cleaned, state); err != nil {
				return fmt.Errorf("fill %s: %w", spec.Field, err)
			}
			result.Fills = append(result.Fills, state)
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.step(ctx, result, "scale", func() error {
		for _, spec := range plan.Scale {
			method, _ := preparation.ParseScaleMethod(spec.Method)
			var (
				state preparation.ScalerState
				err   error
			)
			if cleaned, state, err = s.scalerPort.Scale(cleaned, spec.Field, method); err != nil {
				return fmt.Errorf("scale %s: %w", spec.Field, err)
			}
			result.Scalers = append(result.Scalers, state)
		}
		return nil
	})
	if err != nil {
		return err
	}
	result.Cleaned = cleaned

	return s.step(ctx, result, "split", func() error {
		var err error
		result.Train, result.Test, err = s.splitterPort.Split(cleaned, plan.TestFraction, plan.Seed)
		return err
	})
}

// runFitOnTrain splits first, fits on the training partition and applies
// the fitted states to the cleaned, training and evaluation recordsets
func (s *PipelineService) runFitOnTrain(ctx context.Context, result *PipelineResult, cleaned ingestion.Recordset, plan preparation.Plan) error {
	var train, test ingestion.Recordset
	err := s.step(ctx, result, "split", func() error {
		var err error
		train, test, err = s.splitterPort.Split(cleaned, plan.TestFraction, plan.Seed)
		return err
	})
	if err != nil {
		return err
	}

	err = s.step(ctx, result, "fill", func() error {
		for _, spec := range plan.Fill {
			strategy, _ := spec.ToStrategy()
			state, err := s.cleanerPort.FitFill(train, spec.Field, strategy)
			if err != nil {
				return fmt.Errorf("fill %s: %w", spec.Field, err)
			}
			if train, test, cleaned, err = s.applyFill(state, train, test, cleaned); err != nil {
				return fmt.Errorf("fill %s: %w", spec.Field, err)
			}
			result.Fills = append(result.Fills, state)
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.step(ctx, result, "scale", func() error {
		for _, spec := range plan.Scale {
			method, _ := preparation.ParseScaleMethod(spec.Method)
			state, err := s.scalerPort.Fit(train, spec.Field, method)
			if err != nil {
				return fmt.Errorf("scale %s: %w", spec.Field, err)
			}
			if train, test, cleaned, err = s.applyScale(state, train, test, cleaned); err != nil {
				return fmt.Errorf("scale %s: %w", spec.Field, err)
			}
			result.Scalers = append(result.Scalers, state)
		}
		return nil
	})
	if err != nil {
		return err
	}

	result.Cleaned, result.Train, result.Test = cleaned, train, test
	return nil
}

func (s *PipelineService) applyFill(state preparation.FillState, sets ...ingestion.Recordset) (ingestion.Recordset, ingestion.Recordset, ingestion.Recordset, error) {
	out, err := applyAll(sets, func(rs ingestion.Recordset) (ingestion.Recordset, error) {
		return s.cleanerPort.ApplyFill(rs, state)
	})
	if err != nil {
		return ingestion.Recordset{}, ingestion.Recordset{}, ingestion.Recordset{}, err
	}
	return out[0], out[1], out[2], nil
}

func (s *PipelineService) applyScale(state preparation.ScalerState, sets ...ingestion.Recordset) (ingestion.Recordset, ingestion.Recordset, ingestion.Recordset, error) {
	out, err := applyAll(sets, func(rs ingestion.Recordset) (ingestion.Recordset, error) {
		return s.scalerPort.Transform(rs, state)
	})
	if err != nil {
		return ingestion.Recordset{}, ingestion.Recordset{}, ingestion.Recordset{}, err
	}
	return out[0], out[1], out[2], nil
}

func applyAll(sets []ingestion.Recordset, fn func(ingestion.Recordset) (ingestion.Recordset, error)) ([]ingestion.Recordset, error) {
	out := make([]ingestion.Recordset, len(sets))
	for i, rs := range sets {
		var err error
		if out[i], err = fn(rs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// step checks for cancellation, runs fn and records its duration
func (s *PipelineService) step(ctx context.Context, result *PipelineResult, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	start := time.Now()
	if err := fn(); err != nil {
		s.logger.Warn("Run %s failed at %s: %v", result.RunID, name, err)
		return err
	}
	result.Steps = append(result.Steps, StepTiming{Name: name, Duration: time.Since(start)})
	return nil
}

// NamedRecordset is one input of a batch run
type NamedRecordset struct {
	Name      string
	Recordset ingestion.Recordset
}

// BatchResult pairs an input name with its run result
type BatchResult struct {
	Name   string          `json:"name"`
	Result *PipelineResult `json:"result"`
}

// RunBatch runs plan against independent recordsets with at most
// concurrency runs in flight. The first failure cancels the remaining runs
// and no results are returned. Results follow input order.
func (s *PipelineService) RunBatch(ctx context.Context, inputs []NamedRecordset, plan preparation.Plan, concurrency int) ([]BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BatchResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			res, err := s.Run(gctx, input.Recordset, plan)
			if err != nil {
				return fmt.Errorf("%s: %w", input.Name, err)
			}
			results[i] = BatchResult{Name: input.Name, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Info("Batch of %d recordsets finished", len(inputs))
	return results, nil
}
