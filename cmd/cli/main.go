package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tabprep/adapters/datareadiness"
	"tabprep/adapters/datareadiness/cleaner"
	"tabprep/adapters/datareadiness/scaler"
	"tabprep/adapters/datareadiness/splitter"
	"tabprep/adapters/excel"
	"tabprep/adapters/jsonrecords"
	"tabprep/adapters/report"
	"tabprep/adapters/rng"
	"tabprep/app"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/domain/datareadiness/preparation"
	"tabprep/internal/config"
	"tabprep/ports"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tabprep",
		Short:         "Validate, clean, scale and split tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newProfileCmd(),
		newReportCmd(),
		newPrepareCmd(),
	)
	return rootCmd
}

// planFlags are the command-line overrides shared by every command that
// reads a plan
type planFlags struct {
	planFile     string
	testFraction float64
	seed         int64
	fitScope     string
	noDedupe     bool
}

func (f *planFlags) register(cmd *cobra.Command, withPreparation bool) {
	cmd.Flags().StringVar(&f.planFile, "plan", "", "YAML plan file (default: $PIPELINE_PLAN)")
	if !withPreparation {
		return
	}
	cmd.Flags().Float64Var(&f.testFraction, "test-fraction", 0.2, "Fraction of records held out for evaluation")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for the split")
	cmd.Flags().StringVar(&f.fitScope, "fit-scope", "train", "Where fills and scalers are fitted: train|full")
	cmd.Flags().BoolVar(&f.noDedupe, "no-dedupe", false, "Keep duplicate records")
}

// resolve loads the plan from --plan or the environment, then applies the
// environment overrides and finally any flag the user set explicitly
func (f *planFlags) resolve(cmd *cobra.Command) (preparation.Plan, error) {
	cfg, err := config.Load()
	if err != nil {
		return preparation.Plan{}, err
	}
	if f.planFile != "" {
		cfg.Pipeline.PlanFile = f.planFile
	}
	plan, err := cfg.Pipeline.ResolvePlan()
	if err != nil {
		return plan, err
	}

	flags := cmd.Flags()
	if flags.Changed("test-fraction") {
		plan.TestFraction = f.testFraction
	}
	if flags.Changed("seed") {
		plan.Seed = f.seed
	}
	if flags.Changed("fit-scope") {
		scope, err := preparation.ParseFitScope(f.fitScope)
		if err != nil {
			return plan, err
		}
		plan.FitScope = scope
	}
	if flags.Changed("no-dedupe") {
		plan.Dedupe = !f.noDedupe
	}
	return plan, plan.Validate()
}

func newPipeline() *app.PipelineService {
	return app.NewPipelineService(
		datareadiness.NewValidator(),
		datareadiness.NewProfilerAdapter(),
		cleaner.NewCleaner(),
		scaler.NewScaler(),
		splitter.NewSplitter(rng.NewAdapter()),
	)
}

func newLoader() ports.RecordsetLoaderPort {
	return excel.NewDataReader(excel.DefaultReaderConfig())
}

func newValidateCmd() *cobra.Command {
	var flags planFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate [data-file]",
		Short: "Report missing values, outliers and duplicates",
		Long: `Validate a CSV, XLSX or JSON file without changing it.

Outlier rules come from the plan file:

  outliers:
    age: {min: 0, max: 100}
    purchase_amount: {iqr: 1.5}

Example: tabprep validate users.csv --plan plan.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			rs, err := newLoader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			analysis, err := newPipeline().Analyze(rs, plan.Outliers)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), analysis.Report)
			}
			printReport(cmd.OutOrStdout(), args[0], analysis)
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newProfileCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile [data-file]",
		Short: "Profile every field and check readiness for preparation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := newLoader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			analysis, err := newPipeline().Analyze(rs, nil)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), analysis)
			}
			printProfiles(cmd.OutOrStdout(), analysis)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print profiles and readiness as JSON")
	return cmd
}

func newReportCmd() *cobra.Command {
	var flags planFlags
	var format, outFile string

	cmd := &cobra.Command{
		Use:   "report [data-file]",
		Short: "Render the validation report as Markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			plan, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			rs, err := newLoader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			analysis, err := newPipeline().Analyze(rs, plan.Outliers)
			if err != nil {
				return err
			}
			body, err := report.Render(analysis.Report, analysis.Profiles, f)
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			return os.WriteFile(outFile, body, 0o644)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown|html")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newPrepareCmd() *cobra.Command {
	var flags planFlags
	var outDir string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "prepare [data-file...]",
		Short: "Deduplicate, fill, scale and split into train/test JSON",
		Long: `Run the full preparation plan over one or more files.

A single input writes train.json, test.json and result.json into --out.
Several inputs run concurrently and each gets its own subdirectory named
after the file.

Example: tabprep prepare users.csv --plan plan.yaml --out prepared --seed 7`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				if cfg, err := config.Load(); err == nil {
					concurrency = cfg.Pipeline.BatchConcurrency
				}
			}
			return runPrepare(cmd.Context(), cmd.OutOrStdout(), args, plan, outDir, concurrency)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&outDir, "out", "o", "prepared", "Output directory")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum files prepared at once")
	return cmd
}

func runPrepare(ctx context.Context, out io.Writer, files []string, plan preparation.Plan, outDir string, concurrency int) error {
	loader := newLoader()
	inputs := make([]app.NamedRecordset, len(files))
	for i, file := range files {
		rs, err := loader.Load(ctx, file)
		if err != nil {
			return err
		}
		inputs[i] = app.NamedRecordset{Name: datasetName(file), Recordset: rs}
	}

	fmt.Fprintf(out, "🔬 Preparing %d file(s) with fit scope %s, test fraction %.2f, seed %d\n",
		len(files), plan.FitScope, plan.TestFraction, plan.Seed)

	pipeline := newPipeline()
	if len(inputs) == 1 {
		result, err := pipeline.Run(ctx, inputs[0].Recordset, plan)
		if err != nil {
			return err
		}
		return writeResult(out, outDir, inputs[0].Name, result)
	}

	results, err := pipeline.RunBatch(ctx, inputs, plan, concurrency)
	if err != nil {
		return err
	}
	for _, res := range results {
		if err := writeResult(out, filepath.Join(outDir, res.Name), res.Name, res.Result); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(out io.Writer, dir, name string, result *app.PipelineResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	files := map[string]ingestion.Recordset{
		"train.json": result.Train,
		"test.json":  result.Test,
	}
	for file, rs := range files {
		data, err := jsonrecords.Encode(rs)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", file, err)
		}
		if err := os.WriteFile(filepath.Join(dir, file), data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
	}

	summary, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "result.json"), summary, 0o644); err != nil {
		return fmt.Errorf("failed to write result.json: %w", err)
	}

	fmt.Fprintf(out, "\n✅ %s (run %s, %v)\n", name, result.RunID, result.Duration)
	fmt.Fprintf(out, "   %s\n", result.Report.Summary())
	fmt.Fprintf(out, "   Cleaned: %d records, Train: %d, Test: %d\n",
		result.Cleaned.Len(), result.Train.Len(), result.Test.Len())
	for _, fill := range result.Fills {
		fmt.Fprintf(out, "   Fill %s with %s = %s\n", fill.Field, fill.Strategy, fill.Value)
	}
	for _, s := range result.Scalers {
		fmt.Fprintf(out, "   Scale %s -> %s\n", s.Field, s.Target())
	}
	fmt.Fprintf(out, "   💾 Written to %s\n", dir)
	return nil
}

func printReport(out io.Writer, source string, analysis *app.Analysis) {
	r := analysis.Report
	fmt.Fprintf(out, "📊 VALIDATION REPORT: %s\n", source)
	fmt.Fprintf(out, "Records: %d, Fields: %d\n", r.RecordCount, len(r.Fields))

	fmt.Fprintf(out, "\nMissing values:\n")
	for _, field := range r.Fields {
		fmt.Fprintf(out, "  %-24s %d\n", field, r.AbsentCounts[field])
	}

	if len(r.OutlierFlags) > 0 {
		fmt.Fprintf(out, "\n⚠️  Outliers (records %s):\n", joinInts(r.OutlierIndices))
		for _, flag := range r.OutlierFlags {
			fmt.Fprintf(out, "  record %d: %s = %g\n", flag.Index, flag.Field, flag.Value)
		}
	}

	if len(r.DuplicateGroups) > 0 {
		fmt.Fprintf(out, "\n🔁 Duplicate groups:\n")
		for _, group := range r.DuplicateGroups {
			fmt.Fprintf(out, "  [%s]\n", joinInts(group))
		}
	}

	if r.Clean() {
		fmt.Fprintf(out, "\n✅ No issues found\n")
	}
}

func printProfiles(out io.Writer, analysis *app.Analysis) {
	fmt.Fprintf(out, "📈 FIELD PROFILES\n")
	for _, p := range analysis.Profiles {
		fmt.Fprintf(out, "• %s (%s): %d present, %d missing, %d distinct\n",
			p.Field, p.InferredType, p.PresentCount, p.AbsentCount, p.DistinctCount)
		if s := p.NumericStats; s != nil {
			fmt.Fprintf(out, "   min %.2f, max %.2f, mean %.2f, median %.2f, std %.2f\n",
				s.Min, s.Max, s.Mean, s.Median, s.StdDev)
		}
	}

	readiness := analysis.Readiness
	fmt.Fprintf(out, "\n%s\n", readiness.Summary())
	for reason, count := range readiness.GetRejectedReasons() {
		fmt.Fprintf(out, "  🚫 %s: %d field(s)\n", reason, count)
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
