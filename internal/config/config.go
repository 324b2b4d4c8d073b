package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"tabprep/domain/datareadiness/preparation"
	"tabprep/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Pipeline PipelineConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRequestBytes int64
}

// PipelineConfig holds preparation defaults. Zero-valued overrides mean
// "keep what the plan says".
type PipelineConfig struct {
	PlanFile         string
	TestFraction     *float64
	Seed             *int64
	FitScope         preparation.FitScope
	BatchConcurrency int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: *loadServerConfig(),
	}

	pipelineConfig, err := loadPipelineConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pipeline configuration")
	}
	config.Pipeline = *pipelineConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		ReadTimeout:     getEnvDurationOrDefault("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvDurationOrDefault("WRITE_TIMEOUT", 60*time.Second),
		MaxRequestBytes: int64(getEnvIntOrDefault("MAX_REQUEST_BYTES", 32<<20)),
	}
}

func loadPipelineConfig() (*PipelineConfig, error) {
	config := &PipelineConfig{
		PlanFile:         getEnvOrDefault("PIPELINE_PLAN", ""),
		BatchConcurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 4),
	}

	if value := os.Getenv("TEST_FRACTION"); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("TEST_FRACTION %q is not a number", value))
		}
		config.TestFraction = &f
	}

	if value := os.Getenv("RANDOM_SEED"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("RANDOM_SEED %q is not an integer", value))
		}
		config.Seed = &seed
	}

	if value := os.Getenv("FIT_SCOPE"); value != "" {
		scope, err := preparation.ParseFitScope(value)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		config.FitScope = scope
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if f := config.Pipeline.TestFraction; f != nil && (*f <= 0 || *f >= 1) {
		return errors.ConfigInvalid(fmt.Sprintf("TEST_FRACTION must lie strictly between 0 and 1, got %g", *f))
	}
	if config.Pipeline.BatchConcurrency < 1 {
		return errors.ConfigInvalid("BATCH_CONCURRENCY must be at least 1")
	}
	return nil
}

// LoadPlan reads a YAML plan file on top of the default plan. An empty path
// returns the default plan.
func LoadPlan(path string) (preparation.Plan, error) {
	plan := preparation.DefaultPlan()
	if path == "" {
		return plan, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return plan, errors.NotFound(fmt.Sprintf("plan file %s", path))
		}
		return plan, errors.Wrapf(err, "failed to read plan file %s", path)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a YAML plan on top of the default plan and validates it
func ParsePlan(data []byte) (preparation.Plan, error) {
	plan := preparation.DefaultPlan()
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("invalid plan: %w", err))
	}
	return plan, validatePlan(&plan)
}

// ParsePlanJSON is ParsePlan for JSON request bodies. Numbers keep their
// integer or float form and unknown keys are rejected.
func ParsePlanJSON(data []byte) (preparation.Plan, error) {
	plan := preparation.DefaultPlan()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&plan); err != nil {
		return plan, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("invalid plan: %w", err))
	}
	return plan, validatePlan(&plan)
}

func validatePlan(plan *preparation.Plan) error {
	if err := plan.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("invalid plan: %w", err))
	}
	return nil
}

// ApplyOverrides copies the environment overrides onto plan
func (c PipelineConfig) ApplyOverrides(plan preparation.Plan) preparation.Plan {
	if c.TestFraction != nil {
		plan.TestFraction = *c.TestFraction
	}
	if c.Seed != nil {
		plan.Seed = *c.Seed
	}
	if c.FitScope != "" {
		plan.FitScope = c.FitScope
	}
	return plan
}

// ResolvePlan loads the configured plan file and applies the overrides
func (c PipelineConfig) ResolvePlan() (preparation.Plan, error) {
	plan, err := LoadPlan(c.PlanFile)
	if err != nil {
		return plan, err
	}
	return c.ApplyOverrides(plan), nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
