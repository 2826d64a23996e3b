package sift

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SamplerSettings configures candidate generation.
type SamplerSettings struct {
	Method string `yaml:"method,omitempty"`
	Points int    `yaml:"points,omitempty"`
}

// TunerSettings configures the hyperparameter search budget.
type TunerSettings struct {
	Trials        int `yaml:"trials,omitempty"`
	InitialTrials int `yaml:"initial_trials,omitempty"`
	Candidates    int `yaml:"candidates,omitempty"`
	Folds         int `yaml:"folds,omitempty"`
	Workers       int `yaml:"workers,omitempty"`
}

// ParetoSettings configures frontier extraction.
type ParetoSettings struct {
	Population      int     `yaml:"population,omitempty"`
	Generations     int     `yaml:"generations,omitempty"`
	MinUniquePoints int     `yaml:"min_unique_points,omitempty"`
	Tolerance       float64 `yaml:"tolerance,omitempty"`
}

// AttributionSettings configures Shapley-value estimation.
type AttributionSettings struct {
	Permutations   int `yaml:"permutations,omitempty"`
	BackgroundRows int `yaml:"background_rows,omitempty"`
}

// StudyConfig is the top-level study configuration.
// Loaded from YAML via LoadStudyConfig(path).
type StudyConfig struct {
	Seed          int64               `yaml:"seed"`
	Data          string              `yaml:"data,omitempty"`
	SuccessColumn string              `yaml:"success_column,omitempty"`
	Features      []string            `yaml:"features,omitempty"`
	Objectives    []string            `yaml:"objectives,omitempty"`
	Space         ParameterSpace      `yaml:"parameter_space,omitempty"`
	Sampler       SamplerSettings     `yaml:"sampler,omitempty"`
	Tuner         TunerSettings       `yaml:"tuner,omitempty"`
	Pareto        ParetoSettings      `yaml:"pareto,omitempty"`
	Attribution   AttributionSettings `yaml:"attribution,omitempty"`
}

// Sampler methods.
const (
	SamplerLatinHypercube = "lhs"
	SamplerUniform        = "uniform"
)

var validSamplerMethods = map[string]bool{
	SamplerLatinHypercube: true,
	SamplerUniform:        true,
}

// IsValidSamplerMethod reports whether name is a supported sampler method.
func IsValidSamplerMethod(name string) bool {
	return validSamplerMethods[name]
}

// DefaultStudyConfig returns a fully-populated configuration matching the
// standard SIFT study: minimize final magnesium and calcium over the default
// condition space.
func DefaultStudyConfig() *StudyConfig {
	cfg := &StudyConfig{
		Seed:       42,
		Objectives: []string{ColFiniMg, ColFiniCa},
		Space:      DefaultConditionSpace(),
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields in place. Idempotent.
func (c *StudyConfig) ApplyDefaults() {
	if c.Objectives == nil {
		c.Objectives = []string{ColFiniMg, ColFiniCa}
	}
	if len(c.Space) == 0 {
		c.Space = DefaultConditionSpace()
	}
	if c.Sampler.Method == "" {
		c.Sampler.Method = SamplerLatinHypercube
	}
	if c.Sampler.Points == 0 {
		c.Sampler.Points = 1000
	}
	if c.Tuner.Trials == 0 {
		c.Tuner.Trials = 40
	}
	if c.Tuner.InitialTrials == 0 {
		c.Tuner.InitialTrials = 10
	}
	if c.Tuner.Candidates == 0 {
		c.Tuner.Candidates = 50
	}
	if c.Tuner.Folds == 0 {
		c.Tuner.Folds = 5
	}
	if c.Tuner.Workers == 0 {
		c.Tuner.Workers = 4
	}
	if c.Pareto.Population == 0 {
		c.Pareto.Population = 100
	}
	if c.Pareto.Generations == 0 {
		c.Pareto.Generations = 50
	}
	if c.Pareto.MinUniquePoints == 0 {
		c.Pareto.MinUniquePoints = 30
	}
	if c.Pareto.Tolerance == 0 {
		c.Pareto.Tolerance = 1e-9
	}
	if c.Attribution.Permutations == 0 {
		c.Attribution.Permutations = 16
	}
	if c.Attribution.BackgroundRows == 0 {
		c.Attribution.BackgroundRows = 100
	}
}

// LoadStudyConfig reads and parses a YAML study configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected. Defaults are
// applied; call Validate separately.
func LoadStudyConfig(path string) (*StudyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading study config: %w", err)
	}
	var cfg StudyConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing study config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Validate checks that all fields in the config are valid.
func (c *StudyConfig) Validate() error {
	if len(c.Objectives) < 2 {
		return fmt.Errorf("%w: at least 2 objectives required, got %d", ErrInvalidArgument, len(c.Objectives))
	}
	seen := make(map[string]bool, len(c.Objectives))
	for i, obj := range c.Objectives {
		if obj == "" {
			return fmt.Errorf("%w: objectives[%d] is empty", ErrInvalidArgument, i)
		}
		if seen[obj] {
			return fmt.Errorf("%w: objectives[%d]: duplicate objective %q", ErrInvalidArgument, i, obj)
		}
		seen[obj] = true
	}
	if err := c.Space.Validate(); err != nil {
		return err
	}
	if !validSamplerMethods[c.Sampler.Method] {
		return fmt.Errorf("%w: sampler: unknown method %q; valid: lhs, uniform", ErrInvalidArgument, c.Sampler.Method)
	}
	if c.Sampler.Points <= 0 {
		return fmt.Errorf("%w: sampler: points must be positive, got %d", ErrInvalidArgument, c.Sampler.Points)
	}
	if c.Tuner.Trials < 1 {
		return fmt.Errorf("%w: tuner: trials must be at least 1, got %d", ErrInvalidArgument, c.Tuner.Trials)
	}
	if c.Tuner.InitialTrials < 1 || c.Tuner.InitialTrials > c.Tuner.Trials {
		return fmt.Errorf("%w: tuner: initial_trials must be in [1, trials], got %d", ErrInvalidArgument, c.Tuner.InitialTrials)
	}
	if c.Tuner.Candidates < 1 {
		return fmt.Errorf("%w: tuner: candidates must be at least 1, got %d", ErrInvalidArgument, c.Tuner.Candidates)
	}
	if c.Tuner.Folds < 2 {
		return fmt.Errorf("%w: tuner: folds must be at least 2, got %d", ErrInvalidArgument, c.Tuner.Folds)
	}
	if c.Tuner.Workers < 1 {
		return fmt.Errorf("%w: tuner: workers must be at least 1, got %d", ErrInvalidArgument, c.Tuner.Workers)
	}
	if c.Pareto.Population < 2 {
		return fmt.Errorf("%w: pareto: population must be at least 2, got %d", ErrInvalidArgument, c.Pareto.Population)
	}
	if c.Pareto.Generations < 1 {
		return fmt.Errorf("%w: pareto: generations must be at least 1, got %d", ErrInvalidArgument, c.Pareto.Generations)
	}
	if c.Pareto.MinUniquePoints < 1 {
		return fmt.Errorf("%w: pareto: min_unique_points must be at least 1, got %d", ErrInvalidArgument, c.Pareto.MinUniquePoints)
	}
	if c.Pareto.Tolerance <= 0 || !isFinite(c.Pareto.Tolerance) {
		return fmt.Errorf("%w: pareto: tolerance must be a positive finite number, got %v", ErrInvalidArgument, c.Pareto.Tolerance)
	}
	if c.Attribution.Permutations < 1 {
		return fmt.Errorf("%w: attribution: permutations must be at least 1, got %d", ErrInvalidArgument, c.Attribution.Permutations)
	}
	if c.Attribution.BackgroundRows < 1 {
		return fmt.Errorf("%w: attribution: background_rows must be at least 1, got %d", ErrInvalidArgument, c.Attribution.BackgroundRows)
	}
	return nil
}
