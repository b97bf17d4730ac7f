package spec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PipelineSpec is the YAML build specification for the pipeline definition
// builder. Every field has a default; a spec file only overrides.
type PipelineSpec struct {
	Pipeline PipelineSection `yaml:"pipeline"`
}

// PipelineSection is the pipeline section of the spec
type PipelineSection struct {
	Name       string         `yaml:"name"`
	Tuning     TuningSpec     `yaml:"tuning"`
	Training   TrainingSpec   `yaml:"training"`
	Evaluation EvaluationSpec `yaml:"evaluation"`
}

// TuningSpec bounds the hyperparameter search.
type TuningSpec struct {
	MaxJobs         int        `yaml:"max_jobs"`
	MaxParallelJobs int        `yaml:"max_parallel_jobs"`
	MaxDepth        IntRange   `yaml:"max_depth"`
	Eta             FloatRange `yaml:"eta"`
	NumRound        IntRange   `yaml:"num_round"`
}

// TrainingSpec configures the per-trial training jobs.
type TrainingSpec struct {
	InstanceType      string `yaml:"instance_type"`
	NumRound          int    `yaml:"num_round"`
	VolumeSizeGB      int    `yaml:"volume_size_gb"`
	MaxRuntimeSeconds int    `yaml:"max_runtime_seconds"`
}

// EvaluationSpec configures the conditional registration gate.
type EvaluationSpec struct {
	AccuracyThreshold float64 `yaml:"accuracy_threshold"`
}

// IntRange is an inclusive integer hyperparameter range.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// FloatRange is an inclusive continuous hyperparameter range.
type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Default returns the built-in pipeline spec.
func Default() *PipelineSpec {
	return &PipelineSpec{
		Pipeline: PipelineSection{
			Name: "iris-xgboost-pipeline",
			Tuning: TuningSpec{
				MaxJobs:         9,
				MaxParallelJobs: 3,
				MaxDepth:        IntRange{Min: 3, Max: 10},
				Eta:             FloatRange{Min: 0.01, Max: 0.3},
				NumRound:        IntRange{Min: 30, Max: 150},
			},
			Training: TrainingSpec{
				InstanceType:      "ml.m5.large",
				NumRound:          50,
				VolumeSizeGB:      5,
				MaxRuntimeSeconds: 3600,
			},
			Evaluation: EvaluationSpec{
				AccuracyThreshold: 0.90,
			},
		},
	}
}

// Parse parses a YAML pipeline spec over the defaults.
func Parse(specYAML string) (*PipelineSpec, error) {
	spec := Default()
	if err := yaml.Unmarshal([]byte(specYAML), spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate checks the spec for impossible search spaces and budgets.
func (s *PipelineSpec) Validate() error {
	p := s.Pipeline
	if p.Name == "" {
		return fmt.Errorf("pipeline name must not be empty")
	}
	if p.Tuning.MaxJobs < 1 {
		return fmt.Errorf("tuning max_jobs must be >= 1, got %d", p.Tuning.MaxJobs)
	}
	if p.Tuning.MaxParallelJobs < 1 || p.Tuning.MaxParallelJobs > p.Tuning.MaxJobs {
		return fmt.Errorf("tuning max_parallel_jobs must be in [1, max_jobs], got %d", p.Tuning.MaxParallelJobs)
	}
	if p.Tuning.MaxDepth.Min > p.Tuning.MaxDepth.Max {
		return fmt.Errorf("max_depth range is inverted: [%d, %d]", p.Tuning.MaxDepth.Min, p.Tuning.MaxDepth.Max)
	}
	if p.Tuning.Eta.Min > p.Tuning.Eta.Max {
		return fmt.Errorf("eta range is inverted: [%g, %g]", p.Tuning.Eta.Min, p.Tuning.Eta.Max)
	}
	if p.Tuning.NumRound.Min > p.Tuning.NumRound.Max {
		return fmt.Errorf("num_round range is inverted: [%d, %d]", p.Tuning.NumRound.Min, p.Tuning.NumRound.Max)
	}
	if p.Evaluation.AccuracyThreshold <= 0 || p.Evaluation.AccuracyThreshold > 1 {
		return fmt.Errorf("accuracy_threshold must be in (0, 1], got %g", p.Evaluation.AccuracyThreshold)
	}
	if p.Training.MaxRuntimeSeconds < 1 {
		return fmt.Errorf("max_runtime_seconds must be >= 1, got %d", p.Training.MaxRuntimeSeconds)
	}
	return nil
}
