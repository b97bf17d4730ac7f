package spec

import (
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() on defaults err=%v", err)
	}

	p := s.Pipeline
	if p.Name != "iris-xgboost-pipeline" {
		t.Errorf("Name=%q", p.Name)
	}
	if p.Tuning.MaxJobs != 9 || p.Tuning.MaxParallelJobs != 3 {
		t.Errorf("tuning budget = %d/%d, want 9/3", p.Tuning.MaxJobs, p.Tuning.MaxParallelJobs)
	}
	if p.Training.InstanceType != "ml.m5.large" || p.Training.NumRound != 50 {
		t.Errorf("training = %+v", p.Training)
	}
	if p.Evaluation.AccuracyThreshold != 0.90 {
		t.Errorf("AccuracyThreshold=%g, want 0.90", p.Evaluation.AccuracyThreshold)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	s, err := Parse(`
pipeline:
  name: custom-pipeline
  tuning:
    max_jobs: 20
  evaluation:
    accuracy_threshold: 0.95
`)
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}

	if s.Pipeline.Name != "custom-pipeline" {
		t.Errorf("Name=%q", s.Pipeline.Name)
	}
	if s.Pipeline.Tuning.MaxJobs != 20 {
		t.Errorf("MaxJobs=%d, want 20", s.Pipeline.Tuning.MaxJobs)
	}
	if s.Pipeline.Evaluation.AccuracyThreshold != 0.95 {
		t.Errorf("AccuracyThreshold=%g, want 0.95", s.Pipeline.Evaluation.AccuracyThreshold)
	}
	// Untouched sections keep their defaults.
	if s.Pipeline.Tuning.MaxDepth.Max != 10 {
		t.Errorf("MaxDepth.Max=%d, want default 10", s.Pipeline.Tuning.MaxDepth.Max)
	}
	if s.Pipeline.Training.NumRound != 50 {
		t.Errorf("Training.NumRound=%d, want default 50", s.Pipeline.Training.NumRound)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse("pipeline: [not a mapping"); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidateRejectsBadSpecs(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*PipelineSpec)
		wantErr string
	}{
		{
			name:    "inverted max_depth",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Tuning.MaxDepth = IntRange{Min: 10, Max: 3} },
			wantErr: "max_depth",
		},
		{
			name:    "inverted eta",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Tuning.Eta = FloatRange{Min: 0.3, Max: 0.01} },
			wantErr: "eta",
		},
		{
			name:    "inverted num_round",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Tuning.NumRound = IntRange{Min: 150, Max: 30} },
			wantErr: "num_round",
		},
		{
			name:    "parallel exceeds budget",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Tuning.MaxParallelJobs = 99 },
			wantErr: "max_parallel_jobs",
		},
		{
			name:    "zero parallel",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Tuning.MaxParallelJobs = 0 },
			wantErr: "max_parallel_jobs",
		},
		{
			name:    "threshold above one",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Evaluation.AccuracyThreshold = 1.5 },
			wantErr: "accuracy_threshold",
		},
		{
			name:    "zero threshold",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Evaluation.AccuracyThreshold = 0 },
			wantErr: "accuracy_threshold",
		},
		{
			name:    "empty name",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Name = "" },
			wantErr: "name",
		},
		{
			name:    "zero runtime",
			mutate:  func(s *PipelineSpec) { s.Pipeline.Training.MaxRuntimeSeconds = 0 },
			wantErr: "max_runtime_seconds",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
