// Package pipeline builds the declarative workflow document the managed
// orchestration service executes: hyperparameter tuning, evaluation, and
// conditional model registration, with data passed between steps by
// object-store location only.
package pipeline

import (
	"encoding/json"
	"fmt"

	"retrain-orchestrator/core/spec"
)

// SchemaVersion is the definition document schema understood by the
// orchestration service.
const SchemaVersion = "2020-12-01"

// Step names. The condition step's property-file lookup references the
// evaluation step by name, so these are part of the document's wiring.
const (
	TuningStepName     = "TuneXGBoostModel"
	EvaluationStepName = "EvaluateXGBoostModel"
	ConditionStepName  = "CheckAccuracyThreshold"
	RegisterStepName   = "RegisterBestModel"
)

// ObjectiveMetricName is the tuning objective; trials emit it on stdout
// and the service scrapes it with MetricRegex.
const (
	ObjectiveMetricName = "validation:mlogloss"
	MetricRegex         = `validation:mlogloss=([\d\.]+)`
)

// Object-store layout the steps read from and write to.
const (
	modelArtifactsPrefix = "model-artifacts"
	evaluationPrefix     = "evaluation-results"
	trainPrefix          = "data/train/"
	validationPrefix     = "data/validation/"
	testPrefix           = "data/test/"
)

// Definition is the declarative pipeline document.
type Definition struct {
	Version    string      `json:"Version"`
	Metadata   struct{}    `json:"Metadata"`
	Parameters []Parameter `json:"Parameters"`
	Steps      []Step      `json:"Steps"`
}

// Parameter is a named pipeline parameter with a default, overridable per
// execution.
type Parameter struct {
	Name         string      `json:"Name"`
	Type         string      `json:"Type"`
	DefaultValue interface{} `json:"DefaultValue"`
}

// Step is one node of the workflow.
type Step struct {
	Name          string                 `json:"Name"`
	Type          string                 `json:"Type"`
	Arguments     map[string]interface{} `json:"Arguments"`
	PropertyFiles []PropertyFile         `json:"PropertyFiles,omitempty"`
}

// PropertyFile declares a structured step output the condition step can
// read fields out of.
type PropertyFile struct {
	PropertyFileName string `json:"PropertyFileName"`
	OutputName       string `json:"OutputName"`
	FilePath         string `json:"FilePath"`
}

// Builder assembles the pipeline definition for one bucket/role/region.
type Builder struct {
	spec              *spec.PipelineSpec
	bucket            string
	roleARN           string
	region            string
	modelPackageGroup string
}

// NewBuilder creates a definition builder.
func NewBuilder(ps *spec.PipelineSpec, bucket, roleARN, region, modelPackageGroup string) *Builder {
	return &Builder{
		spec:              ps,
		bucket:            bucket,
		roleARN:           roleARN,
		region:            region,
		modelPackageGroup: modelPackageGroup,
	}
}

// Definition deterministically produces the workflow document. Building it
// does no I/O beyond resolving the container image reference.
func (b *Builder) Definition() (*Definition, error) {
	if b.bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}
	if b.roleARN == "" {
		return nil, fmt.Errorf("role ARN must not be empty")
	}

	image, err := ImageURI(b.region)
	if err != nil {
		return nil, err
	}

	def := &Definition{
		Version: SchemaVersion,
		Parameters: []Parameter{
			{Name: "NumRound", Type: "Integer", DefaultValue: b.spec.Pipeline.Training.NumRound},
			{Name: "InstanceType", Type: "String", DefaultValue: b.spec.Pipeline.Training.InstanceType},
		},
		Steps: []Step{
			b.tuningStep(image),
			b.evaluationStep(image),
			b.conditionStep(image),
		},
	}
	return def, nil
}

// JSON renders the definition as the indented document the service ingests.
func (b *Builder) JSON() ([]byte, error) {
	def, err := b.Definition()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(def, "", "  ")
}

func (b *Builder) s3(path string) string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, path)
}

// instanceTypeRef resolves the InstanceType parameter at execution time.
func instanceTypeRef() map[string]interface{} {
	return map[string]interface{}{"Get": "Parameters.InstanceType"}
}

// bestModelRef resolves the best tuning trial's artifact location at
// execution time.
func (b *Builder) bestModelRef() map[string]interface{} {
	return map[string]interface{}{
		"Std:Join": map[string]interface{}{
			"On": "/",
			"Values": []interface{}{
				b.s3(modelArtifactsPrefix),
				map[string]interface{}{"Get": fmt.Sprintf("Steps.%s.BestTrainingJob.TrainingJobName", TuningStepName)},
				"output/model.tar.gz",
			},
		},
	}
}

func (b *Builder) tuningStep(image string) Step {
	tuning := b.spec.Pipeline.Tuning
	return Step{
		Name: TuningStepName,
		Type: "Tuning",
		Arguments: map[string]interface{}{
			"HyperParameterTuningJobConfig": map[string]interface{}{
				"Strategy": "Bayesian",
				"HyperParameterTuningJobObjective": map[string]interface{}{
					"Type":       "Minimize",
					"MetricName": ObjectiveMetricName,
				},
				"ResourceLimits": map[string]interface{}{
					"MaxNumberOfTrainingJobs": tuning.MaxJobs,
					"MaxParallelTrainingJobs": tuning.MaxParallelJobs,
				},
				"ParameterRanges": map[string]interface{}{
					"IntegerParameterRanges": []interface{}{
						integerRange("max_depth", tuning.MaxDepth),
						integerRange("num_round", tuning.NumRound),
					},
					"ContinuousParameterRanges": []interface{}{
						continuousRange("eta", tuning.Eta),
					},
				},
			},
			"TrainingJobDefinition": map[string]interface{}{
				"AlgorithmSpecification": map[string]interface{}{
					"TrainingImage":     image,
					"TrainingInputMode": "File",
					"MetricDefinitions": []interface{}{
						map[string]interface{}{"Name": ObjectiveMetricName, "Regex": MetricRegex},
					},
				},
				"RoleArn": b.roleARN,
				"InputDataConfig": []interface{}{
					b.channel("train", trainPrefix),
					b.channel("validation", validationPrefix),
				},
				"OutputDataConfig": map[string]interface{}{
					"S3OutputPath": b.s3(modelArtifactsPrefix),
				},
				"ResourceConfig": map[string]interface{}{
					"InstanceCount":  1,
					"InstanceType":   instanceTypeRef(),
					"VolumeSizeInGB": b.spec.Pipeline.Training.VolumeSizeGB,
				},
				"StoppingCondition": map[string]interface{}{
					"MaxRuntimeInSeconds": b.spec.Pipeline.Training.MaxRuntimeSeconds,
				},
				"StaticHyperParameters": map[string]interface{}{
					"objective": "multi:softprob",
					"num_class": "3",
				},
			},
		},
	}
}

func (b *Builder) evaluationStep(image string) Step {
	return Step{
		Name: EvaluationStepName,
		Type: "Processing",
		Arguments: map[string]interface{}{
			"AppSpecification": map[string]interface{}{
				"ImageUri":            image,
				"ContainerEntrypoint": []interface{}{"evaluate"},
			},
			"RoleArn": b.roleARN,
			"ProcessingInputs": []interface{}{
				map[string]interface{}{
					"InputName": "model",
					"S3Input": map[string]interface{}{
						"S3Uri":     b.bestModelRef(),
						"LocalPath": "/opt/ml/processing/model",
					},
				},
				map[string]interface{}{
					"InputName": "test",
					"S3Input": map[string]interface{}{
						"S3Uri":     b.s3(testPrefix),
						"LocalPath": "/opt/ml/processing/test",
					},
				},
			},
			"ProcessingOutputConfig": map[string]interface{}{
				"Outputs": []interface{}{
					map[string]interface{}{
						"OutputName": "evaluation",
						"S3Output": map[string]interface{}{
							"S3Uri":     b.s3(evaluationPrefix),
							"LocalPath": "/opt/ml/processing/evaluation",
						},
					},
				},
			},
			"ProcessingResources": map[string]interface{}{
				"ClusterConfig": map[string]interface{}{
					"InstanceCount":  1,
					"InstanceType":   instanceTypeRef(),
					"VolumeSizeInGB": b.spec.Pipeline.Training.VolumeSizeGB,
				},
			},
		},
		PropertyFiles: []PropertyFile{
			{
				PropertyFileName: "EvaluationReport",
				OutputName:       "evaluation",
				FilePath:         "evaluation.json",
			},
		},
	}
}

func (b *Builder) conditionStep(image string) Step {
	return Step{
		Name: ConditionStepName,
		Type: "Condition",
		Arguments: map[string]interface{}{
			"Conditions": []interface{}{
				map[string]interface{}{
					"Type": "GreaterThanOrEqualTo",
					"LeftValue": map[string]interface{}{
						"Std:JsonGet": map[string]interface{}{
							"PropertyFile": map[string]interface{}{
								"Get": fmt.Sprintf("Steps.%s.PropertyFiles.EvaluationReport", EvaluationStepName),
							},
							"Path": "accuracy",
						},
					},
					"RightValue": b.spec.Pipeline.Evaluation.AccuracyThreshold,
				},
			},
			"IfSteps":   []interface{}{b.registerStep(image)},
			"ElseSteps": []interface{}{},
		},
	}
}

func (b *Builder) registerStep(image string) Step {
	return Step{
		Name: RegisterStepName,
		Type: "RegisterModel",
		Arguments: map[string]interface{}{
			"ModelPackageGroupName": b.modelPackageGroup,
			"ModelApprovalStatus":   "PendingManualApproval",
			"InferenceSpecification": map[string]interface{}{
				"Containers": []interface{}{
					map[string]interface{}{
						"Image":        image,
						"ModelDataUrl": b.bestModelRef(),
					},
				},
				"SupportedContentTypes":      []interface{}{"text/csv"},
				"SupportedResponseMIMETypes": []interface{}{"text/csv"},
				"SupportedRealtimeInferenceInstanceTypes": []interface{}{
					"ml.m5.large", "ml.t2.medium",
				},
				"SupportedTransformInstanceTypes": []interface{}{"ml.m5.large"},
			},
		},
	}
}

func (b *Builder) channel(name, prefix string) map[string]interface{} {
	return map[string]interface{}{
		"ChannelName": name,
		"ContentType": "text/csv",
		"DataSource": map[string]interface{}{
			"S3DataSource": map[string]interface{}{
				"S3DataType": "S3Prefix",
				"S3Uri":      b.s3(prefix),
			},
		},
	}
}

func integerRange(name string, r spec.IntRange) map[string]interface{} {
	return map[string]interface{}{
		"Name":     name,
		"MinValue": fmt.Sprintf("%d", r.Min),
		"MaxValue": fmt.Sprintf("%d", r.Max),
	}
}

func continuousRange(name string, r spec.FloatRange) map[string]interface{} {
	return map[string]interface{}{
		"Name":     name,
		"MinValue": fmt.Sprintf("%g", r.Min),
		"MaxValue": fmt.Sprintf("%g", r.Max),
	}
}
