package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"retrain-orchestrator/core/spec"
)

func testBuilder() *Builder {
	return NewBuilder(spec.Default(), "test-bucket", "arn:aws:iam::123456789012:role/sm-exec", "us-east-1", "iris-models")
}

func TestDefinitionShape(t *testing.T) {
	def, err := testBuilder().Definition()
	if err != nil {
		t.Fatalf("Definition() err=%v", err)
	}

	if def.Version != SchemaVersion {
		t.Errorf("Version=%q, want %q", def.Version, SchemaVersion)
	}

	if len(def.Steps) != 3 {
		t.Fatalf("got %d top-level steps, want 3", len(def.Steps))
	}
	wantSteps := []struct{ name, typ string }{
		{TuningStepName, "Tuning"},
		{EvaluationStepName, "Processing"},
		{ConditionStepName, "Condition"},
	}
	for i, want := range wantSteps {
		if def.Steps[i].Name != want.name || def.Steps[i].Type != want.typ {
			t.Errorf("step %d = %s/%s, want %s/%s",
				i, def.Steps[i].Name, def.Steps[i].Type, want.name, want.typ)
		}
	}
}

func TestDefinitionParameters(t *testing.T) {
	def, err := testBuilder().Definition()
	if err != nil {
		t.Fatalf("Definition() err=%v", err)
	}

	if len(def.Parameters) != 2 {
		t.Fatalf("got %d parameters, want 2", len(def.Parameters))
	}
	if def.Parameters[0].Name != "NumRound" || def.Parameters[0].DefaultValue != 50 {
		t.Errorf("NumRound parameter = %+v", def.Parameters[0])
	}
	if def.Parameters[1].Name != "InstanceType" || def.Parameters[1].DefaultValue != "ml.m5.large" {
		t.Errorf("InstanceType parameter = %+v", def.Parameters[1])
	}
}

func TestTuningStepConfig(t *testing.T) {
	def, err := testBuilder().Definition()
	if err != nil {
		t.Fatalf("Definition() err=%v", err)
	}
	args := def.Steps[0].Arguments

	cfg := args["HyperParameterTuningJobConfig"].(map[string]interface{})
	if cfg["Strategy"] != "Bayesian" {
		t.Errorf("Strategy=%v", cfg["Strategy"])
	}

	objective := cfg["HyperParameterTuningJobObjective"].(map[string]interface{})
	if objective["Type"] != "Minimize" || objective["MetricName"] != ObjectiveMetricName {
		t.Errorf("objective=%v", objective)
	}

	limits := cfg["ResourceLimits"].(map[string]interface{})
	if limits["MaxNumberOfTrainingJobs"] != 9 || limits["MaxParallelTrainingJobs"] != 3 {
		t.Errorf("ResourceLimits=%v, want 9/3", limits)
	}

	ranges := cfg["ParameterRanges"].(map[string]interface{})
	intRanges := ranges["IntegerParameterRanges"].([]interface{})
	if len(intRanges) != 2 {
		t.Fatalf("got %d integer ranges, want 2 (max_depth, num_round)", len(intRanges))
	}
	depth := intRanges[0].(map[string]interface{})
	if depth["Name"] != "max_depth" || depth["MinValue"] != "3" || depth["MaxValue"] != "10" {
		t.Errorf("max_depth range=%v", depth)
	}
	eta := ranges["ContinuousParameterRanges"].([]interface{})[0].(map[string]interface{})
	if eta["Name"] != "eta" || eta["MinValue"] != "0.01" || eta["MaxValue"] != "0.3" {
		t.Errorf("eta range=%v", eta)
	}

	job := args["TrainingJobDefinition"].(map[string]interface{})
	static := job["StaticHyperParameters"].(map[string]interface{})
	if static["objective"] != "multi:softprob" || static["num_class"] != "3" {
		t.Errorf("StaticHyperParameters=%v", static)
	}

	channels := job["InputDataConfig"].([]interface{})
	names := []string{}
	for _, c := range channels {
		names = append(names, c.(map[string]interface{})["ChannelName"].(string))
	}
	if len(names) != 2 || names[0] != "train" || names[1] != "validation" {
		t.Errorf("channels=%v, want [train validation]", names)
	}
}

func TestMetricRegexScrapesTrainerOutput(t *testing.T) {
	re := regexp.MustCompile(MetricRegex)

	for _, line := range []string{
		"validation:mlogloss=0.1234;",
		"validation:mlogloss=1;",
		"2024/01/02 15:04:05 validation:mlogloss=0.08976543;",
	} {
		m := re.FindStringSubmatch(line)
		if m == nil {
			t.Errorf("regex did not match %q", line)
			continue
		}
		if strings.Contains(m[1], ";") {
			t.Errorf("capture %q includes the terminator", m[1])
		}
	}
}

func TestEvaluationStepPropertyFile(t *testing.T) {
	def, err := testBuilder().Definition()
	if err != nil {
		t.Fatalf("Definition() err=%v", err)
	}

	files := def.Steps[1].PropertyFiles
	if len(files) != 1 {
		t.Fatalf("got %d property files, want 1", len(files))
	}
	pf := files[0]
	if pf.PropertyFileName != "EvaluationReport" || pf.OutputName != "evaluation" || pf.FilePath != "evaluation.json" {
		t.Errorf("PropertyFile=%+v", pf)
	}
}

func TestConditionStepGatesRegistration(t *testing.T) {
	def, err := testBuilder().Definition()
	if err != nil {
		t.Fatalf("Definition() err=%v", err)
	}
	args := def.Steps[2].Arguments

	conds := args["Conditions"].([]interface{})
	if len(conds) != 1 {
		t.Fatalf("got %d conditions, want 1", len(conds))
	}
	cond := conds[0].(map[string]interface{})
	if cond["Type"] != "GreaterThanOrEqualTo" {
		t.Errorf("condition Type=%v", cond["Type"])
	}
	if cond["RightValue"] != 0.90 {
		t.Errorf("RightValue=%v, want 0.90", cond["RightValue"])
	}

	left := cond["LeftValue"].(map[string]interface{})
	jsonGet := left["Std:JsonGet"].(map[string]interface{})
	if jsonGet["Path"] != "accuracy" {
		t.Errorf("JsonGet Path=%v, want accuracy", jsonGet["Path"])
	}
	propFile := jsonGet["PropertyFile"].(map[string]interface{})
	if propFile["Get"] != "Steps.EvaluateXGBoostModel.PropertyFiles.EvaluationReport" {
		t.Errorf("PropertyFile ref=%v", propFile["Get"])
	}

	ifSteps := args["IfSteps"].([]interface{})
	if len(ifSteps) != 1 {
		t.Fatalf("got %d IfSteps, want 1", len(ifSteps))
	}
	register := ifSteps[0].(Step)
	if register.Name != RegisterStepName || register.Type != "RegisterModel" {
		t.Errorf("register step = %s/%s", register.Name, register.Type)
	}
	if register.Arguments["ModelApprovalStatus"] != "PendingManualApproval" {
		t.Errorf("ModelApprovalStatus=%v", register.Arguments["ModelApprovalStatus"])
	}
	if register.Arguments["ModelPackageGroupName"] != "iris-models" {
		t.Errorf("ModelPackageGroupName=%v", register.Arguments["ModelPackageGroupName"])
	}

	if elseSteps := args["ElseSteps"].([]interface{}); len(elseSteps) != 0 {
		t.Errorf("ElseSteps=%v, want empty", elseSteps)
	}
}

func TestJSONIsValidDocument(t *testing.T) {
	data, err := testBuilder().JSON()
	if err != nil {
		t.Fatalf("JSON() err=%v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc["Version"] != SchemaVersion {
		t.Errorf("Version=%v", doc["Version"])
	}
	if !strings.Contains(string(data), "683313688378.dkr.ecr.us-east-1.amazonaws.com/sagemaker-xgboost:1.7-1") {
		t.Error("document does not reference the regional algorithm image")
	}
}

func TestDefinitionValidatesInputs(t *testing.T) {
	if _, err := NewBuilder(spec.Default(), "", "arn:role", "us-east-1", "g").Definition(); err == nil {
		t.Error("expected error for empty bucket")
	}
	if _, err := NewBuilder(spec.Default(), "b", "", "us-east-1", "g").Definition(); err == nil {
		t.Error("expected error for empty role ARN")
	}
	if _, err := NewBuilder(spec.Default(), "b", "arn:role", "mars-north-1", "g").Definition(); err == nil {
		t.Error("expected error for unsupported region")
	}
}

func TestImageURI(t *testing.T) {
	uri, err := ImageURI("us-east-1")
	if err != nil {
		t.Fatalf("ImageURI() err=%v", err)
	}
	want := "683313688378.dkr.ecr.us-east-1.amazonaws.com/sagemaker-xgboost:1.7-1"
	if uri != want {
		t.Errorf("ImageURI=%q, want %q", uri, want)
	}

	if _, err := ImageURI("mars-north-1"); err == nil {
		t.Error("expected error for unsupported region")
	}
}
