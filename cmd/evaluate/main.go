// Evaluation entry point, executed once per pipeline run. Writes the
// evaluation report whose "accuracy" field the conditional registration
// step reads.
package main

import (
	"flag"
	"log"

	"retrain-orchestrator/core/evaluator"
)

func main() {
	modelDir := flag.String("model-dir", "/opt/ml/processing/model", "directory holding the packaged model")
	testDir := flag.String("test-dir", "/opt/ml/processing/test", "directory holding the test partition")
	outputDir := flag.String("output-dir", "/opt/ml/processing/evaluation", "directory for the evaluation report")
	flag.Parse()

	e := &evaluator.Evaluator{
		ModelDir:  *modelDir,
		TestDir:   *testDir,
		OutputDir: *outputDir,
	}

	report, err := e.Run()
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	log.Printf("Overall accuracy: %.4f", report.Accuracy)
	for _, class := range report.ConfusionMatrix {
		log.Printf("  %v", class)
	}
}
