// Training entry point, executed per tuning trial inside an ephemeral
// container. The final line it prints for the validation metric is a real
// external contract: the tuning service scrapes stdout for
// "validation:mlogloss=<value>;" to score the trial.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"retrain-orchestrator/core/dataset"
	"retrain-orchestrator/core/metrics"
	"retrain-orchestrator/training/xgboost"
)

func main() {
	dataDir := flag.String("data-dir", "/opt/ml/input/data/train", "directory holding the training partition")
	modelDir := flag.String("model-dir", "/opt/ml/model", "directory to save the trained model")
	validationDir := flag.String("validation-dir", "", "directory holding the validation partition")
	numRound := flag.Int("num_round", 50, "boosting rounds")
	maxDepth := flag.Int("max_depth", 3, "maximum tree depth")
	eta := flag.Float64("eta", 0.1, "learning rate")
	numClass := flag.Int("num_class", dataset.ClassCount, "number of target classes")
	objective := flag.String("objective", xgboost.ObjectiveSoftprob, "training objective")
	flag.Parse()

	trainPath, err := firstFileIn(*dataDir)
	if err != nil {
		log.Fatalf("No training data: %v", err)
	}
	log.Printf("Loading training data from: %s", trainPath)

	train, err := dataset.ReadHeaderless(trainPath)
	if err != nil {
		log.Fatalf("Failed to load training data: %v", err)
	}
	log.Printf("Training samples: %d, class distribution: %v", train.Len(), train.ClassCounts())

	valid := loadValidation(*validationDir)

	params := xgboost.DefaultParams()
	params.Objective = *objective
	params.NumClass = *numClass
	params.MaxDepth = *maxDepth
	params.Eta = *eta
	params.NumRound = *numRound

	log.Printf("Training with max_depth=%d eta=%g num_round=%d objective=%s",
		params.MaxDepth, params.Eta, params.NumRound, params.Objective)

	booster, validLoss, err := xgboost.Train(params, train, valid)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	if valid != nil && len(validLoss) > 0 {
		preds := booster.Predict(valid.Features)
		accuracy := metrics.Accuracy(valid.Labels, preds)
		finalLoss := validLoss[len(validLoss)-1]

		// Scraped by the tuning service; the format must not change.
		fmt.Printf("validation:mlogloss=%s;\n", strconv.FormatFloat(finalLoss, 'f', -1, 64))
		fmt.Printf("validation:accuracy=%s\n", strconv.FormatFloat(accuracy, 'f', -1, 64))

		log.Printf("Validation mlogloss: %.6f, accuracy: %.6f", finalLoss, accuracy)
	} else {
		log.Printf("WARNING: no validation data found; no tuning objective emitted for this trial")
	}

	if err := os.MkdirAll(*modelDir, 0o755); err != nil {
		log.Fatalf("Failed to create model dir: %v", err)
	}
	modelPath := filepath.Join(*modelDir, "model.bst")
	if err := booster.Save(modelPath); err != nil {
		log.Fatalf("Failed to save model: %v", err)
	}
	log.Printf("Model saved to %s", modelPath)
}

// loadValidation returns the validation partition or nil when the channel
// is absent or empty; training then proceeds without a tuning signal.
func loadValidation(flagDir string) *dataset.Table {
	dir := os.Getenv("SM_CHANNEL_VALIDATION")
	if dir == "" {
		dir = flagDir
	}
	if dir == "" {
		log.Printf("WARNING: no validation directory provided")
		return nil
	}

	path, err := firstFileIn(dir)
	if err != nil {
		log.Printf("WARNING: no validation data in %s: %v", dir, err)
		return nil
	}

	valid, err := dataset.ReadHeaderless(path)
	if err != nil {
		log.Fatalf("Failed to load validation data: %v", err)
	}
	log.Printf("Validation samples: %d, class distribution: %v", valid.Len(), valid.ClassCounts())
	return valid
}

// firstFileIn returns the path of the first regular file in dir. The
// channel delivers exactly one partition file.
func firstFileIn(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no files in %s", dir)
}
