package metrics

import (
	"fmt"

	"retrain-orchestrator/core/models"
)

// Accuracy is the fraction of predictions matching the true labels.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// ConfusionMatrix returns a k x k matrix where entry [i][j] counts samples
// of true class i predicted as class j.
func ConfusionMatrix(yTrue, yPred []int, numClass int) [][]int {
	m := make([][]int, numClass)
	for i := range m {
		m[i] = make([]int, numClass)
	}
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= numClass || yPred[i] < 0 || yPred[i] >= numClass {
			continue
		}
		m[yTrue[i]][yPred[i]]++
	}
	return m
}

// Report computes the full evaluation report: accuracy, confusion matrix,
// per-class precision/recall/F1/support and macro averages. Undefined
// ratios (no predictions or no samples for a class) score zero.
func Report(yTrue, yPred []int, classNames []string) (*models.EvaluationReport, error) {
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("no samples to score")
	}
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("label/prediction length mismatch: %d vs %d", len(yTrue), len(yPred))
	}

	k := len(classNames)
	conf := ConfusionMatrix(yTrue, yPred, k)

	report := &models.EvaluationReport{
		Accuracy:        Accuracy(yTrue, yPred),
		ConfusionMatrix: conf,
		PerClass:        make(map[string]models.ClassMetrics, k),
	}

	for c := 0; c < k; c++ {
		tp := conf[c][c]
		support := 0
		predicted := 0
		for j := 0; j < k; j++ {
			support += conf[c][j]
			predicted += conf[j][c]
		}

		var precision, recall, f1 float64
		if predicted > 0 {
			precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			recall = float64(tp) / float64(support)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		report.PerClass[classNames[c]] = models.ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}

		report.MacroAvg.Precision += precision / float64(k)
		report.MacroAvg.Recall += recall / float64(k)
		report.MacroAvg.F1 += f1 / float64(k)
	}

	return report, nil
}
