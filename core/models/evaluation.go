package models

// ClassMetrics holds per-class scoring results.
//
// The JSON field names are a binding contract: the pipeline's conditional
// registration step reads the evaluation report with a JSON-path lookup.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// MacroMetrics holds unweighted averages across classes.
type MacroMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
}

// EvaluationReport is the structured document written once per evaluation
// run. The "accuracy" field is what the registration condition inspects.
type EvaluationReport struct {
	Accuracy        float64                 `json:"accuracy"`
	ConfusionMatrix [][]int                 `json:"confusion_matrix"`
	PerClass        map[string]ClassMetrics `json:"per_class_metrics"`
	MacroAvg        MacroMetrics            `json:"macro_avg"`
}
