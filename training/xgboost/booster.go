// Package xgboost implements a gradient boosted tree classifier with the
// multi:softprob objective and mlogloss evaluation metric, matching the
// hyperparameter surface the tuning step explores (max_depth, eta,
// num_round).
package xgboost

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"

	"retrain-orchestrator/core/dataset"

	"gonum.org/v1/gonum/floats"
)

// ObjectiveSoftprob is the only supported training objective.
const ObjectiveSoftprob = "multi:softprob"

// EvalMetric is the tuning objective metric name.
const EvalMetric = "mlogloss"

// Params configures a training run.
type Params struct {
	Objective      string
	NumClass       int
	MaxDepth       int
	Eta            float64
	NumRound       int
	Lambda         float64 // L2 regularization on leaf weights
	Gamma          float64 // minimum gain to accept a split
	MinChildWeight float64 // minimum hessian sum per child
}

// DefaultParams mirrors the training entry point defaults.
func DefaultParams() Params {
	return Params{
		Objective:      ObjectiveSoftprob,
		NumClass:       dataset.ClassCount,
		MaxDepth:       3,
		Eta:            0.1,
		NumRound:       50,
		Lambda:         1.0,
		Gamma:          0.0,
		MinChildWeight: 1.0,
	}
}

func (p Params) validate() error {
	if p.Objective != ObjectiveSoftprob {
		return fmt.Errorf("unsupported objective %q", p.Objective)
	}
	if p.NumClass < 2 {
		return fmt.Errorf("num_class must be >= 2, got %d", p.NumClass)
	}
	if p.NumRound < 1 {
		return fmt.Errorf("num_round must be >= 1, got %d", p.NumRound)
	}
	if p.Eta <= 0 || p.Eta > 1 {
		return fmt.Errorf("eta must be in (0, 1], got %g", p.Eta)
	}
	if p.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1, got %d", p.MaxDepth)
	}
	return nil
}

// Booster is a trained gradient boosted tree ensemble. Serialized form is
// an opaque binary blob; nothing outside this package inspects it.
type Booster struct {
	NumClass  int
	Eta       float64
	BaseScore float64
	Trees     [][]*treeNode // one tree per class per round
}

// Train fits a booster on train. When valid is non-nil the validation
// mlogloss is computed after every round and returned per round; the last
// entry is the tuning objective the entry point reports.
func Train(p Params, train, valid *dataset.Table) (*Booster, []float64, error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}
	if train.Len() == 0 {
		return nil, nil, fmt.Errorf("empty training set")
	}

	b := &Booster{
		NumClass:  p.NumClass,
		Eta:       p.Eta,
		BaseScore: 0.5,
	}

	scores := b.initScores(train.Len())
	var validScores [][]float64
	var validLoss []float64
	if valid != nil {
		validScores = b.initScores(valid.Len())
	}

	tp := treeParams{
		maxDepth:       p.MaxDepth,
		lambda:         p.Lambda,
		gamma:          p.Gamma,
		minChildWeight: p.MinChildWeight,
	}

	n := train.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	prob := make([]float64, p.NumClass)

	for round := 0; round < p.NumRound; round++ {
		roundTrees := make([]*treeNode, p.NumClass)

		for k := 0; k < p.NumClass; k++ {
			for i := 0; i < n; i++ {
				softmax(scores[i], prob)
				target := 0.0
				if train.Labels[i] == k {
					target = 1.0
				}
				grad[i] = prob[k] - target
				hess[i] = math.Max(prob[k]*(1-prob[k]), 1e-16)
			}
			roundTrees[k] = buildTree(train.Features, grad, hess, indices, 0, tp)
		}

		for i := 0; i < n; i++ {
			for k, tree := range roundTrees {
				scores[i][k] += p.Eta * tree.predict(train.Features[i])
			}
		}
		if valid != nil {
			for i := range validScores {
				for k, tree := range roundTrees {
					validScores[i][k] += p.Eta * tree.predict(valid.Features[i])
				}
			}
			validLoss = append(validLoss, logLoss(validScores, valid.Labels))
		}

		b.Trees = append(b.Trees, roundTrees)
	}

	return b, validLoss, nil
}

// PredictProba returns per-class probabilities for each row.
func (b *Booster) PredictProba(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, x := range features {
		margins := b.margins(x)
		probs := make([]float64, b.NumClass)
		softmax(margins, probs)
		out[i] = probs
	}
	return out
}

// Predict returns the most probable class code for each row.
func (b *Booster) Predict(features [][]float64) []int {
	out := make([]int, len(features))
	for i, x := range features {
		out[i] = floats.MaxIdx(b.margins(x))
	}
	return out
}

// LogLoss computes the multi-class log loss of the booster on t.
func (b *Booster) LogLoss(t *dataset.Table) float64 {
	scores := make([][]float64, t.Len())
	for i := range scores {
		scores[i] = b.margins(t.Features[i])
	}
	return logLoss(scores, t.Labels)
}

// Save writes the booster to path as an opaque binary blob.
func (b *Booster) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(b); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

// Load reads a booster saved by Save.
func Load(path string) (*Booster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file %s: %w", path, err)
	}
	defer f.Close()

	var b Booster
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &b, nil
}

func (b *Booster) initScores(n int) [][]float64 {
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, b.NumClass)
		for k := range scores[i] {
			scores[i][k] = b.BaseScore
		}
	}
	return scores
}

func (b *Booster) margins(x []float64) []float64 {
	m := make([]float64, b.NumClass)
	for k := range m {
		m[k] = b.BaseScore
	}
	for _, roundTrees := range b.Trees {
		for k, tree := range roundTrees {
			m[k] += b.Eta * tree.predict(x)
		}
	}
	return m
}

func softmax(scores []float64, out []float64) {
	lse := floats.LogSumExp(scores)
	for i, s := range scores {
		out[i] = math.Exp(s - lse)
	}
}

func logLoss(scores [][]float64, labels []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	loss := 0.0
	for i, s := range scores {
		loss -= s[labels[i]] - floats.LogSumExp(s)
	}
	return loss / float64(len(scores))
}
