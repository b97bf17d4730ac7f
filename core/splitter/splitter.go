package splitter

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"retrain-orchestrator/core/dataset"
	"retrain-orchestrator/storage"
)

// Remote object-store layout the pipeline expects for the partitions.
const (
	TrainKey      = "data/train/iris.csv"
	ValidationKey = "data/validation/iris.csv"
	TestKey       = "data/test/iris.csv"
)

// Local partition file names.
const (
	trainFile      = "iris_train.csv"
	validationFile = "iris_validation.csv"
	testFile       = "iris_test.csv"
)

// ratioTolerance is how far the three ratios may drift from summing to 1.0.
const ratioTolerance = 0.001

// Splitter produces a stratified three-way split of a labeled dataset.
type Splitter struct {
	TrainRatio      float64
	ValidationRatio float64
	TestRatio       float64
	Seed            int64
}

// New returns a splitter with the fixed 60/20/20 ratios and the fixed seed,
// so repeated runs over the same input are byte-identical.
func New() *Splitter {
	return &Splitter{
		TrainRatio:      0.6,
		ValidationRatio: 0.2,
		TestRatio:       0.2,
		Seed:            42,
	}
}

// Result holds the three disjoint partitions.
type Result struct {
	Train      *dataset.Table
	Validation *dataset.Table
	Test       *dataset.Table
}

// Split partitions t into stratified train/validation/test subsets.
// Stratification is per class: each class is shuffled with the seeded
// source and carved by the configured ratios, so class proportions stay
// consistent across partitions.
func (s *Splitter) Split(t *dataset.Table) (*Result, error) {
	if err := s.validateRatios(); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("empty dataset")
	}

	byClass := make([][]int, dataset.ClassCount)
	for i, label := range t.Labels {
		byClass[label] = append(byClass[label], i)
	}

	rnd := rand.New(rand.NewSource(s.Seed))
	res := &Result{
		Train:      &dataset.Table{},
		Validation: &dataset.Table{},
		Test:       &dataset.Table{},
	}

	for _, indices := range byClass {
		rnd.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		n := len(indices)
		nTest := int(math.Round(float64(n) * s.TestRatio))
		nVal := int(math.Round(float64(n) * s.ValidationRatio))
		if nTest+nVal > n {
			nVal = n - nTest
		}

		appendRows(res.Test, t, indices[:nTest])
		appendRows(res.Validation, t, indices[nTest:nTest+nVal])
		appendRows(res.Train, t, indices[nTest+nVal:])
	}

	return res, nil
}

// Run reads the raw dataset, splits it, writes the three headerless
// partition files into outDir and, when an uploader is supplied, uploads
// each to its fixed remote location. A missing or invalid input fails the
// whole operation before anything is written.
func (s *Splitter) Run(ctx context.Context, inputPath, outDir string, uploader storage.Uploader, bucket string) (*Result, error) {
	t, err := dataset.ReadRaw(inputPath)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %d samples, class distribution: %v", t.Len(), t.ClassCounts())

	res, err := s.Split(t)
	if err != nil {
		return nil, err
	}

	log.Printf("Split sizes: train=%d validation=%d test=%d",
		res.Train.Len(), res.Validation.Len(), res.Test.Len())

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	local := map[string]*dataset.Table{
		trainFile:      res.Train,
		validationFile: res.Validation,
		testFile:       res.Test,
	}
	for _, name := range []string{trainFile, validationFile, testFile} {
		if err := dataset.WriteHeaderless(filepath.Join(outDir, name), local[name]); err != nil {
			return nil, err
		}
	}

	if uploader != nil {
		uploads := []struct {
			file string
			key  string
		}{
			{trainFile, TrainKey},
			{validationFile, ValidationKey},
			{testFile, TestKey},
		}
		for _, u := range uploads {
			if err := uploader.Upload(ctx, filepath.Join(outDir, u.file), bucket, u.key); err != nil {
				return nil, err
			}
			log.Printf("Uploaded %s to s3://%s/%s", u.file, bucket, u.key)
		}
	}

	return res, nil
}

func (s *Splitter) validateRatios() error {
	sum := s.TrainRatio + s.ValidationRatio + s.TestRatio
	if math.Abs(sum-1.0) > ratioTolerance {
		return fmt.Errorf("split ratios must sum to 1.0, got %g", sum)
	}
	return nil
}

func appendRows(dst *dataset.Table, src *dataset.Table, indices []int) {
	for _, i := range indices {
		dst.Labels = append(dst.Labels, src.Labels[i])
		dst.Features = append(dst.Features, src.Features[i])
	}
}
