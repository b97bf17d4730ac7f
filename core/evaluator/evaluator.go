package evaluator

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"retrain-orchestrator/core/dataset"
	"retrain-orchestrator/core/metrics"
	"retrain-orchestrator/core/models"
	"retrain-orchestrator/training/xgboost"
)

const (
	modelArchive = "model.tar.gz"
	modelFile    = "model.bst"
	testFile     = "iris.csv"

	// ReportFile is the evaluation document name; the pipeline's condition
	// step resolves its property file against this exact name.
	ReportFile = "evaluation.json"
)

// Evaluator scores a trained model against the held-out test partition and
// writes the evaluation report the conditional registration step reads.
type Evaluator struct {
	ModelDir  string
	TestDir   string
	OutputDir string
}

// Run extracts the packaged model if needed, scores the test partition and
// writes the report to OutputDir. The returned report is the document that
// was written.
func (e *Evaluator) Run() (*models.EvaluationReport, error) {
	if err := e.extractModelArchive(); err != nil {
		return nil, err
	}

	booster, err := xgboost.Load(filepath.Join(e.ModelDir, modelFile))
	if err != nil {
		return nil, err
	}

	test, err := dataset.ReadHeaderless(filepath.Join(e.TestDir, testFile))
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d test samples, class distribution: %v", test.Len(), test.ClassCounts())

	preds := booster.Predict(test.Features)
	report, err := metrics.Report(test.Labels, preds, dataset.ClassNames)
	if err != nil {
		return nil, err
	}

	if err := e.writeReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

// extractModelArchive unpacks model.tar.gz into ModelDir when present.
// Training jobs deliver the model as a gzipped tarball; a bare model file
// is accepted as-is.
func (e *Evaluator) extractModelArchive() error {
	archivePath := filepath.Join(e.ModelDir, modelArchive)
	f, err := os.Open(archivePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open model archive %s: %w", archivePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read model archive %s: %w", archivePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read model archive %s: %w", archivePath, err)
		}

		name := filepath.Clean(hdr.Name)
		if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("model archive entry escapes extraction dir: %s", hdr.Name)
		}
		dest := filepath.Join(e.ModelDir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			out, err := os.Create(dest)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

func (e *Evaluator) writeReport(report *models.EvaluationReport) error {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", e.OutputDir, err)
	}

	path := filepath.Join(e.OutputDir, ReportFile)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode evaluation report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write evaluation report %s: %w", path, err)
	}

	log.Printf("Evaluation report written to %s (accuracy: %.4f)", path, report.Accuracy)
	return nil
}
