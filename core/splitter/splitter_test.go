package splitter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retrain-orchestrator/core/dataset"
)

// makeTable builds a labeled table with the given per-class row counts and
// deterministic features.
func makeTable(counts []int) *dataset.Table {
	t := &dataset.Table{}
	for class, n := range counts {
		for i := 0; i < n; i++ {
			t.Labels = append(t.Labels, class)
			base := float64(class)*10 + float64(i)*0.01
			t.Features = append(t.Features, []float64{base, base + 1, base + 2, base + 3})
		}
	}
	return t
}

// writeRawCSV writes a raw dataset file with header, Id column and class
// names, the shape the splitter ingests.
func writeRawCSV(t *testing.T, path string, counts []int) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("Id,SepalLengthCm,SepalWidthCm,PetalLengthCm,PetalWidthCm,Species\n")
	id := 1
	for class, n := range counts {
		for i := 0; i < n; i++ {
			base := float64(class)*10 + float64(i)*0.01
			fmt.Fprintf(&sb, "%d,%g,%g,%g,%g,%s\n", id, base, base+1, base+2, base+3, dataset.ClassNames[class])
			id++
		}
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write raw csv: %v", err)
	}
}

func TestSplitRatiosMustSumToOne(t *testing.T) {
	s := New()
	s.TrainRatio = 0.5

	_, err := s.Split(makeTable([]int{10, 10, 10}))
	if err == nil {
		t.Fatal("expected error for ratios not summing to 1.0")
	}
}

func TestSplitRatioTolerance(t *testing.T) {
	s := New()
	s.TrainRatio = 0.6005 // within the 0.001 tolerance

	if _, err := s.Split(makeTable([]int{10, 10, 10})); err != nil {
		t.Fatalf("Split() err=%v, want nil within tolerance", err)
	}
}

func TestSplitStratifiedBalanced(t *testing.T) {
	res, err := New().Split(makeTable([]int{50, 50, 50}))
	if err != nil {
		t.Fatalf("Split() err=%v", err)
	}

	if res.Train.Len() != 90 || res.Validation.Len() != 30 || res.Test.Len() != 30 {
		t.Fatalf("sizes train=%d val=%d test=%d, want 90/30/30",
			res.Train.Len(), res.Validation.Len(), res.Test.Len())
	}

	for name, part := range map[string]*dataset.Table{
		"train": res.Train, "validation": res.Validation, "test": res.Test,
	} {
		counts := part.ClassCounts()
		want := part.Len() / dataset.ClassCount
		for class, got := range counts {
			if got != want {
				t.Errorf("%s partition class %d has %d samples, want %d", name, class, got, want)
			}
		}
	}
}

func TestSplitStratifiedUnbalanced(t *testing.T) {
	res, err := New().Split(makeTable([]int{40, 30, 20}))
	if err != nil {
		t.Fatalf("Split() err=%v", err)
	}

	// Per class: test and validation get round(n*0.2), train the rest.
	wantTest := []int{8, 6, 4}
	gotTest := res.Test.ClassCounts()
	gotVal := res.Validation.ClassCounts()
	gotTrain := res.Train.ClassCounts()
	for class := range wantTest {
		if gotTest[class] != wantTest[class] {
			t.Errorf("test class %d: got %d, want %d", class, gotTest[class], wantTest[class])
		}
		if gotVal[class] != wantTest[class] {
			t.Errorf("validation class %d: got %d, want %d", class, gotVal[class], wantTest[class])
		}
		total := gotTrain[class] + gotVal[class] + gotTest[class]
		if total != []int{40, 30, 20}[class] {
			t.Errorf("class %d rows lost: partitions sum to %d", class, total)
		}
	}
}

func TestSplitPartitionsAreDisjoint(t *testing.T) {
	res, err := New().Split(makeTable([]int{30, 30, 30}))
	if err != nil {
		t.Fatalf("Split() err=%v", err)
	}

	seen := make(map[float64]string)
	for name, part := range map[string]*dataset.Table{
		"train": res.Train, "validation": res.Validation, "test": res.Test,
	} {
		for _, row := range part.Features {
			// First feature uniquely identifies the source row.
			if prev, ok := seen[row[0]]; ok {
				t.Fatalf("row %g appears in both %s and %s", row[0], prev, name)
			}
			seen[row[0]] = name
		}
	}
	if len(seen) != 90 {
		t.Errorf("partitions cover %d rows, want 90", len(seen))
	}
}

func TestRunDeterministic(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "iris.csv")
	writeRawCSV(t, raw, []int{50, 50, 50})

	out1 := filepath.Join(dir, "out1")
	out2 := filepath.Join(dir, "out2")
	ctx := context.Background()

	if _, err := New().Run(ctx, raw, out1, nil, ""); err != nil {
		t.Fatalf("first Run() err=%v", err)
	}
	if _, err := New().Run(ctx, raw, out2, nil, ""); err != nil {
		t.Fatalf("second Run() err=%v", err)
	}

	for _, name := range []string{"iris_train.csv", "iris_validation.csv", "iris_test.csv"} {
		a, err := os.ReadFile(filepath.Join(out1, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		b, err := os.ReadFile(filepath.Join(out2, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between identical runs", name)
		}
	}
}

func TestRunWritesLabelFirstHeaderless(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "iris.csv")
	writeRawCSV(t, raw, []int{10, 10, 10})

	out := filepath.Join(dir, "out")
	if _, err := New().Run(context.Background(), raw, out, nil, ""); err != nil {
		t.Fatalf("Run() err=%v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "iris_train.csv"))
	if err != nil {
		t.Fatalf("read train partition: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		first := strings.SplitN(line, ",", 2)[0]
		if first != "0" && first != "1" && first != "2" {
			t.Fatalf("line %q does not start with a label code", line)
		}
	}
}

func TestRunMissingInputFails(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	_, err := New().Run(context.Background(), filepath.Join(dir, "nope.csv"), out, nil, "")
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output dir created despite missing input")
	}
}

func TestRunUnknownLabelFailsBeforeWrite(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "iris.csv")
	content := "Id,A,B,C,D,Species\n1,1,2,3,4,Iris-setosa\n2,1,2,3,4,Iris-bogus\n"
	if err := os.WriteFile(raw, []byte(content), 0o644); err != nil {
		t.Fatalf("write raw csv: %v", err)
	}

	out := filepath.Join(dir, "out")
	_, err := New().Run(context.Background(), raw, out, nil, "")
	if err == nil {
		t.Fatal("expected error for unknown label")
	}
	if !strings.Contains(err.Error(), "Iris-bogus") {
		t.Errorf("error %q does not name the unknown label", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output dir created despite invalid input")
	}
}
