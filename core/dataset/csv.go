package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// ReadRaw reads the raw labeled dataset. The file must carry a header row
// with a Species column; an Id column is dropped if present. Every label
// must map to a known class, otherwise the whole read fails before any
// caller gets partial data.
func ReadRaw(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset %s has no data rows", path)
	}

	header := records[0]
	labelCol := -1
	idCol := -1
	for i, name := range header {
		switch name {
		case LabelColumn:
			labelCol = i
		case IDColumn:
			idCol = i
		}
	}
	if labelCol < 0 {
		return nil, fmt.Errorf("%q column not found in %s", LabelColumn, path)
	}

	t := &Table{}
	for rowNum, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", rowNum+1, len(rec), len(header))
		}

		code, ok := LabelCode(rec[labelCol])
		if !ok {
			return nil, fmt.Errorf("unknown label %q at row %d", rec[labelCol], rowNum+1)
		}

		features := make([]float64, 0, len(rec)-1)
		for i, field := range rec {
			if i == labelCol || i == idCol {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", rowNum+1, header[i], err)
			}
			features = append(features, v)
		}
		if len(features) != FeatureCount {
			return nil, fmt.Errorf("row %d has %d features, expected %d", rowNum+1, len(features), FeatureCount)
		}

		t.Labels = append(t.Labels, code)
		t.Features = append(t.Features, features)
	}

	return t, nil
}

// ReadHeaderless reads a split partition: headerless CSV, label column
// first, then the fixed feature schema.
func ReadHeaderless(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open partition %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read partition %s: %w", path, err)
	}

	t := &Table{}
	for rowNum, rec := range records {
		if len(rec) != FeatureCount+1 {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", rowNum, len(rec), FeatureCount+1)
		}

		label, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d label: %w", rowNum, err)
		}
		if label < 0 || label >= ClassCount {
			return nil, fmt.Errorf("row %d label %d out of range", rowNum, label)
		}

		features := make([]float64, FeatureCount)
		for i := 0; i < FeatureCount; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d feature %d: %w", rowNum, i, err)
			}
			features[i] = v
		}

		t.Labels = append(t.Labels, label)
		t.Features = append(t.Features, features)
	}

	return t, nil
}

// WriteHeaderless writes a partition as a headerless CSV with the label
// column first. Output is byte-stable for identical tables.
func WriteHeaderless(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create partition %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rec := make([]string, FeatureCount+1)
	for i := range t.Labels {
		rec[0] = strconv.Itoa(t.Labels[i])
		for j, v := range t.Features[i] {
			rec[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write partition %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush partition %s: %w", path, err)
	}
	return nil
}
