package dataset

// ClassNames lists the recognized class labels in label-code order:
// code 0 is ClassNames[0] and so on.
var ClassNames = []string{
	"Iris-setosa",
	"Iris-versicolor",
	"Iris-virginica",
}

const (
	// ClassCount is the number of target classes.
	ClassCount = 3

	// FeatureCount is the fixed feature schema width:
	// sepal length, sepal width, petal length, petal width.
	FeatureCount = 4

	// LabelColumn is the label column name in the raw dataset.
	LabelColumn = "Species"

	// IDColumn is a row-number column some raw exports carry; it is not a
	// feature and is dropped on read.
	IDColumn = "Id"
)

// Table holds labeled rows. Labels are dense class codes aligned with
// ClassNames; Features rows are FeatureCount wide.
type Table struct {
	Labels   []int
	Features [][]float64
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Labels)
}

// LabelCode maps a raw class name to its dense code.
func LabelCode(name string) (int, bool) {
	for i, c := range ClassNames {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// ClassCounts returns the number of rows per class code.
func (t *Table) ClassCounts() []int {
	counts := make([]int, ClassCount)
	for _, label := range t.Labels {
		if label >= 0 && label < ClassCount {
			counts[label]++
		}
	}
	return counts
}
