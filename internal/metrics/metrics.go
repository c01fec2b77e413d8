// Package metrics summarizes holdout predictions for multiclass
// classifiers.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"transitvet/models"
)

// Confusion is a square count matrix: Counts[a][p] is the number of rows
// with actual class a predicted as class p.
type Confusion struct {
	Classes int
	Counts  [][]int
}

// ClassReport carries one class's slice of the evaluation. Undefined
// ratios are reported as zero.
type ClassReport struct {
	Class     int     `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// NewConfusion tallies predictions against actuals.
func NewConfusion(actual, predicted []int, classes int) (Confusion, error) {
	if len(actual) != len(predicted) {
		return Confusion{}, fmt.Errorf("actual and predicted differ: %d vs %d", len(actual), len(predicted))
	}
	if classes < 1 {
		return Confusion{}, fmt.Errorf("need at least 1 class, got %d", classes)
	}
	c := Confusion{Classes: classes, Counts: make([][]int, classes)}
	for i := range c.Counts {
		c.Counts[i] = make([]int, classes)
	}
	for i, a := range actual {
		p := predicted[i]
		if a < 0 || a >= classes || p < 0 || p >= classes {
			return Confusion{}, fmt.Errorf("class index outside [0, %d) at row %d", classes, i)
		}
		c.Counts[a][p]++
	}
	return c, nil
}

// Support returns how many rows actually belong to class.
func (c Confusion) Support(class int) int {
	total := 0
	for _, n := range c.Counts[class] {
		total += n
	}
	return total
}

// Predicted returns how many rows were assigned to class.
func (c Confusion) Predicted(class int) int {
	total := 0
	for a := 0; a < c.Classes; a++ {
		total += c.Counts[a][class]
	}
	return total
}

// PerClass reports precision, recall, F1 and support for every class.
func (c Confusion) PerClass() []ClassReport {
	reports := make([]ClassReport, c.Classes)
	for class := 0; class < c.Classes; class++ {
		support := c.Support(class)
		predicted := c.Predicted(class)
		tp := float64(c.Counts[class][class])

		r := ClassReport{Class: class, Support: support}
		if predicted > 0 {
			r.Precision = tp / float64(predicted)
		}
		if support > 0 {
			r.Recall = tp / float64(support)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		reports[class] = r
	}
	return reports
}

// Metrics reduces the matrix to the standard holdout summary. Classes
// absent from both actual and predicted are left out of the macro
// averages; the weighted F1 weighs each class by its support.
func (c Confusion) Metrics() models.Metrics {
	n := 0
	correct := 0
	for a := 0; a < c.Classes; a++ {
		correct += c.Counts[a][a]
		for p := 0; p < c.Classes; p++ {
			n += c.Counts[a][p]
		}
	}

	var m models.Metrics
	if n == 0 {
		return m
	}
	m.Accuracy = float64(correct) / float64(n)

	var precs, recs, f1s, supports []float64
	for _, r := range c.PerClass() {
		if r.Support == 0 && c.Predicted(r.Class) == 0 {
			continue
		}
		precs = append(precs, r.Precision)
		recs = append(recs, r.Recall)
		f1s = append(f1s, r.F1)
		supports = append(supports, float64(r.Support))
	}
	if len(f1s) > 0 {
		m.PrecisionMacro = stat.Mean(precs, nil)
		m.RecallMacro = stat.Mean(recs, nil)
		m.F1Macro = stat.Mean(f1s, nil)
		m.F1Weighted = stat.Mean(f1s, supports)
	}
	return m
}

// Evaluate is the one-call form: confusion plus summary.
func Evaluate(actual, predicted []int, classes int) (models.Metrics, error) {
	if len(actual) == 0 {
		return models.Metrics{}, fmt.Errorf("cannot evaluate zero rows")
	}
	c, err := NewConfusion(actual, predicted, classes)
	if err != nil {
		return models.Metrics{}, err
	}
	return c.Metrics(), nil
}
