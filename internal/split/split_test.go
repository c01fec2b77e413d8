package split

import "testing"

// labeled builds n single-feature rows per class, with the feature value
// encoding the original row index so rows stay identifiable after shuffling.
func labeled(counts ...int) ([][]float64, []int) {
	var x [][]float64
	var y []int
	row := 0
	for class, n := range counts {
		for i := 0; i < n; i++ {
			x = append(x, []float64{float64(row)})
			y = append(y, class)
			row++
		}
	}
	return x, y
}

func classCounts(y []int) map[int]int {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	return counts
}

// TestStratified_PreservesClassProportions verifies that each class
// contributes the rounded holdout fraction of its own rows.
func TestStratified_PreservesClassProportions(t *testing.T) {
	x, y := labeled(50, 30, 20)

	p, err := Stratified(x, y, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected split to succeed, got %v", err)
	}

	hold := classCounts(p.HoldY)
	if hold[0] != 10 || hold[1] != 6 || hold[2] != 4 {
		t.Errorf("Expected holdout class counts 10/6/4, got %d/%d/%d", hold[0], hold[1], hold[2])
	}
	train := classCounts(p.TrainY)
	if train[0] != 40 || train[1] != 24 || train[2] != 16 {
		t.Errorf("Expected training class counts 40/24/16, got %d/%d/%d", train[0], train[1], train[2])
	}
}

// TestStratified_DisjointAndComplete verifies every input row lands in
// exactly one side of the partition.
func TestStratified_DisjointAndComplete(t *testing.T) {
	x, y := labeled(17, 9, 6)

	p, err := Stratified(x, y, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected split to succeed, got %v", err)
	}

	seen := make(map[float64]int)
	for _, row := range p.TrainX {
		seen[row[0]]++
	}
	for _, row := range p.HoldX {
		seen[row[0]]++
	}
	if len(seen) != len(x) {
		t.Fatalf("Expected %d distinct rows across both sides, got %d", len(x), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("Expected row %g exactly once, got %d occurrences", id, n)
		}
	}
}

// TestStratified_Deterministic verifies that the same seed on the same
// input reproduces the partition row for row.
func TestStratified_Deterministic(t *testing.T) {
	x, y := labeled(25, 25)

	first, err := Stratified(x, y, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected split to succeed, got %v", err)
	}
	second, err := Stratified(x, y, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected split to succeed, got %v", err)
	}

	if len(first.TrainX) != len(second.TrainX) || len(first.HoldX) != len(second.HoldX) {
		t.Fatalf("Expected identical partition sizes, got train %d vs %d, holdout %d vs %d",
			len(first.TrainX), len(second.TrainX), len(first.HoldX), len(second.HoldX))
	}
	for i := range first.TrainX {
		if first.TrainX[i][0] != second.TrainX[i][0] {
			t.Fatalf("Expected identical training order, row %d differs: %g vs %g",
				i, first.TrainX[i][0], second.TrainX[i][0])
		}
	}
	for i := range first.HoldX {
		if first.HoldX[i][0] != second.HoldX[i][0] {
			t.Fatalf("Expected identical holdout order, row %d differs: %g vs %g",
				i, first.HoldX[i][0], second.HoldX[i][0])
		}
	}
}

// TestStratified_TinyClassReachesBothSides verifies the clamp: a two-member
// class whose rounded share would be zero still sends one row to holdout.
func TestStratified_TinyClassReachesBothSides(t *testing.T) {
	x, y := labeled(20, 2)

	p, err := Stratified(x, y, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected split to succeed, got %v", err)
	}

	if got := classCounts(p.HoldY)[1]; got != 1 {
		t.Errorf("Expected 1 holdout row for the two-member class, got %d", got)
	}
	if got := classCounts(p.TrainY)[1]; got != 1 {
		t.Errorf("Expected 1 training row for the two-member class, got %d", got)
	}
}

// TestStratified_SingletonStaysInTraining verifies a one-member class is
// never wasted on the holdout side.
func TestStratified_SingletonStaysInTraining(t *testing.T) {
	x, y := labeled(10, 1)

	p, err := Stratified(x, y, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected split to succeed, got %v", err)
	}

	if got := classCounts(p.TrainY)[1]; got != 1 {
		t.Errorf("Expected the singleton class in training, got %d rows there", got)
	}
	if got := classCounts(p.HoldY)[1]; got != 0 {
		t.Errorf("Expected no holdout rows for the singleton class, got %d", got)
	}
}

// TestStratified_RejectsBadInput covers the argument validation paths.
func TestStratified_RejectsBadInput(t *testing.T) {
	x, y := labeled(4, 4)

	if _, err := Stratified(x, y[:len(y)-1], DefaultConfig()); err == nil {
		t.Error("Expected error for mismatched row and label counts")
	}
	if _, err := Stratified(nil, nil, DefaultConfig()); err == nil {
		t.Error("Expected error for an empty dataset")
	}
	for _, frac := range []float64{0, 1, -0.2, 1.5} {
		cfg := Config{HoldoutFraction: frac, Seed: 42}
		if _, err := Stratified(x, y, cfg); err == nil {
			t.Errorf("Expected error for holdout fraction %g", frac)
		}
	}
}
