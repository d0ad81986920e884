package dataset

import (
	"fmt"
	"math/rand"
)

// Split holds the result of a stratified train/test partition.
type Split struct {
	TrainX [][]float64
	TrainY []int
	TestX  [][]float64
	TestY  []int
}

// StratifiedSplit partitions (X, y) so each class contributes the same
// fraction of test samples. Classes with a single sample stay in the
// training set.
func StratifiedSplit(X [][]float64, y []int, testFraction float64, rng *rand.Rand) (Split, error) {
	if len(X) != len(y) {
		return Split{}, fmt.Errorf("feature rows (%d) and labels (%d) differ in length", len(X), len(y))
	}
	if testFraction <= 0 || testFraction >= 1 {
		return Split{}, fmt.Errorf("test fraction %v out of range (0, 1)", testFraction)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	var s Split
	for _, idxs := range byClass {
		rng.Shuffle(len(idxs), func(i, j int) { idxs[i], idxs[j] = idxs[j], idxs[i] })
		nTest := int(float64(len(idxs)) * testFraction)
		if nTest == 0 && len(idxs) > 1 {
			nTest = 1
		}
		for k, idx := range idxs {
			if k < nTest {
				s.TestX = append(s.TestX, X[idx])
				s.TestY = append(s.TestY, y[idx])
			} else {
				s.TrainX = append(s.TrainX, X[idx])
				s.TrainY = append(s.TrainY, y[idx])
			}
		}
	}
	if len(s.TrainX) == 0 {
		return Split{}, fmt.Errorf("stratified split produced an empty training set")
	}
	return s, nil
}

// KFolds returns k index folds over n samples, shuffled. Fold sizes differ by
// at most one. k is clamped to n.
func KFolds(n, k int, rng *rand.Rand) [][]int {
	if k > n {
		k = n
	}
	if k < 2 {
		return [][]int{rng.Perm(n)}
	}
	perm := rng.Perm(n)
	folds := make([][]int, k)
	for i, idx := range perm {
		folds[i%k] = append(folds[i%k], idx)
	}
	return folds
}
