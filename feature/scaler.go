package feature

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes features to zero mean and unit variance,
// column by column. It is fit once during training and read-only thereafter.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// Fit computes per-column mean and standard deviation over X.
// Columns with zero variance get a std of 1 so Transform leaves them centered
// instead of dividing by zero.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return fmt.Errorf("cannot fit scaler on empty dataset")
	}
	cols := len(X[0])
	s.Means = make([]float64, cols)
	s.Stds = make([]float64, cols)

	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		s.Means[j] = mean
		if std == 0 || len(X) < 2 {
			std = 1
		}
		s.Stds[j] = std
	}
	return nil
}

// Transform returns a standardized copy of x. The input is not modified.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(s.Means) == 0 {
		return nil, fmt.Errorf("scaler is not fitted")
	}
	if len(x) != len(s.Means) {
		return nil, fmt.Errorf("feature length %d does not match fitted width %d; catalog changed since training", len(x), len(s.Means))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Means[i]) / s.Stds[i]
	}
	return out, nil
}

// FitTransform fits the scaler on X and returns the standardized matrix.
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

// Fitted reports whether Fit has been called (directly or via artifact load).
func (s *StandardScaler) Fitted() bool { return len(s.Means) > 0 }
