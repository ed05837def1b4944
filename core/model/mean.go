package model

import (
	"fmt"

	"github.com/causalest/causalest/core/numeric"
	"gonum.org/v1/gonum/mat"
)

// MeanModel ignores the features and predicts the training mean. It serves as
// a baseline and as a deliberately misspecified model.
type MeanModel struct {
	mean   float64
	fitted bool
}

func (m *MeanModel) Fit(x mat.Matrix, y []float64) error {
	n, _ := x.Dims()
	if n != len(y) {
		return fmt.Errorf("%w: x has %d rows, y has %d", ErrDimension, n, len(y))
	}
	if len(y) == 0 {
		return fmt.Errorf("%w: no rows", ErrDimension)
	}
	m.mean = numeric.Mean(y)
	m.fitted = true
	return nil
}

func (m *MeanModel) Predict(x mat.Matrix) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}
