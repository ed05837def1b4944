package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearRegression is ridge-penalised least squares with an unpenalised
// intercept.
type LinearRegression struct {
	opts Options
	coef []float64
}

// NewLinearRegression returns an unfitted model.
func NewLinearRegression(opts Options) *LinearRegression {
	return &LinearRegression{opts: opts}
}

// Fit solves (Z'Z + λI)β = Z'y by Cholesky, Z being x with an intercept column.
func (m *LinearRegression) Fit(x mat.Matrix, y []float64) error {
	n, _ := x.Dims()
	if n != len(y) {
		return fmt.Errorf("%w: x has %d rows, y has %d", ErrDimension, n, len(y))
	}
	if n == 0 {
		return fmt.Errorf("%w: no rows", ErrDimension)
	}

	z := design(x)
	_, q := z.Dims()
	gram := mat.NewSymDense(q, nil)
	gram.SymOuterK(1, z.T())
	for j := 1; j < q; j++ {
		gram.SetSym(j, j, gram.At(j, j)+m.opts.Ridge)
	}

	var rhs mat.VecDense
	rhs.MulVec(z.T(), mat.NewVecDense(n, y))

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return ErrSingular
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	m.coef = mat.Col(nil, 0, &beta)
	return nil
}

// Predict returns the fitted conditional mean for every row of x.
func (m *LinearRegression) Predict(x mat.Matrix) ([]float64, error) {
	if m.coef == nil {
		return nil, ErrNotFitted
	}
	return linearPredictor(x, m.coef)
}

// Coefficients returns the fitted intercept followed by the feature weights.
func (m *LinearRegression) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}
