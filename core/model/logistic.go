package model

import (
	"fmt"
	"math"

	"github.com/causalest/causalest/core/numeric"
	"gonum.org/v1/gonum/mat"
)

// minWeight keeps the IRLS weights away from zero when a fitted probability
// saturates.
const minWeight = 1e-10

// LogisticRegression is an L2-penalised logistic regression fit by Newton's
// method (iteratively reweighted least squares).
type LogisticRegression struct {
	opts Options
	coef []float64
}

// NewLogisticRegression returns an unfitted model.
func NewLogisticRegression(opts Options) *LogisticRegression {
	return &LogisticRegression{opts: opts}
}

// Fit estimates the coefficients. y must lie in [0, 1] and contain both
// classes.
func (m *LogisticRegression) Fit(x mat.Matrix, y []float64) error {
	n, p := x.Dims()
	if n != len(y) {
		return fmt.Errorf("%w: x has %d rows, y has %d", ErrDimension, n, len(y))
	}
	if n == 0 {
		return ErrSingleClass
	}
	first := y[0]
	single := true
	for _, v := range y {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("logistic target %v outside [0, 1]", v)
		}
		if v != first {
			single = false
		}
	}
	if single {
		return ErrSingleClass
	}

	maxIter := m.opts.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultOptions().MaxIter
	}
	tol := m.opts.Tol
	if tol <= 0 {
		tol = DefaultOptions().Tol
	}

	z := design(x)
	q := p + 1
	beta := make([]float64, q)
	scaled := mat.NewDense(n, q, nil)
	grad := mat.NewVecDense(q, nil)
	hess := mat.NewSymDense(q, nil)
	var delta mat.VecDense
	var chol mat.Cholesky

	for iter := 0; iter < maxIter; iter++ {
		for j := range q {
			g := 0.0
			if j > 0 {
				g = -m.opts.L2 * beta[j]
			}
			grad.SetVec(j, g)
		}
		for i := 0; i < n; i++ {
			row := z.RawRowView(i)
			eta := 0.0
			for j, v := range row {
				eta += v * beta[j]
			}
			mu := numeric.Sigmoid(eta)
			w := math.Max(mu*(1-mu), minWeight)
			sw := math.Sqrt(w)
			r := y[i] - mu
			dst := scaled.RawRowView(i)
			for j, v := range row {
				grad.SetVec(j, grad.AtVec(j)+v*r)
				dst[j] = v * sw
			}
		}

		// Z'WZ + λI with the intercept left unpenalised.
		hess.SymOuterK(1, scaled.T())
		for j := 1; j < q; j++ {
			hess.SetSym(j, j, hess.At(j, j)+m.opts.L2)
		}
		if ok := chol.Factorize(hess); !ok {
			return ErrSingular
		}
		if err := chol.SolveVecTo(&delta, grad); err != nil {
			return fmt.Errorf("%w: %v", ErrSingular, err)
		}

		step := 0.0
		for j := range beta {
			d := delta.AtVec(j)
			beta[j] += d
			step = math.Max(step, math.Abs(d))
		}
		if !numeric.AllFinite(beta...) {
			return ErrNotConverged
		}
		if step < tol {
			m.coef = beta
			return nil
		}
	}
	return fmt.Errorf("%w after %d iterations", ErrNotConverged, maxIter)
}

// Predict returns P(y=1|x) for every row of x.
func (m *LogisticRegression) Predict(x mat.Matrix) ([]float64, error) {
	if m.coef == nil {
		return nil, ErrNotFitted
	}
	eta, err := linearPredictor(x, m.coef)
	if err != nil {
		return nil, err
	}
	for i, v := range eta {
		eta[i] = numeric.Sigmoid(v)
	}
	return eta, nil
}

// Coefficients returns the fitted intercept followed by the feature weights.
func (m *LogisticRegression) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}
