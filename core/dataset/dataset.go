// Package dataset holds the prepared observational table the estimators
// consume: a numeric feature matrix, a binary treatment vector and an outcome
// vector. A Dataset is immutable once built and is safely shared across
// concurrent bootstrap iterations.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmpty indicates a dataset without units.
	ErrEmpty = errors.New("dataset has no units")

	// ErrShape indicates the feature matrix, treatment and outcome disagree on length.
	ErrShape = errors.New("feature, treatment and outcome lengths differ")

	// ErrTreatmentValue indicates a treatment value other than 0 or 1.
	ErrTreatmentValue = errors.New("treatment must be 0 or 1")

	// ErrNonFinite indicates a NaN or infinite value in the table.
	ErrNonFinite = errors.New("dataset contains a non-finite value")
)

// Dataset is an ordered sequence of units. Unit order carries no meaning for
// estimation.
type Dataset struct {
	x       *mat.Dense
	t       []float64
	y       []float64
	columns []string
}

// New validates and wraps a feature matrix x (n×p), treatment t and outcome y.
// The slices and matrix are copied.
func New(x *mat.Dense, t, y []float64) (*Dataset, error) {
	return NewNamed(nil, x, t, y)
}

// NewNamed is New with feature column names. names may be nil; otherwise it
// must have one entry per feature column.
func NewNamed(names []string, x *mat.Dense, t, y []float64) (*Dataset, error) {
	if x == nil || len(t) == 0 {
		return nil, ErrEmpty
	}
	n, p := x.Dims()
	if n != len(t) || n != len(y) {
		return nil, fmt.Errorf("%w: x has %d rows, t has %d, y has %d", ErrShape, n, len(t), len(y))
	}
	if names != nil && len(names) != p {
		return nil, fmt.Errorf("%w: %d column names for %d features", ErrShape, len(names), p)
	}
	for i := 0; i < n; i++ {
		if t[i] != 0 && t[i] != 1 {
			return nil, fmt.Errorf("%w: unit %d has treatment %v", ErrTreatmentValue, i, t[i])
		}
		if !finite(y[i]) {
			return nil, fmt.Errorf("%w: outcome of unit %d", ErrNonFinite, i)
		}
		for j := 0; j < p; j++ {
			if !finite(x.At(i, j)) {
				return nil, fmt.Errorf("%w: feature %d of unit %d", ErrNonFinite, j, i)
			}
		}
	}

	d := &Dataset{
		x: mat.DenseCopyOf(x),
		t: append([]float64(nil), t...),
		y: append([]float64(nil), y...),
	}
	if names != nil {
		d.columns = append([]string(nil), names...)
	}
	return d, nil
}

// MustNew is New that panics on error. Intended for tests and fixtures.
func MustNew(x *mat.Dense, t, y []float64) *Dataset {
	d, err := New(x, t, y)
	if err != nil {
		panic(fmt.Sprintf("dataset.MustNew: %v", err))
	}
	return d
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Len returns the number of units.
func (d *Dataset) Len() int { return len(d.t) }

// Features returns the number of feature columns.
func (d *Dataset) Features() int {
	_, p := d.x.Dims()
	return p
}

// X returns the feature matrix. Callers must not modify it.
func (d *Dataset) X() *mat.Dense { return d.x }

// T returns the treatment vector. Callers must not modify it.
func (d *Dataset) T() []float64 { return d.t }

// Y returns the outcome vector. Callers must not modify it.
func (d *Dataset) Y() []float64 { return d.y }

// Columns returns the feature column names, or nil if none were given.
func (d *Dataset) Columns() []string { return d.columns }

// Treated returns the number of units with t=1.
func (d *Dataset) Treated() int {
	n := 0
	for _, v := range d.t {
		if v == 1 {
			n++
		}
	}
	return n
}

// Control returns the number of units with t=0.
func (d *Dataset) Control() int { return d.Len() - d.Treated() }

// BinaryOutcome reports whether every outcome is 0 or 1.
func (d *Dataset) BinaryOutcome() bool {
	for _, v := range d.y {
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

// Resample gathers the units at idx, repeats allowed, into a new dataset.
// It panics if an index is out of range.
func (d *Dataset) Resample(idx []int) *Dataset {
	p := d.Features()
	x := mat.NewDense(len(idx), p, nil)
	t := make([]float64, len(idx))
	y := make([]float64, len(idx))
	for r, i := range idx {
		x.SetRow(r, d.x.RawRowView(i))
		t[r] = d.t[i]
		y[r] = d.y[i]
	}
	return &Dataset{x: x, t: t, y: y, columns: d.columns}
}

// Arm returns the features and outcomes of the units whose observed treatment
// equals arm. Both results are nil when the arm is empty.
func (d *Dataset) Arm(arm float64) (*mat.Dense, []float64) {
	rows := make([]int, 0, len(d.t))
	for i, v := range d.t {
		if v == arm {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	sub := d.Resample(rows)
	return sub.x, sub.y
}

// WithTreatment returns the features augmented with the observed treatment as
// a trailing column.
func (d *Dataset) WithTreatment() *mat.Dense {
	return d.augment(func(i int) float64 { return d.t[i] })
}

// Counterfactual returns the features augmented with a trailing treatment
// column fixed to arm for every unit.
func (d *Dataset) Counterfactual(arm float64) *mat.Dense {
	return d.augment(func(int) float64 { return arm })
}

func (d *Dataset) augment(treatment func(i int) float64) *mat.Dense {
	n, p := d.x.Dims()
	out := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		copy(row, d.x.RawRowView(i))
		row[p] = treatment(i)
	}
	return out
}
