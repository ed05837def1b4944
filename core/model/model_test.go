package model_test

import (
	"errors"
	"testing"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/model"
	"github.com/causalest/causalest/core/numeric"
	"github.com/causalest/causalest/mocks"
	"github.com/causalest/causalest/pkg/seedrand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gonum.org/v1/gonum/mat"
)

func logisticSample(n int, b0, b1, b2 float64, seed uint64) (*mat.Dense, []float64) {
	r := seedrand.New(seed)
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1, x2 := r.NormFloat64(), r.NormFloat64()
		x.Set(i, 0, x1)
		x.Set(i, 1, x2)
		y[i] = seedrand.Bernoulli(r, numeric.Sigmoid(b0+b1*x1+b2*x2))
	}
	return x, y
}

func TestLogisticRegressionRecoversCoefficients(t *testing.T) {
	x, y := logisticSample(5000, -0.5, 1, -1, 7)

	m := model.NewLogisticRegression(model.DefaultOptions())
	require.NoError(t, m.Fit(x, y))

	coef := m.Coefficients()
	require.Len(t, coef, 3)
	assert.InDelta(t, -0.5, coef[0], 0.15)
	assert.InDelta(t, 1.0, coef[1], 0.15)
	assert.InDelta(t, -1.0, coef[2], 0.15)

	p, err := m.Predict(x)
	require.NoError(t, err)
	for _, v := range p {
		assert.True(t, v > 0 && v < 1)
	}
}

func TestLogisticRegressionSeparableData(t *testing.T) {
	// Perfect separation diverges without a penalty; the default L2 keeps it finite.
	x := mat.NewDense(6, 1, []float64{-3, -2, -1, 1, 2, 3})
	y := []float64{0, 0, 0, 1, 1, 1}

	m := model.NewLogisticRegression(model.DefaultOptions())
	require.NoError(t, m.Fit(x, y))
	p, err := m.Predict(x)
	require.NoError(t, err)
	assert.Less(t, p[0], 0.5)
	assert.Greater(t, p[5], 0.5)
}

func TestLogisticRegressionErrors(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 2, 3})

	m := model.NewLogisticRegression(model.DefaultOptions())
	assert.ErrorIs(t, m.Fit(x, []float64{1, 1, 1}), model.ErrSingleClass)
	assert.ErrorIs(t, m.Fit(x, []float64{1, 0}), model.ErrDimension)
	assert.Error(t, m.Fit(x, []float64{0, 2, 1}))

	_, err := m.Predict(x)
	assert.ErrorIs(t, err, model.ErrNotFitted)

	require.NoError(t, m.Fit(x, []float64{0, 1, 0}))
	_, err = m.Predict(mat.NewDense(1, 2, []float64{1, 1}))
	assert.ErrorIs(t, err, model.ErrDimension)
}

func TestLogisticRegressionNotConverged(t *testing.T) {
	x, y := logisticSample(200, 0, 1, 1, 3)
	opts := model.DefaultOptions()
	opts.MaxIter = 1

	err := model.NewLogisticRegression(opts).Fit(x, y)
	assert.ErrorIs(t, err, model.ErrNotConverged)
}

func TestLinearRegressionExactFit(t *testing.T) {
	r := seedrand.New(11)
	n := 50
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1, x2 := r.NormFloat64(), r.NormFloat64()
		x.Set(i, 0, x1)
		x.Set(i, 1, x2)
		y[i] = 1 + 2*x1 - 3*x2
	}

	m := model.NewLinearRegression(model.DefaultOptions())
	require.NoError(t, m.Fit(x, y))
	coef := m.Coefficients()
	assert.InDelta(t, 1.0, coef[0], 1e-4)
	assert.InDelta(t, 2.0, coef[1], 1e-4)
	assert.InDelta(t, -3.0, coef[2], 1e-4)

	p, err := m.Predict(mat.NewDense(1, 2, []float64{1, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, p[0], 1e-3)
}

func TestMeanModel(t *testing.T) {
	m := &model.MeanModel{}
	_, err := m.Predict(mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, model.ErrNotFitted)

	require.NoError(t, m.Fit(mat.NewDense(4, 1, nil), []float64{1, 2, 3, 6}))
	p, err := m.Predict(mat.NewDense(2, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, p)
}

func TestFactories(t *testing.T) {
	tests := []struct {
		kind    model.Kind
		binary  bool
		want    interface{}
		wantErr bool
	}{
		{model.KindLogistic, false, &model.LogisticRegression{}, false},
		{model.KindLinear, true, &model.LinearRegression{}, false},
		{model.KindMean, false, &model.MeanModel{}, false},
		{model.KindAuto, true, &model.LogisticRegression{}, false},
		{model.KindAuto, false, &model.LinearRegression{}, false},
		{model.Kind("forest"), false, nil, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			f, err := model.OutcomeFactory(tt.kind, model.DefaultOptions(), tt.binary)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f())
			assert.NotSame(t, f(), f())
		})
	}

	_, err := model.NewFactory(model.KindAuto, model.DefaultOptions())
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := model.ParseKind("linear")
	require.NoError(t, err)
	assert.Equal(t, model.KindLinear, k)

	_, err = model.ParseKind("svm")
	assert.Error(t, err)
}

func TestPropensitySingleClass(t *testing.T) {
	factory, err := model.NewFactory(model.KindLogistic, model.DefaultOptions())
	require.NoError(t, err)

	_, err = model.Propensity(mat.NewDense(3, 1, []float64{1, 2, 3}), []float64{1, 1, 1}, factory, model.DefaultEpsilon)
	var fitErr *model.ModelFitError
	require.True(t, errors.As(err, &fitErr))
	assert.Equal(t, "propensity", fitErr.Model)
	assert.ErrorIs(t, err, model.ErrSingleClass)
}

func TestPropensityClipsScores(t *testing.T) {
	ctrl := gomock.NewController(t)
	learner := mocks.NewMockLearner(ctrl)
	x := mat.NewDense(3, 1, []float64{1, 2, 3})
	tv := []float64{0, 1, 1}

	learner.EXPECT().Fit(x, tv).Return(nil)
	learner.EXPECT().Predict(x).Return([]float64{0, 0.4, 1}, nil)

	e, err := model.Propensity(x, tv, func() model.Learner { return learner }, 0.01)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.01, 0.4, 0.99}, e)
}

func TestPropensityRejectsBadPredictions(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	tv := []float64{0, 1}

	tests := []struct {
		name    string
		fitErr  error
		preds   []float64
		wantErr error
	}{
		{"fit_failure", model.ErrNotConverged, nil, model.ErrNotConverged},
		{"out_of_range", nil, []float64{0.5, 1.5}, nil},
		{"wrong_length", nil, []float64{0.5}, model.ErrDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			learner := mocks.NewMockLearner(ctrl)
			learner.EXPECT().Fit(gomock.Any(), gomock.Any()).Return(tt.fitErr)
			if tt.fitErr == nil {
				learner.EXPECT().Predict(gomock.Any()).Return(tt.preds, nil)
			}

			_, err := model.Propensity(x, tv, func() model.Learner { return learner }, model.DefaultEpsilon)
			var fitErr *model.ModelFitError
			require.ErrorAs(t, err, &fitErr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPropensityEpsilonRange(t *testing.T) {
	factory, _ := model.NewFactory(model.KindLogistic, model.DefaultOptions())
	_, err := model.Propensity(mat.NewDense(2, 1, []float64{1, 2}), []float64{0, 1}, factory, 0.5)
	assert.Error(t, err)
}

func linearEffectDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	r := seedrand.New(5)
	x := mat.NewDense(n, 1, nil)
	tv := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, r.NormFloat64())
		tv[i] = float64(i % 2)
		y[i] = 1 + 2*tv[i] + x.At(i, 0)
	}
	d, err := dataset.New(x, tv, y)
	require.NoError(t, err)
	return d
}

func TestFitSplitArm(t *testing.T) {
	d := linearEffectDataset(t, 40)
	factory, _ := model.NewFactory(model.KindLinear, model.DefaultOptions())

	preds, err := model.FitSplitArm(d, factory)
	require.NoError(t, err)
	require.Len(t, preds.Treated, d.Len())
	require.Len(t, preds.Control, d.Len())
	for _, e := range preds.Effects() {
		assert.InDelta(t, 2.0, e, 1e-4)
	}
}

func TestFitSplitArmInsufficientData(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	d, err := dataset.New(x, []float64{1, 0, 0, 0}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	factory, _ := model.NewFactory(model.KindLinear, model.DefaultOptions())

	_, err = model.FitSplitArm(d, factory)
	var insufficient *model.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "treated", insufficient.Arm)
	assert.Equal(t, 1, insufficient.Have)
	assert.Equal(t, model.MinArmSamples, insufficient.Need)
}

func TestFitPooled(t *testing.T) {
	d := linearEffectDataset(t, 40)
	factory, _ := model.NewFactory(model.KindLinear, model.DefaultOptions())

	preds, err := model.FitPooled(d, factory)
	require.NoError(t, err)
	for _, e := range preds.Effects() {
		assert.InDelta(t, 2.0, e, 1e-4)
	}
}

func TestFitPooledUsesCounterfactualDesign(t *testing.T) {
	d := linearEffectDataset(t, 4)
	ctrl := gomock.NewController(t)
	learner := mocks.NewMockLearner(ctrl)

	learner.EXPECT().Fit(gomock.Any(), d.Y()).DoAndReturn(func(x mat.Matrix, _ []float64) error {
		_, c := x.Dims()
		assert.Equal(t, 2, c)
		return nil
	})
	gomock.InOrder(
		learner.EXPECT().Predict(gomock.Any()).DoAndReturn(func(x mat.Matrix) ([]float64, error) {
			assert.Equal(t, []float64{1, 1, 1, 1}, mat.Col(nil, 1, x))
			return []float64{5, 5, 5, 5}, nil
		}),
		learner.EXPECT().Predict(gomock.Any()).DoAndReturn(func(x mat.Matrix) ([]float64, error) {
			assert.Equal(t, []float64{0, 0, 0, 0}, mat.Col(nil, 1, x))
			return []float64{3, 3, 3, 3}, nil
		}),
	)

	preds, err := model.FitPooled(d, func() model.Learner { return learner })
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2, 2}, preds.Effects())
}
