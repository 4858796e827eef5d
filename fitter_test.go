package curvefit

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/aouyang1/go-curvefit/dataset"
	"github.com/aouyang1/go-curvefit/leastsquares"
	"github.com/aouyang1/go-curvefit/polynomial"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineObservations() ([]float64, []float64, []float64) {
	return []float64{0, 1, 2, 3, 4},
		[]float64{2, 5, 8, 11, 14},
		dataset.Uniform(5, 0.1)
}

func noisyQuadratic(rng *rand.Rand, n int, sigma float64, params []float64) ([]float64, []float64, []float64) {
	x := dataset.GenerateX(n, 0, 0.1)
	yErr := dataset.Uniform(n, sigma)
	y := dataset.GeneratePolynomialY(x, params).Add(dataset.GenerateNoise(rng, yErr))
	return x, y, yErr
}

func TestFitLine(t *testing.T) {
	testData := map[string]struct {
		method leastsquares.Method
		tol    float64
	}{
		"levenberg-marquardt": {leastsquares.MethodLevenbergMarquardt, 1e-8},
		"bfgs":                {leastsquares.MethodBFGS, 1e-4},
		"linear":              {leastsquares.MethodLinear, 1e-9},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, y, yErr := lineObservations()
			opt := &Options{Solver: &leastsquares.Options{Method: td.method}}

			res, err := Fit(x, y, yErr, []float64{0, 0}, opt)
			require.Nil(t, err)

			assert.InDeltaSlice(t, []float64{2, 3}, res.Params, td.tol)
			assert.InDeltaSlice(t, []float64{math.Sqrt(0.006), math.Sqrt(0.001)}, res.Uncertainties, 1e-9)
			assert.InDeltaSlice(t, y, res.FittedCurve, td.tol*10)
			assert.InDelta(t, 0.0, res.ReducedChiSquared, td.tol)
			assert.Equal(t, 3, res.Scores.DOF)
			assert.Empty(t, res.Outliers)

			for i := range y {
				assert.InDelta(t, y[i], res.FittedCurve[i]+res.Residuals[i], 1e-12)
			}
		})
	}
}

func TestFitDoesNotMutateInput(t *testing.T) {
	x, y, yErr := lineObservations()
	guess := []float64{0, 0}

	f, err := New(nil)
	require.Nil(t, err)
	_, err = f.Fit(x, y, yErr, guess)
	require.Nil(t, err)

	assert.Equal(t, []float64{0, 0}, guess)
	assert.Equal(t, []float64{2, 5, 8, 11, 14}, y)
	assert.Equal(t, []float64{2, 5, 8, 11, 14}, f.TrainingData().Y)

	td := f.TrainingData()
	td.Y[0] = 100
	assert.Equal(t, []float64{2, 5, 8, 11, 14}, f.TrainingData().Y)

	var unfit Fitter
	assert.Nil(t, unfit.TrainingData())
}

func TestFitInvalidInput(t *testing.T) {
	testData := map[string]struct {
		x     []float64
		y     []float64
		yErr  []float64
		guess []float64
		opt   *Options
		err   error
	}{
		"no observations": {
			guess: []float64{0},
			err:   dataset.ErrNoObservations,
		},
		"length mismatch": {
			x:     []float64{0, 1, 2},
			y:     []float64{1, 2},
			yErr:  []float64{1, 1},
			guess: []float64{0},
			err:   dataset.ErrLenMismatch,
		},
		"zero uncertainty": {
			x:     []float64{0, 1, 2},
			y:     []float64{1, 2, 3},
			yErr:  []float64{1, 0, 1},
			guess: []float64{0},
			err:   dataset.ErrNonPositiveError,
		},
		"negative uncertainty": {
			x:     []float64{0, 1, 2},
			y:     []float64{1, 2, 3},
			yErr:  []float64{1, 1, -1},
			guess: []float64{0},
			err:   dataset.ErrNonPositiveError,
		},
		"no initial guess": {
			x:    []float64{0, 1, 2},
			y:    []float64{1, 2, 3},
			yErr: []float64{1, 1, 1},
			err:  leastsquares.ErrNoInitialGuess,
		},
		"bad outlier options": {
			x:     []float64{0, 1, 2},
			y:     []float64{1, 2, 3},
			yErr:  []float64{1, 1, 1},
			guess: []float64{0},
			opt:   &Options{OutlierOptions: &OutlierOptions{LowerPercentile: 0.9, UpperPercentile: 0.1}},
			err:   ErrInvalidOutlierOptions,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Fit(td.x, td.y, td.yErr, td.guess, td.opt)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, td.err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.NotErrorIs(t, err, ErrConvergence)
		})
	}
}

func TestFitConvergenceFailure(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)

	// every observation at the same x cannot constrain a slope
	res, err := f.Fit([]float64{0, 0, 0}, []float64{1, 2, 3}, []float64{1, 1, 1}, []float64{0, 0})
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrConvergence)
	assert.NotErrorIs(t, err, ErrInvalidInput)

	var convErr *leastsquares.ConvergenceError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, leastsquares.ReasonSingular, convErr.Reason)

	// failed fits leave no partial state behind
	assert.Nil(t, f.FitResults())
	_, err = f.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotFit)
}

func TestFitExactlyDetermined(t *testing.T) {
	res, err := Fit([]float64{1, 3}, []float64{4, 10}, []float64{0.5, 0.5}, []float64{0, 0}, nil)
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{1, 3}, res.Params, 1e-9)
	assert.True(t, math.IsInf(res.ReducedChiSquared, 1))
	assert.Equal(t, 0, res.Scores.DOF)
}

func TestFitAbsoluteSigma(t *testing.T) {
	x, y, yErr := noisyQuadratic(rand.New(rand.NewPCG(3, 5)), 60, 0.3, []float64{1, 2, -0.5})
	yErr2 := make([]float64, len(yErr))
	for i := range yErr {
		yErr2[i] = 2 * yErr[i]
	}

	res, err := Fit(x, y, yErr, []float64{0, 0, 0}, nil)
	require.Nil(t, err)
	res2, err := Fit(x, y, yErr2, []float64{0, 0, 0}, nil)
	require.Nil(t, err)

	assert.InDeltaSlice(t, res.Params, res2.Params, 1e-8)
	for i := range res.Uncertainties {
		assert.InDelta(t, 2.0*res.Uncertainties[i], res2.Uncertainties[i], 1e-8)
	}
	assert.InDelta(t, res.ReducedChiSquared/4.0, res2.ReducedChiSquared, 1e-8)
}

func TestReducedChiSquaredNearOne(t *testing.T) {
	testData := map[string]struct {
		sigma float64
	}{
		"sigma 0.05": {0.05},
		"sigma 0.2":  {0.2},
		"sigma 1":    {1},
		"sigma 5":    {5},
	}

	truth := []float64{315.0, 1.2, 0.01}
	trials := 200

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(42, 1024))
			var sumRedChi2, sumSlopeErr float64
			for i := 0; i < trials; i++ {
				x, y, yErr := noisyQuadratic(rng, 50, td.sigma, truth)
				res, err := Fit(x, y, yErr, []float64{300, 0, 0}, nil)
				require.Nil(t, err)
				sumRedChi2 += res.ReducedChiSquared
				sumSlopeErr += res.Uncertainties[1]
			}
			assert.InDelta(t, 1.0, sumRedChi2/float64(trials), 0.1)

			// uncertainties track the noise magnitude since the errors are absolute
			assert.InEpsilon(t, td.sigma, sumSlopeErr/float64(trials)/slopeErrPerSigma(t), 1e-6)
		})
	}
}

// slopeErrPerSigma is the slope uncertainty of the noise test design at unit sigma
func slopeErrPerSigma(t *testing.T) float64 {
	t.Helper()
	x, _, yErr := noisyQuadratic(rand.New(rand.NewPCG(1, 1)), 50, 1, []float64{315.0, 1.2, 0.01})
	y, err := polynomial.EvaluateSlice(x, []float64{315.0, 1.2, 0.01})
	require.Nil(t, err)
	res, err := Fit(x, y, yErr, []float64{300, 0, 0}, nil)
	require.Nil(t, err)
	return res.Uncertainties[1]
}

func TestFitWithOutliers(t *testing.T) {
	truth := []float64{2, -1, 0.5}
	x, y, yErr := noisyQuadratic(rand.New(rand.NewPCG(11, 13)), 100, 0.1, truth)
	y[17] += 5
	y[62] -= 5

	opt := &Options{
		OutlierOptions: &OutlierOptions{
			NumPasses:       3,
			LowerPercentile: 0.25,
			UpperPercentile: 0.75,
			TukeyFactor:     3.0,
		},
	}
	f, err := New(opt)
	require.Nil(t, err)
	res, err := f.Fit(x, y, yErr, []float64{0, 0, 0})
	require.Nil(t, err)

	assert.Subset(t, res.Outliers, []int{17, 62})
	assert.Len(t, res.FittedCurve, len(x))
	assert.Len(t, res.Residuals, len(x))
	assert.Equal(t, len(x)-len(res.Outliers)-len(truth), res.Scores.DOF)
	for i := range truth {
		assert.InDelta(t, truth[i], res.Params[i], 5*res.Uncertainties[i])
	}

	// a fit without outlier removal is pulled away by the spikes
	plain, err := Fit(x, y, yErr, []float64{0, 0, 0}, nil)
	require.Nil(t, err)
	assert.Greater(t, plain.ReducedChiSquared, res.ReducedChiSquared)
}

func TestPredict(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)

	_, err = f.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotFit)
	_, err = f.ModelEq()
	assert.ErrorIs(t, err, ErrNotFit)
	_, err = f.Model()
	assert.ErrorIs(t, err, ErrNotFit)

	x, y, yErr := lineObservations()
	_, err = f.Fit(x, y, yErr, []float64{0, 0})
	require.Nil(t, err)

	res, err := f.Predict([]float64{10, -1})
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{32, -1}, res, 1e-8)

	eq, err := f.ModelEq()
	require.Nil(t, err)
	assert.Equal(t, "y ~ 2 + 3*x", eq)
}

func TestModelRoundTrip(t *testing.T) {
	x, y, yErr := noisyQuadratic(rand.New(rand.NewPCG(1, 1)), 40, 0.5, []float64{-3, 0.7, 0.2})

	f, err := New(nil)
	require.Nil(t, err)
	_, err = f.Fit(x, y, yErr, []float64{0, 0, 0})
	require.Nil(t, err)

	m, err := f.Model()
	require.Nil(t, err)
	assert.NotEmpty(t, m.RunID)
	assert.Len(t, m.Covariance, 3)

	out, err := json.Marshal(m)
	require.Nil(t, err)

	var model Model
	require.NoError(t, json.Unmarshal(out, &model))

	loaded, err := NewFromModel(model)
	require.Nil(t, err)

	xPred := []float64{-1, 0, 2.5, 10}
	expected, err := f.Predict(xPred)
	require.Nil(t, err)
	actual, err := loaded.Predict(xPred)
	require.Nil(t, err)
	assert.InDeltaSlice(t, expected, actual, 1e-12)
	assert.InDeltaSlice(t, f.Uncertainties(), loaded.Uncertainties(), 1e-12)
	assert.True(t, loaded.Covariance().SymmetricDim() == 3)
	assert.Equal(t, f.Scores().DOF, loaded.Scores().DOF)

	lm, err := loaded.Model()
	require.Nil(t, err)
	assert.Equal(t, m.RunID, lm.RunID)
	assert.Equal(t, m.Equation, lm.Equation)
}

func TestNewFromModel(t *testing.T) {
	testData := map[string]struct {
		m   Model
		err error
	}{
		"no params": {
			err: ErrNoParamsInModel,
		},
		"uncertainty mismatch": {
			m:   Model{Params: []float64{1, 2}, Uncertainties: []float64{1}},
			err: ErrUncertaintyShape,
		},
		"covariance rows": {
			m:   Model{Params: []float64{1, 2}, Covariance: [][]float64{{1, 0}}},
			err: ErrCovarianceShape,
		},
		"covariance cols": {
			m:   Model{Params: []float64{1, 2}, Covariance: [][]float64{{1, 0}, {0}}},
			err: ErrCovarianceShape,
		},
		"bad options": {
			m: Model{
				Params:  []float64{1},
				Options: &Options{Solver: &leastsquares.Options{Method: "simplex"}},
			},
			err: leastsquares.ErrUnknownMethod,
		},
		"params only": {
			m: Model{Params: []float64{1, 2}},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := NewFromModel(td.m)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)

			res, err := f.Predict([]float64{2})
			require.Nil(t, err)
			expected, err := polynomial.Evaluate(2, td.m.Params)
			require.Nil(t, err)
			assert.Equal(t, []float64{expected}, res)
		})
	}

	_, err := NewFromModel(Model{Params: []float64{1}, RunID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	opt, err := (*Options)(nil).Validate()
	require.Nil(t, err)
	assert.Equal(t, NewDefaultOptions(), opt)

	outlierOpt := NewOutlierOptions()
	opt, err = (&Options{OutlierOptions: outlierOpt}).Validate()
	require.Nil(t, err)
	assert.Equal(t, leastsquares.NewDefaultOptions(), opt.Solver)
	assert.Equal(t, outlierOpt, opt.OutlierOptions)

	// validated options do not alias the input
	outlierOpt.NumPasses = 10
	assert.Equal(t, 3, opt.OutlierOptions.NumPasses)

	testData := map[string]*OutlierOptions{
		"negative passes":      {NumPasses: -1, UpperPercentile: 0.9},
		"inverted percentiles": {NumPasses: 1, LowerPercentile: 0.8, UpperPercentile: 0.2},
		"percentile above one": {NumPasses: 1, UpperPercentile: 1.5},
		"negative tukey":       {NumPasses: 1, UpperPercentile: 0.9, TukeyFactor: -1},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := (&Options{OutlierOptions: td}).Validate()
			assert.ErrorIs(t, err, ErrInvalidOutlierOptions)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func BenchmarkFit(b *testing.B) {
	x, y, yErr := noisyQuadratic(rand.New(rand.NewPCG(5, 8)), 1000, 0.2, []float64{315.0, 1.2, 0.01})

	for b.Loop() {
		if _, err := Fit(x, y, yErr, []float64{0, 0, 0}, nil); err != nil {
			b.Fatal(err)
		}
	}
}
