// Package curvefit fits polynomial models to observations with one-sigma
// uncertainties by weighted least squares and reports parameter uncertainties and
// goodness of fit diagnostics.
package curvefit

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aouyang1/go-curvefit/dataset"
	"github.com/aouyang1/go-curvefit/internal/fiterr"
	"github.com/aouyang1/go-curvefit/leastsquares"
	"github.com/aouyang1/go-curvefit/polynomial"
	"github.com/aouyang1/go-curvefit/stats"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidInput is the class of errors for malformed observations, guesses or options
	ErrInvalidInput = fiterr.ErrInvalidInput

	// ErrConvergence is the class of errors for fits that could not reach a minimum
	ErrConvergence = fiterr.ErrConvergence

	ErrNotFit           = errors.New("fitter has no fitted parameters")
	ErrNoTrainingData   = errors.New("fitter has no training data")
	ErrNoParamsInModel  = errors.New("no parameters set in model")
	ErrCovarianceShape  = errors.New("model covariance does not match the number of parameters")
	ErrUncertaintyShape = errors.New("model uncertainties do not match the number of parameters")
)

// Fitter fits a polynomial model to observations and can be used to predict from the
// fitted parameters
type Fitter struct {
	opt *Options

	runID   uuid.UUID
	fitTime time.Time
	params  []float64
	cov     *mat.SymDense
	scores  *stats.Scores

	fitTrainingData *dataset.Observations
	fitResults      *Results
}

// New creates a new instance of a Fitter using the provided options. If no options are
// provided a default is used.
func New(opt *Options) (*Fitter, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to initialize fitter, %w", err)
	}
	return &Fitter{opt: opt}, nil
}

// NewFromModel creates a new instance of a Fitter from a pre-existing model. This should
// be generated from a previous fitter call to Model().
func NewFromModel(model Model) (*Fitter, error) {
	n := len(model.Params)
	if n == 0 {
		return nil, ErrNoParamsInModel
	}
	if len(model.Uncertainties) != 0 && len(model.Uncertainties) != n {
		return nil, fmt.Errorf("got %d uncertainties for %d parameters, %w",
			len(model.Uncertainties), n, ErrUncertaintyShape)
	}

	f, err := New(model.Options)
	if err != nil {
		return nil, err
	}

	f.params = slices.Clone(model.Params)
	f.fitTime = model.FitTime
	f.scores = model.Scores
	if model.RunID != "" {
		runID, err := uuid.Parse(model.RunID)
		if err != nil {
			return nil, fmt.Errorf("unable to parse model run id, %w", err)
		}
		f.runID = runID
	}

	if len(model.Covariance) != 0 {
		if len(model.Covariance) != n {
			return nil, fmt.Errorf("got %d covariance rows for %d parameters, %w",
				len(model.Covariance), n, ErrCovarianceShape)
		}
		f.cov = mat.NewSymDense(n, nil)
		for i, row := range model.Covariance {
			if len(row) != n {
				return nil, fmt.Errorf("covariance row %d has %d values, %w", i, len(row), ErrCovarianceShape)
			}
			for j := i; j < n; j++ {
				f.cov.SetSym(i, j, row[j])
			}
		}
	}
	return f, nil
}

// Fit is a single shot fit of the polynomial with len(initialGuesses) coefficients to the
// observations x, y with one-sigma uncertainties yErr.
func Fit(x, y, yErr, initialGuesses []float64, opt *Options) (*Results, error) {
	f, err := New(opt)
	if err != nil {
		return nil, err
	}
	return f.Fit(x, y, yErr, initialGuesses)
}

// Fit minimizes sum(((y - model(x, params)) / yErr)^2) starting from initialGuesses.
// Uncertainties are the square roots of the covariance diagonal, using yErr as absolute
// one-sigma errors. On error the fitter state is left untouched.
func (f *Fitter) Fit(x, y, yErr, initialGuesses []float64) (*Results, error) {
	obs, err := dataset.New(x, y, yErr)
	if err != nil {
		return nil, fmt.Errorf("unable to create observations, %w", err)
	}

	sol, outliers, err := f.fitWithOutliers(obs, initialGuesses)
	if err != nil {
		return nil, err
	}

	fitted, err := polynomial.EvaluateSlice(obs.X, sol.Params)
	if err != nil {
		return nil, fmt.Errorf("unable to evaluate fitted curve, %w", err)
	}
	residuals, err := stats.Residuals(obs.Y, fitted)
	if err != nil {
		return nil, fmt.Errorf("unable to compute residuals, %w", err)
	}

	kept := obs.Without(outliers)
	keptFitted, err := polynomial.EvaluateSlice(kept.X, sol.Params)
	if err != nil {
		return nil, fmt.Errorf("unable to evaluate fitted curve, %w", err)
	}
	scores, err := stats.NewScores(keptFitted, kept.Y, kept.YErr, len(sol.Params))
	if err != nil {
		return nil, fmt.Errorf("unable to compute fit scores, %w", err)
	}

	res := &Results{
		Params:            slices.Clone(sol.Params),
		Uncertainties:     sol.StdErrors(),
		FittedCurve:       fitted,
		Residuals:         residuals,
		ReducedChiSquared: scores.ReducedChiSquared,
		Scores:            scores,
		Iterations:        sol.Iterations,
		Outliers:          outliers,
	}

	f.runID = uuid.New()
	f.fitTime = time.Now().UTC()
	f.params = slices.Clone(sol.Params)
	f.cov = sol.Covariance
	f.scores = scores
	f.fitTrainingData = obs
	f.fitResults = res
	return res, nil
}

func (f *Fitter) fitWithOutliers(obs *dataset.Observations, initialGuesses []float64) (*leastsquares.Solution, []int, error) {
	numPasses := 0
	if f.opt.OutlierOptions != nil {
		numPasses = f.opt.OutlierOptions.NumPasses
	}

	// maps indices of the fit subset back to the input observations
	origIdx := make([]int, obs.Len())
	for i := range origIdx {
		origIdx[i] = i
	}

	var (
		sol      *leastsquares.Solution
		outliers []int
		err      error
	)
	fitObs := obs
	guess := initialGuesses
	for i := 0; i <= numPasses; i++ {
		problem := &leastsquares.Problem{
			X:        fitObs.X,
			Y:        fitObs.Y,
			Sigma:    fitObs.YErr,
			Model:    polynomial.Func,
			Jacobian: polynomial.Jacobian,
		}
		sol, err = leastsquares.Solve(problem, guess, f.opt.Solver)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to fit observations, %w", err)
		}

		// no refit follows the last pass so there is nothing to remove
		if f.opt.OutlierOptions == nil || i == numPasses {
			break
		}

		fitted, err := polynomial.EvaluateSlice(fitObs.X, sol.Params)
		if err != nil {
			return nil, nil, err
		}
		residual, err := stats.Residuals(fitObs.Y, fitted)
		if err != nil {
			return nil, nil, err
		}
		pulls, err := stats.Pulls(residual, fitObs.YErr)
		if err != nil {
			return nil, nil, err
		}
		outlierIdxs := stats.DetectOutliers(
			pulls,
			f.opt.OutlierOptions.LowerPercentile,
			f.opt.OutlierOptions.UpperPercentile,
			f.opt.OutlierOptions.TukeyFactor,
		)

		// no more outliers detected with outlier options so break early
		if len(outlierIdxs) == 0 {
			break
		}
		if fitObs.Len()-len(outlierIdxs) < len(sol.Params) {
			break
		}

		dropped := make(map[int]struct{}, len(outlierIdxs))
		for _, idx := range outlierIdxs {
			outliers = append(outliers, origIdx[idx])
			dropped[idx] = struct{}{}
		}
		nextIdx := make([]int, 0, len(origIdx)-len(outlierIdxs))
		for j, idx := range origIdx {
			if _, exists := dropped[j]; !exists {
				nextIdx = append(nextIdx, idx)
			}
		}
		origIdx = nextIdx
		fitObs = fitObs.Without(outlierIdxs)
		guess = sol.Params
	}

	slices.Sort(outliers)
	return sol, outliers, nil
}

// Predict evaluates the fitted model at every x
func (f *Fitter) Predict(x []float64) ([]float64, error) {
	if len(f.params) == 0 {
		return nil, ErrNotFit
	}
	return polynomial.EvaluateSlice(x, f.params)
}

// Params returns a copy of the fitted parameters
func (f *Fitter) Params() []float64 {
	return slices.Clone(f.params)
}

// Uncertainties returns the one-sigma parameter uncertainties
func (f *Fitter) Uncertainties() []float64 {
	if f.cov == nil {
		return nil
	}
	return leastsquares.StdErrors(f.cov)
}

// Covariance returns the parameter covariance matrix of the fit
func (f *Fitter) Covariance() *mat.SymDense {
	return f.cov
}

// Scores returns the goodness of fit scores
func (f *Fitter) Scores() *stats.Scores {
	return f.scores
}

// ModelEq returns a string representation of the fitted polynomial as
// y ~ p0 + p1*x + p2*x^2 ...
func (f *Fitter) ModelEq() (string, error) {
	if len(f.params) == 0 {
		return "", ErrNotFit
	}
	return polynomial.Equation(f.params)
}

// TrainingData returns a copy of the observations used to fit the current model
func (f *Fitter) TrainingData() *dataset.Observations {
	return f.fitTrainingData.Copy()
}

// FitResults returns the results of the last successful fit
func (f *Fitter) FitResults() *Results {
	return f.fitResults
}

// Model generates a serializeable representation of the options, parameters and
// covariance. This can be used to initialize a new Fitter for immediate predictions.
func (f *Fitter) Model() (Model, error) {
	eq, err := f.ModelEq()
	if err != nil {
		return Model{}, err
	}

	m := Model{
		FitTime:       f.fitTime,
		Options:       f.opt,
		Equation:      eq,
		Params:        slices.Clone(f.params),
		Uncertainties: f.Uncertainties(),
		Scores:        f.scores,
	}
	if f.runID != uuid.Nil {
		m.RunID = f.runID.String()
	}
	if f.fitResults != nil {
		m.Outliers = slices.Clone(f.fitResults.Outliers)
	}
	if f.cov != nil {
		n := f.cov.SymmetricDim()
		m.Covariance = make([][]float64, n)
		for i := 0; i < n; i++ {
			m.Covariance[i] = make([]float64, n)
			for j := 0; j < n; j++ {
				m.Covariance[i][j] = f.cov.At(i, j)
			}
		}
	}
	return m, nil
}
