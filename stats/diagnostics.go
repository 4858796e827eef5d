// Package stats computes goodness of fit diagnostics for a fitted model against
// observations with one-sigma uncertainties.
//
// A well specified model with correctly scaled uncertainties yields a reduced
// chi-squared near 1. Values well above 1 point at an underfit model or underestimated
// uncertainties, values well below 1 at an overfit model or overestimated uncertainties.
package stats

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-curvefit/internal/fiterr"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrInvalidInput = fiterr.ErrInvalidInput

	ErrLenMismatch      = fmt.Errorf("observed and model have different lengths, %w", ErrInvalidInput)
	ErrNonPositiveError = fmt.Errorf("uncertainties must be strictly positive, %w", ErrInvalidInput)
	ErrNegativeParams   = fmt.Errorf("number of parameters cannot be negative, %w", ErrInvalidInput)
)

// Residuals returns y - yModel elementwise
func Residuals(y, yModel []float64) ([]float64, error) {
	if len(y) != len(yModel) {
		return nil, fmt.Errorf("observed has %d values, model has %d, %w", len(y), len(yModel), ErrLenMismatch)
	}
	return floats.SubTo(make([]float64, len(y)), y, yModel), nil
}

// ChiSquared returns sum(((y - yModel) / yErr)^2)
func ChiSquared(y, yErr, yModel []float64) (float64, error) {
	if len(y) != len(yModel) || len(y) != len(yErr) {
		return 0, fmt.Errorf("observed has %d values, uncertainties have %d, model has %d, %w",
			len(y), len(yErr), len(yModel), ErrLenMismatch)
	}
	res, err := Residuals(y, yModel)
	if err != nil {
		return 0, err
	}
	pulls, err := Pulls(res, yErr)
	if err != nil {
		return 0, err
	}
	return floats.Dot(pulls, pulls), nil
}

// DegreesOfFreedom is the number of observations minus the number of fitted parameters
func DegreesOfFreedom(numObs, numParams int) int {
	return numObs - numParams
}

// ReducedChiSquared returns the chi-squared divided by the degrees of freedom. When
// there are no degrees of freedom left the statistic is undefined and +Inf is returned
// rather than an error.
func ReducedChiSquared(y, yErr, yModel []float64, numParams int) (float64, error) {
	if numParams < 0 {
		return 0, fmt.Errorf("got %d, %w", numParams, ErrNegativeParams)
	}
	chi2, err := ChiSquared(y, yErr, yModel)
	if err != nil {
		return 0, err
	}
	dof := DegreesOfFreedom(len(y), numParams)
	if dof <= 0 {
		return math.Inf(1), nil
	}
	return chi2 / float64(dof), nil
}
