// Package leastsquares minimizes the uncertainty weighted sum of squared residuals
//
//	S(p) = sum(((y_i - f(x_i, p)) / sigma_i)^2)
//
// of an arbitrary model f and reports the parameter covariance under the absolute
// sigma convention, i.e. the covariance is never rescaled by the reduced chi-squared.
package leastsquares

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Func evaluates a model at x for the given parameters
type Func func(x float64, params []float64) float64

// JacobianFunc writes the partial derivatives of a model with respect to each
// parameter at x into dst. len(dst) == len(params).
type JacobianFunc func(dst []float64, x float64, params []float64)

// Problem is a set of observations with one-sigma uncertainties and the model to fit
// against them. If Jacobian is nil a central finite difference is used.
type Problem struct {
	X     []float64
	Y     []float64
	Sigma []float64

	Model    Func
	Jacobian JacobianFunc
}

// Validate checks the problem preconditions against a parameter vector of length nParams
func (p *Problem) Validate(nParams int) error {
	if p == nil || p.Model == nil {
		return ErrNoModel
	}
	if nParams < 1 {
		return ErrNoInitialGuess
	}
	m := len(p.Y)
	if m == 0 {
		return ErrNoObservations
	}
	if len(p.X) != m || len(p.Sigma) != m {
		return fmt.Errorf("x has %d, y has %d, sigma has %d, %w", len(p.X), len(p.Y), len(p.Sigma), ErrLenMismatch)
	}
	for i := 0; i < m; i++ {
		if math.IsNaN(p.Sigma[i]) || math.IsInf(p.Sigma[i], 0) {
			return fmt.Errorf("sigma at index %d is %g, %w", i, p.Sigma[i], ErrNonFinite)
		}
		if p.Sigma[i] <= 0 {
			return fmt.Errorf("sigma at index %d is %g, %w", i, p.Sigma[i], ErrNonPositiveSigma)
		}
		if !isFinite(p.X[i]) || !isFinite(p.Y[i]) {
			return fmt.Errorf("observation at index %d, %w", i, ErrNonFinite)
		}
	}
	return nil
}

// residuals writes the whitened residuals (y_i - f(x_i, p)) / sigma_i into dst and
// returns the chi-squared value
func (p *Problem) residuals(dst []float64, params []float64) float64 {
	for i := range p.X {
		dst[i] = (p.Y[i] - p.Model(p.X[i], params)) / p.Sigma[i]
	}
	return floats.Dot(dst, dst)
}

// whitenedJacobian writes the model jacobian divided row-wise by sigma into dst,
// an m x n matrix
func (p *Problem) whitenedJacobian(dst *mat.Dense, params []float64) {
	m, n := dst.Dims()
	if p.Jacobian != nil {
		row := make([]float64, n)
		for i := 0; i < m; i++ {
			p.Jacobian(row, p.X[i], params)
			floats.Scale(1.0/p.Sigma[i], row)
			dst.SetRow(i, row)
		}
		return
	}

	model := func(y, params []float64) {
		for i := range y {
			y[i] = p.Model(p.X[i], params)
		}
	}
	fd.Jacobian(dst, model, params, &fd.JacobianSettings{Formula: fd.Central})
	for i := 0; i < m; i++ {
		row := dst.RawRowView(i)
		floats.Scale(1.0/p.Sigma[i], row)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
