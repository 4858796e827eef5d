package leastsquares

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// linear computes a single Gauss-Newton step from p0 using QR factorization of the
// column scaled whitened jacobian. For models that are linear in their parameters the
// jacobian does not depend on p0 and the step lands on the exact minimum.
func linear(p *Problem, p0 []float64, _ *Options) (*Solution, error) {
	m, n := len(p.Y), len(p0)

	r := make([]float64, m)
	chi2 := p.residuals(r, p0)
	if !isFinite(chi2) {
		return nil, &ConvergenceError{
			Method:     MethodLinear,
			Reason:     ReasonNonFinite,
			ChiSquared: chi2,
			Params:     copyOf(p0),
		}
	}

	a := mat.NewDense(m, n, nil)
	p.whitenedJacobian(a, p0)
	scale := make([]float64, n)
	columnScale(scale, a)
	as := scaleColumns(a, scale)

	qr := new(mat.QR)
	qr.Factorize(as)
	if cond := qr.Cond(); math.IsNaN(cond) || cond > mat.ConditionTolerance {
		return nil, &ConvergenceError{
			Method:     MethodLinear,
			Reason:     ReasonSingular,
			ChiSquared: chi2,
			Params:     copyOf(p0),
		}
	}

	// Q is applied implicitly so memory stays linear in the number of observations
	var step mat.VecDense
	if err := qr.SolveVecTo(&step, false, mat.NewVecDense(m, r)); err != nil {
		return nil, &ConvergenceError{
			Method:     MethodLinear,
			Reason:     ReasonSingular,
			ChiSquared: chi2,
			Params:     copyOf(p0),
			Err:        err,
		}
	}
	u := step.RawVector().Data

	params := copyOf(p0)
	for j := 0; j < n; j++ {
		if scale[j] > 0 {
			u[j] /= scale[j]
		}
		params[j] += u[j]
	}

	chi2 = p.residuals(r, params)
	if !isFinite(chi2) {
		return nil, &ConvergenceError{
			Method:     MethodLinear,
			Reason:     ReasonNonFinite,
			Iterations: 1,
			ChiSquared: chi2,
			Params:     params,
		}
	}

	p.whitenedJacobian(a, params)
	cov, err := covariance(a)
	if err != nil {
		return nil, &ConvergenceError{
			Method:     MethodLinear,
			Reason:     ReasonSingular,
			Iterations: 1,
			ChiSquared: chi2,
			Params:     params,
			Err:        err,
		}
	}

	return &Solution{
		Method:     MethodLinear,
		Params:     params,
		Covariance: cov,
		ChiSquared: chi2,
		Iterations: 1,
	}, nil
}
