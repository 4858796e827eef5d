package leastsquares

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	dampingUp   = 10.0
	dampingDown = 0.1
	minDamping  = 1e-15
	maxDamping  = 1e16
)

// levenbergMarquardt runs the damped Gauss-Newton iteration. Each major iteration
// solves the augmented least squares problem [As; sqrt(lambda) I] u = [r; 0] by QR
// where As is the column scaled whitened jacobian. Steps that do not reduce
// chi-squared increase the damping until one does.
func levenbergMarquardt(p *Problem, p0 []float64, opt *Options) (*Solution, error) {
	m, n := len(p.Y), len(p0)

	params := copyOf(p0)
	trial := make([]float64, n)
	delta := make([]float64, n)
	r := make([]float64, m)
	rTrial := make([]float64, m)

	chi2 := p.residuals(r, params)
	if !isFinite(chi2) {
		return nil, &ConvergenceError{
			Method:     MethodLevenbergMarquardt,
			Reason:     ReasonNonFinite,
			ChiSquared: chi2,
			Params:     params,
		}
	}

	a := mat.NewDense(m, n, nil)
	p.whitenedJacobian(a, params)
	scale := make([]float64, n)
	columnScale(scale, a)

	lambda := opt.InitialDamping
	converged := chi2 == 0
	var iter int
	for !converged {
		if iter >= opt.MaxIterations {
			return nil, &ConvergenceError{
				Method:     MethodLevenbergMarquardt,
				Reason:     ReasonIterationLimit,
				Iterations: iter,
				ChiSquared: chi2,
				Params:     params,
			}
		}
		iter++

		as := scaleColumns(a, scale)
		accepted := false
		for lambda <= maxDamping {
			u, err := dampedStep(as, r, lambda)
			if err != nil {
				lambda *= dampingUp
				continue
			}
			for j := 0; j < n; j++ {
				delta[j] = u[j]
				if scale[j] > 0 {
					delta[j] /= scale[j]
				}
				trial[j] = params[j] + delta[j]
			}

			chi2Trial := p.residuals(rTrial, trial)
			if !isFinite(chi2Trial) || chi2Trial > chi2 {
				lambda *= dampingUp
				continue
			}

			accepted = true
			reduction := chi2 - chi2Trial
			stepNorm := floats.Norm(delta, 2)
			paramNorm := floats.Norm(params, 2)

			copy(params, trial)
			r, rTrial = rTrial, r
			prevChi2 := chi2
			chi2 = chi2Trial
			lambda = math.Max(lambda*dampingDown, minDamping)

			converged = chi2 == 0 ||
				reduction <= opt.Tolerance*prevChi2 ||
				stepNorm <= opt.Tolerance*(paramNorm+opt.Tolerance)
			break
		}

		// no damped step reduces chi-squared, the current parameters are a minimum to
		// machine precision
		if !accepted {
			break
		}
		p.whitenedJacobian(a, params)
		columnScale(scale, a)
	}

	cov, err := covariance(a)
	if err != nil {
		return nil, &ConvergenceError{
			Method:     MethodLevenbergMarquardt,
			Reason:     ReasonSingular,
			Iterations: iter,
			ChiSquared: chi2,
			Params:     params,
			Err:        err,
		}
	}

	return &Solution{
		Method:     MethodLevenbergMarquardt,
		Params:     params,
		Covariance: cov,
		ChiSquared: chi2,
		Iterations: iter,
	}, nil
}

// dampedStep solves min ||r - As u||^2 + lambda ||u||^2
func dampedStep(as *mat.Dense, r []float64, lambda float64) ([]float64, error) {
	m, n := as.Dims()

	aug := mat.NewDense(m+n, n, nil)
	for i := 0; i < m; i++ {
		aug.SetRow(i, as.RawRowView(i))
	}
	sqrtLambda := math.Sqrt(lambda)
	for j := 0; j < n; j++ {
		aug.Set(m+j, j, sqrtLambda)
	}

	rhs := mat.NewVecDense(m+n, nil)
	for i := 0; i < m; i++ {
		rhs.SetVec(i, r[i])
	}

	var qr mat.QR
	qr.Factorize(aug)

	var u mat.VecDense
	if err := qr.SolveVecTo(&u, false, rhs); err != nil {
		return nil, err
	}
	return u.RawVector().Data, nil
}
