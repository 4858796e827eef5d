package leastsquares

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const gradientThreshold = 1e-12

// bfgs minimizes chi-squared directly with gonum's quasi-Newton BFGS method using the
// analytic gradient -2 Aᵀr of the whitened problem. The search runs in preconditioned
// coordinates u = T p so that parameters of very different magnitude, like the
// coefficients of a polynomial in decimal years, do not stall the line search.
func bfgs(p *Problem, p0 []float64, opt *Options) (*Solution, error) {
	m, n := len(p.Y), len(p0)

	r := make([]float64, m)
	a := mat.NewDense(m, n, nil)
	p.whitenedJacobian(a, p0)
	pc := newPreconditioner(a)

	trial := make([]float64, n)
	gradP := make([]float64, n)
	gradient := func(grad, x []float64) {
		p.residuals(r, x)
		p.whitenedJacobian(a, x)
		g := mat.NewVecDense(n, grad)
		g.MulVec(a.T(), mat.NewVecDense(m, r))
		floats.Scale(-2, grad)
	}

	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			pc.toParams(trial, u)
			return p.residuals(r, trial)
		},
		Grad: func(grad, u []float64) {
			pc.toParams(trial, u)
			gradient(gradP, trial)
			pc.toScaledGrad(grad, gradP)
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   opt.MaxIterations,
		GradientThreshold: gradientThreshold,
		Converger: &optimize.FunctionConverge{
			Absolute:   opt.Tolerance,
			Relative:   opt.Tolerance,
			Iterations: 5,
		},
	}

	res, err := optimize.Minimize(problem, pc.toScaled(p0), settings, &optimize.BFGS{})
	if res == nil {
		return nil, &ConvergenceError{
			Method: MethodBFGS,
			Reason: ReasonOptimizerFailure,
			Params: copyOf(p0),
			Err:    err,
		}
	}

	params := make([]float64, n)
	pc.toParams(params, res.X)
	chi2 := p.residuals(r, params)
	iter := res.Stats.MajorIterations
	if !isFinite(chi2) {
		return nil, &ConvergenceError{
			Method:     MethodBFGS,
			Reason:     ReasonNonFinite,
			Iterations: iter,
			ChiSquared: chi2,
			Params:     params,
			Err:        err,
		}
	}

	if res.Status == optimize.IterationLimit {
		return nil, &ConvergenceError{
			Method:     MethodBFGS,
			Reason:     ReasonIterationLimit,
			Iterations: iter,
			ChiSquared: chi2,
			Params:     params,
			Err:        err,
		}
	}

	// a failed line search near the minimum is accepted when the gradient is flat
	if err != nil || res.Status.Early() {
		grad := make([]float64, n)
		problem.Grad(grad, res.X)
		if floats.Norm(grad, math.Inf(1)) > math.Sqrt(opt.Tolerance)*math.Max(1, chi2) {
			return nil, &ConvergenceError{
				Method:     MethodBFGS,
				Reason:     ReasonOptimizerFailure,
				Iterations: iter,
				ChiSquared: chi2,
				Params:     params,
				Err:        err,
			}
		}
	}

	p.whitenedJacobian(a, params)
	cov, err := covariance(a)
	if err != nil {
		return nil, &ConvergenceError{
			Method:     MethodBFGS,
			Reason:     ReasonSingular,
			Iterations: iter,
			ChiSquared: chi2,
			Params:     params,
			Err:        err,
		}
	}

	return &Solution{
		Method:     MethodBFGS,
		Params:     params,
		Covariance: cov,
		ChiSquared: chi2,
		Iterations: iter,
	}, nil
}

// preconditioner maps parameters p to u = T p where T = R D. D holds the column norms of
// the whitened jacobian A at the initial guess and R comes from the QR factorization of
// A D⁻¹, so AᵀA becomes the identity in u. When R cannot be inverted T falls back to D.
type preconditioner struct {
	t    *mat.Dense
	tInv *mat.Dense
}

func newPreconditioner(a *mat.Dense) *preconditioner {
	_, n := a.Dims()
	scale := make([]float64, n)
	columnScale(scale, a)
	for j := range scale {
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	pc := &preconditioner{
		t:    mat.NewDense(n, n, nil),
		tInv: mat.NewDense(n, n, nil),
	}

	var qr mat.QR
	qr.Factorize(scaleColumns(a, scale))
	if cond := qr.Cond(); !math.IsNaN(cond) && cond <= mat.ConditionTolerance {
		var r mat.Dense
		qr.RTo(&r)
		rTri := mat.NewTriDense(n, mat.Upper, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				rTri.SetTri(i, j, r.At(i, j))
			}
		}
		var rInv mat.TriDense
		if err := rInv.InverseTri(rTri); err == nil {
			// T = R D and T⁻¹ = D⁻¹ R⁻¹
			for i := 0; i < n; i++ {
				for j := i; j < n; j++ {
					pc.t.Set(i, j, rTri.At(i, j)*scale[j])
					pc.tInv.Set(i, j, rInv.At(i, j)/scale[i])
				}
			}
			return pc
		}
	}

	for j := 0; j < n; j++ {
		pc.t.Set(j, j, scale[j])
		pc.tInv.Set(j, j, 1/scale[j])
	}
	return pc
}

// toScaled returns T p
func (pc *preconditioner) toScaled(params []float64) []float64 {
	n := len(params)
	u := mat.NewVecDense(n, nil)
	u.MulVec(pc.t, mat.NewVecDense(n, copyOf(params)))
	return u.RawVector().Data
}

// toParams writes T⁻¹ u into dst
func (pc *preconditioner) toParams(dst, u []float64) {
	n := len(u)
	mat.NewVecDense(n, dst).MulVec(pc.tInv, mat.NewVecDense(n, u))
}

// toScaledGrad writes the gradient with respect to u, T⁻ᵀ g, into dst
func (pc *preconditioner) toScaledGrad(dst, grad []float64) {
	n := len(grad)
	mat.NewVecDense(n, dst).MulVec(pc.tInv.T(), mat.NewVecDense(n, grad))
}
