package leastsquares

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Solution is the result of a converged fit
type Solution struct {
	Method     Method
	Params     []float64
	Covariance *mat.SymDense
	ChiSquared float64
	Iterations int
}

// StdErrors returns the one-sigma uncertainty of each parameter
func (s *Solution) StdErrors() []float64 {
	if s == nil {
		return nil
	}
	return StdErrors(s.Covariance)
}

// Solve minimizes the weighted sum of squared residuals of the problem starting at p0.
// Precondition violations return an error matching ErrInvalidInput and solver failures
// return a *ConvergenceError matching ErrConvergence. No partial solution is returned.
func Solve(p *Problem, p0 []float64, opt *Options) (*Solution, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if err := p.Validate(len(p0)); err != nil {
		return nil, err
	}
	for i, v := range p0 {
		if !isFinite(v) {
			return nil, fmt.Errorf("initial guess at index %d is %g, %w", i, v, ErrNonFinite)
		}
	}

	if len(p.Y) < len(p0) {
		return nil, &ConvergenceError{
			Method: opt.Method,
			Reason: ReasonUnderdetermined,
			Params: copyOf(p0),
		}
	}

	switch opt.Method {
	case MethodLevenbergMarquardt:
		return levenbergMarquardt(p, p0, opt)
	case MethodBFGS:
		return bfgs(p, p0, opt)
	case MethodLinear:
		return linear(p, p0, opt)
	}
	return nil, fmt.Errorf("%q, %w", opt.Method, ErrUnknownMethod)
}

func copyOf(s []float64) []float64 {
	c := make([]float64, len(s))
	copy(c, s)
	return c
}
