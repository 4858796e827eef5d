package leastsquares

import "fmt"

// Method selects the minimization procedure.
type Method string

const (
	// MethodLevenbergMarquardt is a damped Gauss-Newton iteration on the whitened residuals.
	MethodLevenbergMarquardt Method = "levenberg-marquardt"
	// MethodBFGS minimizes the weighted sum of squares with a quasi-Newton method.
	MethodBFGS Method = "bfgs"
	// MethodLinear takes a single Gauss-Newton step solved with QR. Exact for models that
	// are linear in their parameters such as polynomials.
	MethodLinear Method = "linear"
)

const (
	DefaultMaxIterations  = 200
	DefaultTolerance      = 1e-10
	DefaultInitialDamping = 1e-3
)

// Options configures the solver budget. MaxIterations bounds the number of major
// iterations so callers can bound the worst case latency of a fit.
type Options struct {
	Method         Method  `json:"method"`
	MaxIterations  int     `json:"max_iterations"`
	Tolerance      float64 `json:"tolerance"`
	InitialDamping float64 `json:"initial_damping"`
}

// NewDefaultOptions returns Levenberg-Marquardt options with the default budget
func NewDefaultOptions() *Options {
	return &Options{
		Method:         MethodLevenbergMarquardt,
		MaxIterations:  DefaultMaxIterations,
		Tolerance:      DefaultTolerance,
		InitialDamping: DefaultInitialDamping,
	}
}

// Validate fills in defaults for unset fields and rejects invalid values. A nil
// receiver returns the default options.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}

	out := *o
	switch out.Method {
	case "":
		out.Method = MethodLevenbergMarquardt
	case MethodLevenbergMarquardt, MethodBFGS, MethodLinear:
	default:
		return nil, fmt.Errorf("%q, %w", out.Method, ErrUnknownMethod)
	}

	if out.MaxIterations < 0 {
		return nil, fmt.Errorf("max iterations of %d, %w", out.MaxIterations, ErrInvalidOptions)
	}
	if out.MaxIterations == 0 {
		out.MaxIterations = DefaultMaxIterations
	}

	if out.Tolerance < 0 || out.Tolerance >= 1 {
		return nil, fmt.Errorf("tolerance of %g, %w", out.Tolerance, ErrInvalidOptions)
	}
	if out.Tolerance == 0 {
		out.Tolerance = DefaultTolerance
	}

	if out.InitialDamping < 0 {
		return nil, fmt.Errorf("initial damping of %g, %w", out.InitialDamping, ErrInvalidOptions)
	}
	if out.InitialDamping == 0 {
		out.InitialDamping = DefaultInitialDamping
	}
	return &out, nil
}

// ParseMethod converts a method name into a Method
func ParseMethod(name string) (Method, error) {
	m := Method(name)
	switch m {
	case MethodLevenbergMarquardt, MethodBFGS, MethodLinear:
		return m, nil
	case "lm":
		return MethodLevenbergMarquardt, nil
	}
	return "", fmt.Errorf("%q, %w", name, ErrUnknownMethod)
}
