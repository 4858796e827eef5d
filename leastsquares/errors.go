package leastsquares

import (
	"fmt"

	"github.com/aouyang1/go-curvefit/internal/fiterr"
)

var (
	ErrInvalidInput = fiterr.ErrInvalidInput
	ErrConvergence  = fiterr.ErrConvergence

	ErrNoObservations   = fmt.Errorf("no observations, %w", ErrInvalidInput)
	ErrLenMismatch      = fmt.Errorf("x, y and sigma have different lengths, %w", ErrInvalidInput)
	ErrNonPositiveSigma = fmt.Errorf("uncertainties must be strictly positive, %w", ErrInvalidInput)
	ErrNonFinite        = fmt.Errorf("observations must be finite, %w", ErrInvalidInput)
	ErrNoInitialGuess   = fmt.Errorf("no initial guess for parameters, %w", ErrInvalidInput)
	ErrNoModel          = fmt.Errorf("no model function, %w", ErrInvalidInput)
	ErrInvalidOptions   = fmt.Errorf("invalid solver options, %w", ErrInvalidInput)
	ErrUnknownMethod    = fmt.Errorf("unknown solver method, %w", ErrInvalidInput)
)

// Reasons a solver gives up without a solution.
const (
	ReasonIterationLimit   = "iteration limit reached"
	ReasonSingular         = "singular or ill-conditioned jacobian"
	ReasonNonFinite        = "non-finite chi-squared"
	ReasonUnderdetermined  = "fewer observations than parameters"
	ReasonOptimizerFailure = "optimizer failure"
)

// ConvergenceError carries the state of a solver that failed so that callers can
// decide whether to retry with a different initial guess or a lower degree model.
type ConvergenceError struct {
	Method     Method
	Reason     string
	Iterations int
	ChiSquared float64
	Params     []float64
	Err        error
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("%s: %s after %d iterations, chi-squared %g", e.Method, e.Reason, e.Iterations, e.ChiSquared)
	if e.Err != nil {
		msg += ", " + e.Err.Error()
	}
	return msg
}

// Is reports ErrConvergence so callers can match the failure class with errors.Is.
func (e *ConvergenceError) Is(target error) bool {
	return target == ErrConvergence
}

func (e *ConvergenceError) Unwrap() error {
	return e.Err
}
