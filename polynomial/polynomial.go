// Package polynomial evaluates polynomials of arbitrary degree described by an
// ordered coefficient vector where params[i] multiplies x^i.
package polynomial

import (
	"fmt"
	"math"
	"strings"

	"github.com/aouyang1/go-curvefit/internal/fiterr"
)

// ErrNoCoefficients is returned when a polynomial is described with an empty
// coefficient vector. An empty polynomial is rejected rather than treated as the
// zero function.
var ErrNoCoefficients = fmt.Errorf("polynomial requires at least one coefficient, %w", fiterr.ErrInvalidInput)

// Evaluate returns sum(params[i] * x^i) using Horner's scheme.
func Evaluate(x float64, params []float64) (float64, error) {
	if len(params) == 0 {
		return 0, ErrNoCoefficients
	}
	return horner(x, params), nil
}

// EvaluateSlice evaluates the polynomial at every point of x. The output has the
// same length as x.
func EvaluateSlice(x []float64, params []float64) ([]float64, error) {
	if len(params) == 0 {
		return nil, ErrNoCoefficients
	}
	y := make([]float64, len(x))
	for i, xPnt := range x {
		y[i] = horner(xPnt, params)
	}
	return y, nil
}

// Func adapts Evaluate to the model signature used by the least squares solvers.
// The coefficient vector is assumed to be non-empty.
func Func(x float64, params []float64) float64 {
	return horner(x, params)
}

// Jacobian writes the partial derivatives of the polynomial with respect to each
// coefficient at x into dst, i.e. dst[i] = x^i. Only len(dst) terms are written.
func Jacobian(dst []float64, x float64, _ []float64) {
	pow := 1.0
	for i := range dst {
		dst[i] = pow
		pow *= x
	}
}

func horner(x float64, params []float64) float64 {
	n := len(params)
	y := params[n-1]
	for i := n - 2; i >= 0; i-- {
		y = y*x + params[i]
	}
	return y
}

// Equation returns a string representation of the polynomial in the format of
// y ~ p0 + p1*x + p2*x^2 ...
func Equation(params []float64) (string, error) {
	if len(params) == 0 {
		return "", ErrNoCoefficients
	}

	var sb strings.Builder
	sb.WriteString("y ~ ")
	sb.WriteString(fmt.Sprintf("%.4g", params[0]))
	for i := 1; i < len(params); i++ {
		sign := "+"
		if math.Signbit(params[i]) {
			sign = "-"
		}
		sb.WriteString(fmt.Sprintf(" %s %.4g*x", sign, math.Abs(params[i])))
		if i > 1 {
			sb.WriteString(fmt.Sprintf("^%d", i))
		}
	}
	return sb.String(), nil
}
