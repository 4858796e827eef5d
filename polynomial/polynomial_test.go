package polynomial

import (
	"math"
	"testing"

	"github.com/aouyang1/go-curvefit/internal/fiterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	testData := map[string]struct {
		x        float64
		params   []float64
		expected float64
		err      error
	}{
		"no coefficients": {
			x:   1.0,
			err: ErrNoCoefficients,
		},
		"constant": {
			x:        12.5,
			params:   []float64{3.2},
			expected: 3.2,
		},
		"identity": {
			x:        -7.25,
			params:   []float64{0, 1},
			expected: -7.25,
		},
		"line": {
			x:        4.0,
			params:   []float64{2, 3},
			expected: 14.0,
		},
		"cubic": {
			x:        2.0,
			params:   []float64{1, -2, 0.5, 3},
			expected: 1 - 4 + 2 + 24,
		},
		"zero x": {
			x:        0,
			params:   []float64{5, 10, 100},
			expected: 5,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Evaluate(td.x, td.params)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.ErrorIs(t, err, fiterr.ErrInvalidInput)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected, res, 1e-12)
		})
	}
}

func TestEvaluateConstantAnyX(t *testing.T) {
	for _, x := range []float64{-1e6, -3, 0, 0.5, 1987, math.MaxFloat32} {
		res, err := Evaluate(x, []float64{42.0})
		require.Nil(t, err)
		assert.Equal(t, 42.0, res)
	}
}

func TestEvaluateSlice(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	res, err := EvaluateSlice(x, []float64{2, 3})
	require.Nil(t, err)
	assert.Equal(t, []float64{2, 5, 8, 11, 14}, res)

	res, err = EvaluateSlice(nil, []float64{1})
	require.Nil(t, err)
	assert.Empty(t, res)

	_, err = EvaluateSlice(x, nil)
	assert.ErrorIs(t, err, ErrNoCoefficients)
}

func TestJacobian(t *testing.T) {
	dst := make([]float64, 4)
	Jacobian(dst, 3.0, nil)
	assert.Equal(t, []float64{1, 3, 9, 27}, dst)

	dst = make([]float64, 1)
	Jacobian(dst, 3.0, nil)
	assert.Equal(t, []float64{1}, dst)
}

func TestEquation(t *testing.T) {
	testData := map[string]struct {
		params   []float64
		expected string
		err      error
	}{
		"empty":    {err: ErrNoCoefficients},
		"constant": {params: []float64{1.5}, expected: "y ~ 1.5"},
		"line":     {params: []float64{2, 3}, expected: "y ~ 2 + 3*x"},
		"negative quadratic": {
			params:   []float64{-1, 0.5, -0.25},
			expected: "y ~ -1 + 0.5*x - 0.25*x^2",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			eq, err := Equation(td.params)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, eq)
		})
	}
}

func BenchmarkEvaluateSlice(b *testing.B) {
	x := make([]float64, 1000)
	for i := range x {
		x[i] = float64(i) / 10.0
	}
	params := []float64{1.2, -0.3, 0.01, 4e-4, -2e-6}

	for b.Loop() {
		if _, err := EvaluateSlice(x, params); err != nil {
			b.Fatal(err)
		}
	}
}
