package dataset

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/aouyang1/go-curvefit/internal/fiterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestNew(t *testing.T) {
	testData := map[string]struct {
		x        []float64
		y        []float64
		yErr     []float64
		expected *Observations
		err      error
	}{
		"no observations": {
			err: ErrNoObservations,
		},
		"length mismatch": {
			x:    []float64{1},
			y:    []float64{1, 2},
			yErr: []float64{1, 1},
			err:  ErrLenMismatch,
		},
		"error length mismatch": {
			x:    []float64{1, 2},
			y:    []float64{1, 2},
			yErr: []float64{1},
			err:  ErrLenMismatch,
		},
		"zero uncertainty": {
			x:    []float64{1, 2},
			y:    []float64{1, 2},
			yErr: []float64{1, 0},
			err:  ErrNonPositiveError,
		},
		"nan value": {
			x:    []float64{1, 2},
			y:    []float64{math.NaN(), 2},
			yErr: []float64{1, 1},
			err:  ErrNonFinite,
		},
		"valid": {
			x:    []float64{1959, 1960},
			y:    []float64{315.98, 316.91},
			yErr: []float64{0.12, 0.12},
			expected: &Observations{
				X:    []float64{1959, 1960},
				Y:    []float64{315.98, 316.91},
				YErr: []float64{0.12, 0.12},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			obs, err := New(td.x, td.y, td.yErr)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.ErrorIs(t, err, fiterr.ErrInvalidInput)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, obs)
			assert.Equal(t, len(td.y), obs.Len())

			// input is copied
			td.y[0] = 0
			assert.NotEqual(t, 0.0, obs.Y[0])
		})
	}
}

func TestWithout(t *testing.T) {
	obs, err := New([]float64{0, 1, 2, 3}, []float64{1, 2, 30, 4}, Uniform(4, 0.5))
	require.Nil(t, err)

	res := obs.Without([]int{2, 10})
	assert.Equal(t, []float64{0, 1, 3}, res.X)
	assert.Equal(t, []float64{1, 2, 4}, res.Y)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, res.YErr)
	assert.Equal(t, 4, obs.Len())

	cp := obs.Copy()
	cp.Y[0] = 100
	assert.Equal(t, 1.0, obs.Y[0])

	var empty *Observations
	assert.Nil(t, empty.Copy())
}

func TestSimulate(t *testing.T) {
	x := GenerateX(5, 1960, 0.5)
	assert.Equal(t, []float64{1960, 1960.5, 1961, 1961.5, 1962}, x)

	y := GeneratePolynomialY([]float64{0, 1, 2}, []float64{1, -2, 0.5})
	assert.Equal(t, Series{1, -0.5, -1}, y)

	res := y.Add(GenerateConstY(3, 1))
	assert.Equal(t, Series{2, 0.5, 0}, res)

	wave := GenerateWaveY([]float64{0, 0.25, 0.5}, 3, 1, 1, 0)
	assert.InDeltaSlice(t, []float64{0, 3, 0}, wave, 1e-12)
}

func TestGenerateNoise(t *testing.T) {
	sigma := Uniform(20000, 2.0)

	noise := GenerateNoise(rand.New(rand.NewPCG(1, 2)), sigma)
	again := GenerateNoise(rand.New(rand.NewPCG(1, 2)), sigma)
	assert.Equal(t, noise, again)

	mean, std := stat.MeanStdDev(noise, nil)
	assert.InDelta(t, 0.0, mean, 0.05)
	assert.InDelta(t, 2.0, std, 0.05)
}
