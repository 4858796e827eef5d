package dataset

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// GenerateX returns n evenly spaced values starting at start
func GenerateX(n int, start, step float64) []float64 {
	x := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x = append(x, start+step*float64(i))
	}
	return x
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GeneratePolynomialY evaluates sum(params[i] * x^i) at every x
func GeneratePolynomialY(x []float64, params []float64) Series {
	y := make([]float64, 0, len(x))
	for _, v := range x {
		val := 0.0
		for i := len(params) - 1; i >= 0; i-- {
			val = val*v + params[i]
		}
		y = append(y, val)
	}
	return Series(y)
}

// GenerateWaveY produces a sinusoid in x, e.g. the seasonal cycle of a decimal year
// series with a period of 1.
func GenerateWaveY(x []float64, amp, period, order, offset float64) Series {
	y := make([]float64, 0, len(x))
	for _, v := range x {
		y = append(y, amp*math.Sin(2.0*math.Pi*order/period*(v+offset)))
	}
	return Series(y)
}

// GenerateNoise draws independent gaussian noise with the per point standard deviation
// in sigma. A nil rng uses the global source.
func GenerateNoise(rng *rand.Rand, sigma []float64) Series {
	norm := rand.NormFloat64
	if rng != nil {
		norm = rng.NormFloat64
	}
	y := make([]float64, 0, len(sigma))
	for _, s := range sigma {
		y = append(y, norm()*s)
	}
	return Series(y)
}
