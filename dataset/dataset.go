// Package dataset holds the observation set a model is fit against: independent
// values, observed values and their one-sigma uncertainties.
package dataset

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-curvefit/internal/fiterr"
)

var (
	ErrNoObservations   = fmt.Errorf("no observations, %w", fiterr.ErrInvalidInput)
	ErrLenMismatch      = fmt.Errorf("observation slices have different lengths, %w", fiterr.ErrInvalidInput)
	ErrNonPositiveError = fmt.Errorf("uncertainties must be strictly positive, %w", fiterr.ErrInvalidInput)
	ErrNonFinite        = fmt.Errorf("observations must be finite, %w", fiterr.ErrInvalidInput)
)

// Observations stores equal length slices of independent values, observed values and
// observation uncertainties.
type Observations struct {
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
	YErr []float64 `json:"y_err"`
}

// New validates and copies the input into an Observations
func New(x, y, yErr []float64) (*Observations, error) {
	if len(y) == 0 {
		return nil, ErrNoObservations
	}
	if len(x) != len(y) || len(yErr) != len(y) {
		return nil, fmt.Errorf(
			"x has length of %d, y has length of %d, y_err has length of %d, %w",
			len(x), len(y), len(yErr), ErrLenMismatch,
		)
	}
	for i := 0; i < len(y); i++ {
		if !isFinite(x[i]) || !isFinite(y[i]) || !isFinite(yErr[i]) {
			return nil, fmt.Errorf("non-finite value at %d, %w", i, ErrNonFinite)
		}
		if yErr[i] <= 0 {
			return nil, fmt.Errorf("uncertainty at %d is %g, %w", i, yErr[i], ErrNonPositiveError)
		}
	}

	obs := &Observations{
		X:    make([]float64, len(x)),
		Y:    make([]float64, len(y)),
		YErr: make([]float64, len(yErr)),
	}
	copy(obs.X, x)
	copy(obs.Y, y)
	copy(obs.YErr, yErr)
	return obs, nil
}

// Len returns the number of observations
func (o *Observations) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Y)
}

// Copy returns a deep copy of the observations. A nil receiver returns nil.
func (o *Observations) Copy() *Observations {
	if o == nil {
		return nil
	}
	obs := &Observations{
		X:    make([]float64, len(o.X)),
		Y:    make([]float64, len(o.Y)),
		YErr: make([]float64, len(o.YErr)),
	}
	copy(obs.X, o.X)
	copy(obs.Y, o.Y)
	copy(obs.YErr, o.YErr)
	return obs
}

// Without returns a copy of the observations excluding the provided indices. Indices
// out of range are ignored.
func (o *Observations) Without(idxs []int) *Observations {
	drop := make(map[int]struct{}, len(idxs))
	for _, idx := range idxs {
		drop[idx] = struct{}{}
	}

	n := len(o.Y)
	obs := &Observations{
		X:    make([]float64, 0, n),
		Y:    make([]float64, 0, n),
		YErr: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		if _, exists := drop[i]; exists {
			continue
		}
		obs.X = append(obs.X, o.X[i])
		obs.Y = append(obs.Y, o.Y[i])
		obs.YErr = append(obs.YErr, o.YErr[i])
	}
	return obs
}

// Uniform returns n copies of sigma, for observations sharing one uncertainty
func Uniform(n int, sigma float64) []float64 {
	return GenerateConstY(n, sigma)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
