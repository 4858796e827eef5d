package stats

import (
	"fmt"
	"math"
	"sort"
)

var ErrNoValues = fmt.Errorf("no finite values, %w", ErrInvalidInput)

// DetectOutliers returns the indices of values outside the Tukey fence built from the
// lower and upper percentiles. The inner range is widened by tukeyFactor on each side.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	if len(y) == 0 {
		return nil
	}
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, len(y))
	copy(yCopy, y)
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)-1) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(yCopy)-1) * upperPerc))

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// Median returns the median of the finite values of x. An even count averages the two
// middle values.
func Median(x []float64) (float64, error) {
	vals := make([]float64, 0, len(x))
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return math.NaN(), ErrNoValues
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], nil
	}
	return (vals[mid-1] + vals[mid]) / 2.0, nil
}

// Pulls normalizes residuals by their uncertainty
func Pulls(residuals, yErr []float64) ([]float64, error) {
	if len(residuals) != len(yErr) {
		return nil, fmt.Errorf("residuals have %d values, uncertainties have %d, %w", len(residuals), len(yErr), ErrLenMismatch)
	}
	pulls := make([]float64, len(residuals))
	for i := range residuals {
		if yErr[i] <= 0 {
			return nil, fmt.Errorf("uncertainty at index %d is %g, %w", i, yErr[i], ErrNonPositiveError)
		}
		pulls[i] = residuals[i] / yErr[i]
	}
	return pulls, nil
}
