package curvefit

import "github.com/aouyang1/go-curvefit/stats"

// Results holds the outcome of a fit. FittedCurve and Residuals are aligned with the
// input observations, including any excluded as outliers.
type Results struct {
	Params            []float64     `json:"params"`
	Uncertainties     []float64     `json:"uncertainties"`
	FittedCurve       []float64     `json:"fitted_curve"`
	Residuals         []float64     `json:"residuals"`
	ReducedChiSquared float64       `json:"-"`
	Scores            *stats.Scores `json:"scores"`
	Iterations        int           `json:"iterations"`
	Outliers          []int         `json:"outliers,omitempty"`
}
