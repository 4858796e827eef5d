package stats

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"
)

// Scores tracks the fit scores
type Scores struct {
	MSE               float64 `json:"mean_squared_error"`
	MAPE              float64 `json:"mean_average_percent_error"`
	R2                float64 `json:"r_squared"`
	ChiSquared        float64 `json:"chi_squared"`
	ReducedChiSquared float64 `json:"reduced_chi_squared"`
	DOF               int     `json:"degrees_of_freedom"`
}

// NewScores calculates the fit scores given the model, observed values and their
// uncertainties for a model with numParams fitted parameters
func NewScores(predicted, actual, actualErr []float64, numParams int) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean average percent error, %w", err)
	}
	rs, err := RSquared(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}
	chi2, err := ChiSquared(actual, actualErr, predicted)
	if err != nil {
		return nil, fmt.Errorf("unable to compute chi-squared, %w", err)
	}
	redChi2, err := ReducedChiSquared(actual, actualErr, predicted, numParams)
	if err != nil {
		return nil, fmt.Errorf("unable to compute reduced chi-squared, %w", err)
	}

	return &Scores{
		MSE:               mse,
		MAPE:              mape,
		R2:                rs,
		ChiSquared:        chi2,
		ReducedChiSquared: redChi2,
		DOF:               DegreesOfFreedom(len(actual), numParams),
	}, nil
}

type scoresJSON struct {
	MSE               float64  `json:"mean_squared_error"`
	MAPE              float64  `json:"mean_average_percent_error"`
	R2                float64  `json:"r_squared"`
	ChiSquared        float64  `json:"chi_squared"`
	ReducedChiSquared *float64 `json:"reduced_chi_squared"`
	DOF               int      `json:"degrees_of_freedom"`
}

// MarshalJSON encodes an undefined reduced chi-squared as null since JSON has no
// representation for infinity
func (s Scores) MarshalJSON() ([]byte, error) {
	out := scoresJSON{
		MSE:        s.MSE,
		MAPE:       s.MAPE,
		R2:         s.R2,
		ChiSquared: s.ChiSquared,
		DOF:        s.DOF,
	}
	if !math.IsInf(s.ReducedChiSquared, 0) && !math.IsNaN(s.ReducedChiSquared) {
		redChi2 := s.ReducedChiSquared
		out.ReducedChiSquared = &redChi2
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null reduced chi-squared as +Inf
func (s *Scores) UnmarshalJSON(data []byte) error {
	var in scoresJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Scores{
		MSE:               in.MSE,
		MAPE:              in.MAPE,
		R2:                in.R2,
		ChiSquared:        in.ChiSquared,
		ReducedChiSquared: math.Inf(1),
		DOF:               in.DOF,
	}
	if in.ReducedChiSquared != nil {
		s.ReducedChiSquared = *in.ReducedChiSquared
	}
	return nil
}

// MSE computes the mean squared error. This is the same as sum((y-yhat)^2)/n.
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrLenMismatch)
	}
	if len(actual) == 0 {
		return 0, nil
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return mse, nil
}

// MAPE calculates the mean average percent error. This is the same as sum(abs((y-yhat)/y))/n.
// A score of 0 means a perfect match with no errors.
func MAPE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrLenMismatch)
	}
	if len(actual) == 0 {
		return 0, nil
	}

	mape := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) || actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	mape /= float64(len(actual))
	return mape, nil
}

// RSquared computes the r squared value between the predicted and actual where 1.0 means perfect
// fit and 0 represents no relationship
func RSquared(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrLenMismatch)
	}

	predictCopy := make([]float64, 0, len(predicted))
	actualCopy := make([]float64, 0, len(actual))
	for i := 0; i < len(predicted); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		predictCopy = append(predictCopy, predicted[i])
		actualCopy = append(actualCopy, actual[i])
	}
	if len(actualCopy) == 0 {
		return 1.0, nil
	}
	r2 := stat.RSquaredFrom(predictCopy, actualCopy, nil)
	if math.IsNaN(r2) {
		return 1.0, nil
	}
	return r2, nil
}
