package curvefit

import (
	"fmt"

	"github.com/aouyang1/go-curvefit/leastsquares"
)

var ErrInvalidOutlierOptions = fmt.Errorf("invalid outlier options, %w", ErrInvalidInput)

// OutlierOptions configures iterative removal of observations whose pulls fall outside
// a Tukey fence of the pull distribution. Each pass refits without the flagged points.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

// NewOutlierOptions returns three removal passes with a unit Tukey fence on the 10th and
// 90th percentiles of the pulls
func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// Validate checks the pass count, percentile ordering and fence factor. A nil receiver
// disables outlier removal and is valid.
func (o *OutlierOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.NumPasses < 0 {
		return fmt.Errorf("number of passes is %d, %w", o.NumPasses, ErrInvalidOutlierOptions)
	}
	if o.LowerPercentile < 0 || o.UpperPercentile > 1 || o.LowerPercentile >= o.UpperPercentile {
		return fmt.Errorf("percentiles must satisfy 0 <= %g < %g <= 1, %w",
			o.LowerPercentile, o.UpperPercentile, ErrInvalidOutlierOptions)
	}
	if o.TukeyFactor < 0 {
		return fmt.Errorf("tukey factor is %g, %w", o.TukeyFactor, ErrInvalidOutlierOptions)
	}
	return nil
}

// Options configures the fitter. A nil OutlierOptions fits every observation.
type Options struct {
	Solver         *leastsquares.Options `json:"solver"`
	OutlierOptions *OutlierOptions       `json:"outlier_options,omitempty"`
}

// NewDefaultOptions returns Levenberg-Marquardt solver defaults without outlier removal
func NewDefaultOptions() *Options {
	return &Options{
		Solver: leastsquares.NewDefaultOptions(),
	}
}

// Validate returns a validated copy of the options with unset solver values defaulted
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	solver, err := o.Solver.Validate()
	if err != nil {
		return nil, err
	}
	if err := o.OutlierOptions.Validate(); err != nil {
		return nil, err
	}

	opt := &Options{Solver: solver}
	if o.OutlierOptions != nil {
		outlierOpt := *o.OutlierOptions
		opt.OutlierOptions = &outlierOpt
	}
	return opt, nil
}
