package curvefit

import (
	"fmt"
	"image/color"
	"io"
	"slices"

	"github.com/aouyang1/go-curvefit/stats"
	"github.com/go-echarts/go-echarts/v2/components"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const curvePoints = 200

// PlotFit uses the Apache Echarts library to write an html page showing the observations
// with their uncertainty band, the fitted curve, and the fit residuals and pulls
func (f *Fitter) PlotFit(w io.Writer) error {
	td := f.fitTrainingData
	if td == nil || f.fitResults == nil {
		return ErrNoTrainingData
	}

	pulls, err := stats.Pulls(f.fitResults.Residuals, td.YErr)
	if err != nil {
		return fmt.Errorf("unable to compute pulls, %w", err)
	}

	page := components.NewPage()
	page.AddCharts(
		LineFit(td, f.fitResults),
		LineSeries(
			"Fit Residual",
			[]string{"Residual", "Pull"},
			td.X,
			[][]float64{f.fitResults.Residuals, pulls},
		),
	)
	return page.Render(w)
}

// errPoints implements plotter.XYer and plotter.YErrorer
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

// PlotFitPNG renders the observations with one-sigma error bars and the fitted curve
// sampled over the observed range to a png file at path
func (f *Fitter) PlotFitPNG(path string) error {
	td := f.fitTrainingData
	if td == nil {
		return ErrNoTrainingData
	}

	p := plot.New()
	p.Title.Text = "Curve Fit"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	pts := errPoints{
		XYs:     make(plotter.XYs, td.Len()),
		YErrors: make(plotter.YErrors, td.Len()),
	}
	for i := 0; i < td.Len(); i++ {
		pts.XYs[i].X = td.X[i]
		pts.XYs[i].Y = td.Y[i]
		pts.YErrors[i].Low = td.YErr[i]
		pts.YErrors[i].High = td.YErr[i]
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("could not create observation points, %w", err)
	}
	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return fmt.Errorf("could not create error bars, %w", err)
	}

	curveX := make([]float64, curvePoints)
	lo, hi := slices.Min(td.X), slices.Max(td.X)
	step := (hi - lo) / float64(curvePoints-1)
	for i := range curveX {
		curveX[i] = lo + step*float64(i)
	}
	curveY, err := f.Predict(curveX)
	if err != nil {
		return err
	}
	curve := make(plotter.XYs, curvePoints)
	for i := range curve {
		curve[i].X = curveX[i]
		curve[i].Y = curveY[i]
	}
	fitLine, err := plotter.NewLine(curve)
	if err != nil {
		return fmt.Errorf("could not create fit line, %w", err)
	}
	fitLine.LineStyle.Color = color.RGBA{R: 220, G: 50, B: 47, A: 255}
	fitLine.LineStyle.Width = vg.Points(1.5)

	p.Add(scatter, bars, fitLine)
	p.Legend.Add("observed", scatter)
	p.Legend.Add("fit", fitLine)
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(20*vg.Centimeter, 12*vg.Centimeter, path); err != nil {
		return fmt.Errorf("could not save plot, %w", err)
	}
	return nil
}
