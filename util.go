package curvefit

import (
	"math"
	"strconv"

	"github.com/aouyang1/go-curvefit/dataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func indentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}

func xAxisLabels(x []float64) []string {
	labels := make([]string, 0, len(x))
	for _, v := range x {
		labels = append(labels, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return labels
}

func lineData(y []float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(y))
	for _, v := range y {
		// echarts draws a gap for missing values
		if math.IsNaN(v) || math.IsInf(v, 0) {
			data = append(data, opts.LineData{Value: "-"})
			continue
		}
		data = append(data, opts.LineData{Value: v})
	}
	return data
}

// LineSeries generates an echart multi-line chart for some arbitrary x/value combination. The
// input y is a slice of series that must have the same length as the input x slice.
func LineSeries(title string, seriesName []string, x []float64, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(xAxisLabels(x))
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData(y[i]))
	}
	return line
}

// LineFit generates an echart line chart for the fit results plotting the observed values
// with their one-sigma band along with the fitted curve.
func LineFit(trainingData *dataset.Observations, res *Results) *charts.Line {
	n := trainingData.Len()
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = trainingData.Y[i] + trainingData.YErr[i]
		lower[i] = trainingData.Y[i] - trainingData.YErr[i]
	}

	return LineSeries(
		"Curve Fit",
		[]string{"Observed", "Fit", "Upper", "Lower"},
		trainingData.X,
		[][]float64{trainingData.Y, res.FittedCurve, upper, lower},
	)
}
