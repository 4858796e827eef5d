package noaa

import (
	"fmt"
	"math"
	"sort"

	"github.com/aouyang1/go-curvefit/dataset"
)

// AnnualMeans groups rows by the integer part of the time column and averages the time,
// value and uncertainty within every year. The result is sorted by year.
func AnnualMeans(t *Table, timeCol, valueCol, errCol string) (*dataset.Observations, error) {
	times, err := t.Column(timeCol)
	if err != nil {
		return nil, err
	}
	values, err := t.Column(valueCol)
	if err != nil {
		return nil, err
	}
	errs, err := t.Column(errCol)
	if err != nil {
		return nil, err
	}

	type yearSum struct {
		t, v, e float64
		n       int
	}
	groups := make(map[int]*yearSum)
	for i := range times {
		year := int(math.Trunc(times[i]))
		g, exists := groups[year]
		if !exists {
			g = new(yearSum)
			groups[year] = g
		}
		g.t += times[i]
		g.v += values[i]
		g.e += errs[i]
		g.n++
	}

	years := make([]int, 0, len(groups))
	for year := range groups {
		years = append(years, year)
	}
	sort.Ints(years)

	x := make([]float64, 0, len(years))
	y := make([]float64, 0, len(years))
	yErr := make([]float64, 0, len(years))
	for _, year := range years {
		g := groups[year]
		n := float64(g.n)
		x = append(x, g.t/n)
		y = append(y, g.v/n)
		yErr = append(yErr, g.e/n)
	}

	obs, err := dataset.New(x, y, yErr)
	if err != nil {
		return nil, fmt.Errorf("unable to create annual observations, %w", err)
	}
	return obs, nil
}

// ToObservations converts the table rows directly into observations. Without an
// uncertainty column every observation gets sigma.
func ToObservations(t *Table, timeCol, valueCol, errCol string, sigma float64) (*dataset.Observations, error) {
	x, err := t.Column(timeCol)
	if err != nil {
		return nil, err
	}
	y, err := t.Column(valueCol)
	if err != nil {
		return nil, err
	}

	var yErr []float64
	if errCol == "" {
		yErr = dataset.Uniform(len(y), sigma)
	} else {
		yErr, err = t.Column(errCol)
		if err != nil {
			return nil, err
		}
	}

	obs, err := dataset.New(x, y, yErr)
	if err != nil {
		return nil, fmt.Errorf("unable to create observations, %w", err)
	}
	return obs, nil
}

// Observations prepares the dataset for fitting. Monthly datasets are reduced to annual
// means, all others are used row by row with sigma standing in for a missing
// uncertainty column.
func Observations(t *Table, ds Dataset, sigma float64) (*dataset.Observations, error) {
	if ds.Monthly && ds.ErrColumn != "" {
		return AnnualMeans(t, ds.TimeColumn, ds.ValueColumn, ds.ErrColumn)
	}
	return ToObservations(t, ds.TimeColumn, ds.ValueColumn, ds.ErrColumn, sigma)
}
