// Package noaa loads the NOAA Global Monitoring Laboratory CO2 trend files, replaces
// their missing value sentinels and aggregates them into observations to fit.
package noaa

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var ErrUnknownDataset = errors.New("unknown dataset")

const baseURL = "https://gml.noaa.gov/webdata/ccgg/trends/co2/"

// Dataset describes one of the whitespace delimited NOAA trend files. TimeColumn,
// ValueColumn and ErrColumn name the columns fit as x, y and the y uncertainty. An
// empty ErrColumn means the file carries no uncertainty. Missing lists the sentinel
// values per column that stand in for missing measurements and are filled with the
// column median. Drop lists sentinels that remove the whole row instead, which applies
// to the fitted value column.
type Dataset struct {
	Name        string
	URL         string
	Columns     []string
	TimeColumn  string
	ValueColumn string
	ErrColumn   string
	Missing     map[string][]float64
	Drop        map[string][]float64

	// Monthly datasets are averaged into one observation per year before fitting
	Monthly bool
}

var (
	MonthlyMLO = Dataset{
		Name: "monthly-mlo",
		URL:  baseURL + "co2_mm_mlo.txt",
		Columns: []string{
			"year", "month", "decimal_date", "average", "deseasonalized", "ndays", "sdev", "unc",
		},
		TimeColumn:  "decimal_date",
		ValueColumn: "average",
		ErrColumn:   "unc",
		Missing: map[string][]float64{
			"unc":   {0, -0.99},
			"sdev":  {-9.99},
			"ndays": {-1},
		},
		Monthly: true,
	}

	MonthlyGlobal = Dataset{
		Name: "monthly-global",
		URL:  baseURL + "co2_mm_gl.txt",
		Columns: []string{
			"year", "month", "decimal_date", "average", "average_unc", "trend", "trend_unc",
		},
		TimeColumn:  "decimal_date",
		ValueColumn: "average",
		ErrColumn:   "average_unc",
		Missing: map[string][]float64{
			"average_unc": {0, -9.99},
			"trend_unc":   {0, -9.99},
		},
		Monthly: true,
	}

	AnnualGrowthMLO = Dataset{
		Name:        "growth-mlo",
		URL:         baseURL + "co2_gr_mlo.txt",
		Columns:     []string{"year", "ann_inc", "unc"},
		TimeColumn:  "year",
		ValueColumn: "ann_inc",
		ErrColumn:   "unc",
		Missing: map[string][]float64{
			"unc": {0, -0.99, -9.99},
		},
	}

	AnnualGrowthGlobal = Dataset{
		Name:        "growth-global",
		URL:         baseURL + "co2_gr_gl.txt",
		Columns:     []string{"year", "ann_inc", "unc"},
		TimeColumn:  "year",
		ValueColumn: "ann_inc",
		ErrColumn:   "unc",
		Missing: map[string][]float64{
			"unc": {0, -0.99, -9.99},
		},
	}

	WeeklyMLO = Dataset{
		Name: "weekly-mlo",
		URL:  baseURL + "co2_weekly_mlo.txt",
		Columns: []string{
			"year", "month", "day", "decimal_date", "average", "ndays",
			"one_year_ago", "ten_years_ago", "increase_since_1800",
		},
		TimeColumn:  "decimal_date",
		ValueColumn: "average",
		Missing: map[string][]float64{
			"one_year_ago":        {-999.99},
			"ten_years_ago":       {-999.99},
			"increase_since_1800": {-999.99},
		},
		Drop: map[string][]float64{
			"average": {-999.99},
		},
	}

	DailyMLO = Dataset{
		Name:        "daily-mlo",
		URL:         baseURL + "co2_daily_mlo.txt",
		Columns:     []string{"year", "month", "day", "decimal_date", "value"},
		TimeColumn:  "decimal_date",
		ValueColumn: "value",
	}
)

var catalog = map[string]Dataset{
	MonthlyMLO.Name:         MonthlyMLO,
	MonthlyGlobal.Name:      MonthlyGlobal,
	AnnualGrowthMLO.Name:    AnnualGrowthMLO,
	AnnualGrowthGlobal.Name: AnnualGrowthGlobal,
	WeeklyMLO.Name:          WeeklyMLO,
	DailyMLO.Name:           DailyMLO,
}

// Lookup returns the catalog dataset registered under name
func Lookup(name string) (Dataset, error) {
	ds, exists := catalog[name]
	if !exists {
		return Dataset{}, fmt.Errorf("%q, %w", name, ErrUnknownDataset)
	}
	ds.Columns = slices.Clone(ds.Columns)
	return ds, nil
}

// Names returns the sorted names of all catalog datasets
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
