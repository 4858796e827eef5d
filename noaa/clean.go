package noaa

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/aouyang1/go-curvefit/stats"
	"github.com/rs/zerolog/log"
)

// ReplaceMissing replaces every sentinel value in col with the median of the remaining
// values and returns the median and the number of replaced values. When no valid value
// remains col is left untouched and NaN is returned.
func ReplaceMissing(col []float64, sentinels ...float64) (float64, int) {
	valid := make([]float64, 0, len(col))
	for _, v := range col {
		if !slices.Contains(sentinels, v) {
			valid = append(valid, v)
		}
	}
	median, err := stats.Median(valid)
	if err != nil {
		return math.NaN(), 0
	}

	var replaced int
	for i, v := range col {
		if slices.Contains(sentinels, v) {
			col[i] = median
			replaced++
		}
	}
	return median, replaced
}

// DropMissing removes every row whose value in the named column is one of the sentinels
// and returns the number of removed rows
func DropMissing(t *Table, name string, sentinels ...float64) (int, error) {
	col, err := t.Column(name)
	if err != nil {
		return 0, err
	}
	return t.deleteRows(func(row int) bool {
		return slices.Contains(sentinels, col[row])
	}), nil
}

// Clean first drops the rows the dataset marks as unusable and then applies
// ReplaceMissing to every column the dataset lists missing sentinels for
func Clean(t *Table, ds Dataset) error {
	for _, name := range sortedKeys(ds.Drop) {
		dropped, err := DropMissing(t, name, ds.Drop[name]...)
		if err != nil {
			return fmt.Errorf("unable to clean %s, %w", ds.Name, err)
		}
		if dropped > 0 {
			log.Debug().
				Str("dataset", ds.Name).
				Str("column", name).
				Int("dropped", dropped).
				Msg("dropped rows with missing values")
		}
	}

	for _, name := range sortedKeys(ds.Missing) {
		col, err := t.Column(name)
		if err != nil {
			return fmt.Errorf("unable to clean %s, %w", ds.Name, err)
		}
		median, replaced := ReplaceMissing(col, ds.Missing[name]...)
		if replaced > 0 {
			log.Debug().
				Str("dataset", ds.Name).
				Str("column", name).
				Int("replaced", replaced).
				Float64("median", median).
				Msg("replaced missing values")
		}
	}
	return nil
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CleanMonthly applies the Mauna Loa monthly policy: uncertainties of 0 or -0.99, day
// standard deviations of -9.99 and day counts of -1 become their column medians.
func CleanMonthly(t *Table) error {
	return Clean(t, MonthlyMLO)
}
