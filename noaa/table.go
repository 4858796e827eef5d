package noaa

import (
	"errors"
	"fmt"
)

var ErrUnknownColumn = errors.New("unknown column")

// Table is a columnar store of a parsed trend file
type Table struct {
	columns []string
	index   map[string]int
	data    [][]float64
}

func NewTable(columns []string) *Table {
	t := &Table{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		data:    make([][]float64, len(columns)),
	}
	copy(t.columns, columns)
	for i, name := range columns {
		t.index[name] = i
	}
	return t
}

// Columns returns the column names in file order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows
func (t *Table) Len() int {
	if len(t.data) == 0 {
		return 0
	}
	return len(t.data[0])
}

// Column returns the values of the named column. The slice is shared with the table so
// cleaning can edit it in place.
func (t *Table) Column(name string) ([]float64, error) {
	idx, exists := t.index[name]
	if !exists {
		return nil, fmt.Errorf("%q, %w", name, ErrUnknownColumn)
	}
	return t.data[idx], nil
}

func (t *Table) appendRow(row []float64) {
	for i, v := range row {
		t.data[i] = append(t.data[i], v)
	}
}

// deleteRows removes in place every row for which drop returns true and returns the
// number of removed rows
func (t *Table) deleteRows(drop func(row int) bool) int {
	n := t.Len()
	kept := 0
	for i := 0; i < n; i++ {
		if drop(i) {
			continue
		}
		for c := range t.data {
			t.data[c][kept] = t.data[c][i]
		}
		kept++
	}
	for c := range t.data {
		t.data[c] = t.data[c][:kept]
	}
	return n - kept
}
