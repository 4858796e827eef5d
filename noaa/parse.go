package noaa

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrColumnCount = errors.New("row has an unexpected number of columns")
	ErrParseValue  = errors.New("unable to parse value")
	ErrNoColumns   = errors.New("no columns to parse")
)

const commentPrefix = "#"

// Parse reads whitespace delimited rows of floats into a table with the given columns.
// Blank lines and lines starting with # are skipped.
func Parse(r io.Reader, columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	t := NewTable(columns)
	row := make([]float64, len(columns))

	scanner := bufio.NewScanner(r)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != len(columns) {
			return nil, fmt.Errorf("line %d has %d fields, expected %d, %w", lineNum, len(fields), len(columns), ErrColumnCount)
		}
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q value %q, %w", lineNum, columns[i], field, ErrParseValue)
			}
			row[i] = v
		}
		t.appendRow(row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read rows, %w", err)
	}
	return t, nil
}
