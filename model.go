package curvefit

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-curvefit/stats"
)

// Model represents a serializeable format of a fit storing the options, fitted
// parameters with their covariance, and the fit scores
type Model struct {
	RunID         string        `json:"run_id,omitempty"`
	FitTime       time.Time     `json:"fit_time"`
	Options       *Options      `json:"options"`
	Equation      string        `json:"equation"`
	Params        []float64     `json:"params"`
	Uncertainties []float64     `json:"uncertainties"`
	Covariance    [][]float64   `json:"covariance,omitempty"`
	Scores        *stats.Scores `json:"scores,omitempty"`
	Outliers      []int         `json:"outliers,omitempty"`
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sFit:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if m.RunID != "" {
		if _, err := fmt.Fprintf(w, "%s%sRun ID: %s\n", prefix, indentExpand(indent, 1), m.RunID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sFit Time: %s\n", prefix, indentExpand(indent, 1), m.FitTime); err != nil {
		return err
	}
	if m.Options != nil && m.Options.Solver != nil {
		if _, err := fmt.Fprintf(w, "%s%sMethod: %s    Max Iterations: %d    Tolerance: %g\n",
			prefix, indentExpand(indent, 1),
			m.Options.Solver.Method,
			m.Options.Solver.MaxIterations,
			m.Options.Solver.Tolerance,
		); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sEquation: %s\n", prefix, indentExpand(indent, 1), m.Equation); err != nil {
		return err
	}
	if len(m.Outliers) > 0 {
		if _, err := fmt.Fprintf(w, "%s%sOutliers Excluded: %d\n", prefix, indentExpand(indent, 1), len(m.Outliers)); err != nil {
			return err
		}
	}

	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, indentExpand(indent, 0)); err != nil {
			return err
		}
		redChi2 := "inf"
		if !math.IsInf(m.Scores.ReducedChiSquared, 0) {
			redChi2 = fmt.Sprintf("%.3f", m.Scores.ReducedChiSquared)
		}
		if _, err := fmt.Fprintf(w, "%s%sChi2: %.3f    Reduced Chi2: %s    DOF: %d\n",
			prefix, indentExpand(indent, 1),
			m.Scores.ChiSquared,
			redChi2,
			m.Scores.DOF,
		); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sMAPE: %.3f    MSE: %.3f    R2: %.3f\n",
			prefix, indentExpand(indent, 1),
			m.Scores.MAPE,
			m.Scores.MSE,
			m.Scores.R2,
		); err != nil {
			return err
		}
	}

	return m.paramsTablePrint(w, prefix, indent, 0)
}

func (m Model) paramsTablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sParameters:\n", prefix, indentExpand(indent, indentGrowth)); err != nil {
		return err
	}

	// aligned separately so the prefix stays flush left on every row
	var buf bytes.Buffer
	tbl := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprint(tbl, "Name\tValue\tUncertainty\t\n"); err != nil {
		return err
	}
	for i, p := range m.Params {
		uncertainty := "..."
		if i < len(m.Uncertainties) {
			uncertainty = fmt.Sprintf("%.6g", m.Uncertainties[i])
		}
		if _, err := fmt.Fprintf(tbl, "p%d\t%.6g\t%s\t\n", i, p, uncertainty); err != nil {
			return err
		}
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	for _, line := range strings.SplitAfter(buf.String(), "\n") {
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%s%s", prefix, indentExpand(indent, indentGrowth+1), line); err != nil {
			return err
		}
	}
	return nil
}
