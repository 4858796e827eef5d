package leastsquares

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var errSingular = errors.New("singular jacobian")

// columnScale updates scale with the running maximum of the column norms of a. The
// scaled problem is invariant to the units of each parameter.
func columnScale(scale []float64, a *mat.Dense) {
	m, n := a.Dims()
	col := make([]float64, m)
	for j := 0; j < n; j++ {
		mat.Col(col, j, a)
		scale[j] = math.Max(scale[j], floats.Norm(col, 2))
	}
}

// scaleColumns returns a copy of a with every column divided by its scale. Zero
// scales are left untouched.
func scaleColumns(a *mat.Dense, scale []float64) *mat.Dense {
	m, n := a.Dims()
	as := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		row := as.RawRowView(i)
		copy(row, a.RawRowView(i))
		for j := 0; j < n; j++ {
			if scale[j] > 0 {
				row[j] /= scale[j]
			}
		}
	}
	return as
}

// covariance computes (AᵀA)⁻¹ for the whitened jacobian A through the QR
// factorization of the column scaled jacobian.
func covariance(a *mat.Dense) (*mat.SymDense, error) {
	m, n := a.Dims()
	if m < n {
		return nil, errSingular
	}

	scale := make([]float64, n)
	columnScale(scale, a)
	for _, s := range scale {
		if s == 0 {
			return nil, errSingular
		}
	}
	as := scaleColumns(a, scale)

	var qr mat.QR
	qr.Factorize(as)
	if cond := qr.Cond(); math.IsNaN(cond) || cond > mat.ConditionTolerance {
		return nil, errSingular
	}

	var r mat.Dense
	qr.RTo(&r)
	rTri := mat.NewTriDense(n, mat.Upper, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			rTri.SetTri(i, j, r.At(i, j))
		}
	}

	var rInv mat.TriDense
	if err := rInv.InverseTri(rTri); err != nil {
		return nil, errSingular
	}

	// (AsᵀAs)⁻¹ = R⁻¹R⁻ᵀ
	var covScaled mat.SymDense
	covScaled.SymOuterK(1, &rInv)

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, covScaled.At(i, j)/(scale[i]*scale[j]))
		}
	}
	return cov, nil
}

// StdErrors returns the square root of the diagonal of a covariance matrix
func StdErrors(cov mat.Symmetric) []float64 {
	if cov == nil {
		return nil
	}
	n := cov.SymmetricDim()
	se := make([]float64, n)
	for i := 0; i < n; i++ {
		se[i] = math.Sqrt(math.Max(cov.At(i, i), 0))
	}
	return se
}
