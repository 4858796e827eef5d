// Package fiterr holds the error classes shared by every fitting package so that
// callers can test any failure with errors.Is regardless of where it was raised.
package fiterr

import "errors"

var (
	// ErrInvalidInput marks precondition violations such as mismatched lengths or
	// non-positive uncertainties. They are never corrected silently.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConvergence marks an optimizer that could not produce a solution within
	// its iteration and tolerance budget.
	ErrConvergence = errors.New("fit did not converge")
)
