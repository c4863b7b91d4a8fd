// Package dsp holds the numeric transforms applied to candidate arrays
// before plotting: channel flip/transpose, linear detrending, non-finite
// scrubbing, median/std normalisation and the fixed 256-sample time axis.
//
// Every function either returns a new matrix or documents that it works in
// place; nothing here keeps state between calls.
package dsp

import (
	"errors"
	"fmt"
)

// ErrShape reports an array whose shape cannot be plotted (wrong rank,
// empty, or a data length that disagrees with its dimensions).
var ErrShape = errors.New("incompatible array shape")

// Matrix is a dense row-major 2-D array of float64.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// NewMatrix wraps data as a rows x cols matrix. data is not copied.
func NewMatrix(rows, cols int, data []float64) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d needs %d values, got %d", ErrShape, rows, cols, rows*cols, len(data))
	}
	return &Matrix{Rows: rows, Cols: cols, Data: data}, nil
}

// At returns the value at row r, column c.
func (m *Matrix) At(r, c int) float64 {
	return m.Data[r*m.Cols+c]
}

// Row returns row r as a slice aliasing the matrix storage.
func (m *Matrix) Row(r int) []float64 {
	return m.Data[r*m.Cols : (r+1)*m.Cols]
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Data: data}
}

// validate checks the invariants NewMatrix enforces, for matrices built as
// struct literals.
func (m *Matrix) validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrShape)
	}
	_, err := NewMatrix(m.Rows, m.Cols, m.Data)
	return err
}
