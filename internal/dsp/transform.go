package dsp

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// FlipTranspose turns a stored (time, channel) dynamic spectrum into
// (channel, time) rows with the channel order reversed, so that row i of the
// result is stored column Cols-1-i.
func FlipTranspose(m *Matrix) (*Matrix, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	out := &Matrix{Rows: m.Cols, Cols: m.Rows, Data: make([]float64, len(m.Data))}
	for t := 0; t < m.Rows; t++ {
		for c := 0; c < m.Cols; c++ {
			out.Data[(m.Cols-1-c)*out.Cols+t] = m.Data[t*m.Cols+c]
		}
	}
	return out, nil
}

// Detrend removes the least-squares linear fit from every row in place.
// A row containing a non-finite value comes out entirely non-finite, which
// ScrubNonFinite later zeroes.
func Detrend(m *Matrix) error {
	if err := m.validate(); err != nil {
		return err
	}
	x := make([]float64, m.Cols)
	for i := range x {
		x[i] = float64(i)
	}
	for r := 0; r < m.Rows; r++ {
		row := m.Row(r)
		if m.Cols < 2 {
			mean := stat.Mean(row, nil)
			for i := range row {
				row[i] -= mean
			}
			continue
		}
		alpha, beta := stat.LinearRegression(x, row, nil, false)
		for i := range row {
			row[i] -= alpha + beta*x[i]
		}
	}
	return nil
}

// ScrubNonFinite replaces NaN and ±Inf with 0 in place and returns how many
// values were replaced.
func ScrubNonFinite(m *Matrix) int {
	n := 0
	for i, v := range m.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			m.Data[i] = 0
			n++
		}
	}
	return n
}

// Normalize subtracts the global median and divides by the global population
// standard deviation, in place. A zero deviation is not guarded: the result
// is NaN wherever the numerator is zero and ±Inf elsewhere.
func Normalize(m *Matrix) (median, std float64) {
	median = Median(m.Data)
	for i := range m.Data {
		m.Data[i] -= median
	}
	_, std = stat.PopMeanStdDev(m.Data, nil)
	for i := range m.Data {
		m.Data[i] /= std
	}
	return median, std
}

// Median returns the middle value of x, averaging the two central values
// for even lengths. It returns NaN for an empty slice.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ColumnSums sums every column over all rows. For a (channel, time) matrix
// this is the band-integrated time series.
func ColumnSums(m *Matrix) []float64 {
	out := make([]float64, m.Cols)
	for r := 0; r < m.Rows; r++ {
		for c, v := range m.Row(r) {
			out[c] += v
		}
	}
	return out
}
