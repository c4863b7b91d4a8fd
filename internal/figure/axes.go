package figure

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrAxisLimits is returned when a panel is given a non-finite extent.
var ErrAxisLimits = errors.New("axis limits cannot be NaN or Inf")

// Limits is a data range mapped onto one pixel axis. Lo maps to the left
// (x) or bottom (y) edge and Hi to the opposite edge, so Lo > Hi inverts the
// axis.
type Limits struct {
	Lo, Hi float64
}

// Check reports ErrAxisLimits for non-finite bounds.
func (l Limits) Check() error {
	if !isFinite(l.Lo) || !isFinite(l.Hi) {
		return fmt.Errorf("%w: [%v, %v]", ErrAxisLimits, l.Lo, l.Hi)
	}
	return nil
}

// nonSingular widens an empty range so it can be mapped.
func (l Limits) nonSingular() Limits {
	if l.Lo != l.Hi {
		return l
	}
	d := math.Abs(l.Lo) * 0.05
	if d == 0 {
		d = 1
	}
	return Limits{Lo: l.Lo - d, Hi: l.Hi + d}
}

// Axes maps data coordinates into a pixel frame.
type Axes struct {
	Frame Rect
	X, Y  Limits
}

// NewAxes validates and stores the limits. Equal bounds are widened.
func NewAxes(frame Rect, x, y Limits) (*Axes, error) {
	if err := x.Check(); err != nil {
		return nil, fmt.Errorf("x: %w", err)
	}
	if err := y.Check(); err != nil {
		return nil, fmt.Errorf("y: %w", err)
	}
	return &Axes{Frame: frame, X: x.nonSingular(), Y: y.nonSingular()}, nil
}

// PixelX maps a data x value to a canvas x coordinate.
func (a *Axes) PixelX(x float64) float64 {
	return a.Frame.X + (x-a.X.Lo)/(a.X.Hi-a.X.Lo)*a.Frame.W
}

// PixelY maps a data y value to a canvas y coordinate. Y.Lo sits on the
// bottom edge.
func (a *Axes) PixelY(y float64) float64 {
	return a.Frame.Bottom() - (y-a.Y.Lo)/(a.Y.Hi-a.Y.Lo)*a.Frame.H
}

// Tick is one labelled position on an axis.
type Tick struct {
	Value float64
	Label string
}

// Ticks returns "nice" tick positions (multiples of 1, 2, 2.5 or 5 times a
// power of ten) inside the range, aiming for about target ticks. The order
// of lo and hi does not matter.
func Ticks(lo, hi float64, target int) []Tick {
	if lo > hi {
		lo, hi = hi, lo
	}
	if !isFinite(lo) || !isFinite(hi) || target < 1 {
		return nil
	}
	if lo == hi {
		return []Tick{{Value: lo, Label: formatTick(lo, 0)}}
	}
	step, decimals := niceStep((hi - lo) / float64(target))

	first := math.Ceil(lo/step-1e-9) * step
	var out []Tick
	for i := 0; ; i++ {
		v := first + float64(i)*step
		if v > hi+step*1e-9 {
			break
		}
		if math.Abs(v) < step*1e-9 {
			v = 0
		}
		out = append(out, Tick{Value: v, Label: formatTick(v, decimals)})
	}
	return out
}

// niceStep rounds raw up to the next nice step and returns the number of
// decimals needed to print multiples of it.
func niceStep(raw float64) (float64, int) {
	exp := int(math.Floor(math.Log10(raw)))
	base := math.Pow10(exp)
	var m float64
	switch frac := raw / base; {
	case frac <= 1:
		m = 1
	case frac <= 2:
		m = 2
	case frac <= 2.5:
		m = 2.5
	case frac <= 5:
		m = 5
	default:
		m = 1
		exp++
		base *= 10
	}
	decimals := max(0, -exp)
	if m == 2.5 {
		decimals = max(0, 1-exp)
	}
	return m * base, decimals
}

func formatTick(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DataLimits returns the finite min and max of vs padded by margin of the
// span, or ok=false when no value is finite.
func DataLimits(vs []float64, margin float64) (lim Limits, ok bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if !isFinite(v) {
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo > hi {
		return Limits{}, false
	}
	pad := (hi - lo) * margin
	return Limits{Lo: lo - pad, Hi: hi + pad}, true
}
