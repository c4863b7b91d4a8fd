package figure

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/backmassage/candplot/internal/dsp"
)

// Colormap maps [0, 1] onto colours by blending evenly spaced stops in
// CIE-L*a*b*.
type Colormap struct {
	stops []colorful.Color
	// Bad is used for NaN.
	Bad colorful.Color
}

// NewColormap parses hex stops ("#rrggbb"). At least two are required.
func NewColormap(hexStops ...string) (*Colormap, error) {
	if len(hexStops) < 2 {
		return nil, fmt.Errorf("colormap needs at least 2 stops, got %d", len(hexStops))
	}
	cm := &Colormap{Bad: colorful.Color{R: 1, G: 1, B: 1}}
	for _, h := range hexStops {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("colormap stop %q: %w", h, err)
		}
		cm.stops = append(cm.stops, c)
	}
	return cm, nil
}

// Viridis sampled at nine stops.
var Viridis = mustColormap(
	"#440154", "#472c7a", "#3b518b", "#2c718e", "#21908d",
	"#27ad81", "#5cc863", "#aadc32", "#fde725",
)

func mustColormap(hexStops ...string) *Colormap {
	cm, err := NewColormap(hexStops...)
	if err != nil {
		panic(err)
	}
	return cm
}

// At returns the colour for t, clamped to [0, 1].
func (cm *Colormap) At(t float64) colorful.Color {
	if math.IsNaN(t) {
		return cm.Bad
	}
	t = min(max(t, 0), 1)
	seg := t * float64(len(cm.stops)-1)
	i := int(seg)
	if i >= len(cm.stops)-1 {
		return cm.stops[len(cm.stops)-1]
	}
	frac := seg - float64(i)
	if frac == 0 {
		return cm.stops[i]
	}
	return cm.stops[i].BlendLab(cm.stops[i+1], frac).Clamped()
}

// Raster renders m as an image, one pixel per element, row 0 on top. Values
// are scaled linearly between the finite min and max of m; non-finite
// elements use Bad.
func (cm *Colormap) Raster(m *dsp.Matrix) (*gg.ImageBuf, error) {
	if m == nil || m.Rows == 0 || m.Cols == 0 {
		return nil, fmt.Errorf("%w: empty image", dsp.ErrShape)
	}
	img, err := gg.NewImageBuf(m.Cols, m.Rows, gg.FormatRGBA8)
	if err != nil {
		return nil, err
	}
	lim, ok := DataLimits(m.Data, 0)
	span := lim.Hi - lim.Lo
	for r := range m.Rows {
		for c := range m.Cols {
			v := m.At(r, c)
			t := math.NaN()
			switch {
			case !ok || !isFinite(v):
			case span == 0:
				t = 0
			default:
				t = (v - lim.Lo) / span
			}
			cr, cg, cb := cm.At(t).RGB255()
			if err := img.SetRGBA(c, r, cr, cg, cb, 255); err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}
