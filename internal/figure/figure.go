// Package figure draws simple scientific plots onto a raster canvas: framed
// axes with nice ticks, mid-step line plots, colormapped images and a plain
// text block. It knows nothing about candidates; the render package composes
// panels from it.
package figure

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 1500
	DefaultHeight = 800
)

// Figure is one drawing canvas. It is not safe for concurrent use; each
// render owns its own Figure and must Close it.
type Figure struct {
	dc    *gg.Context
	tick  text.Face
	label text.Face
	body  text.Face
}

// New creates a white canvas.
func New(width, height int) (*Figure, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("figure size %dx%d must be positive", width, height)
	}
	src, err := LoadFont()
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.White)
	return &Figure{
		dc:    dc,
		tick:  src.Face(TickSize),
		label: src.Face(LabelSize),
		body:  src.Face(TextSize),
	}, nil
}

// Width returns the canvas width in pixels.
func (f *Figure) Width() int { return f.dc.Width() }

// Height returns the canvas height in pixels.
func (f *Figure) Height() int { return f.dc.Height() }

// Canvas returns the current pixels.
func (f *Figure) Canvas() image.Image { return f.dc.Image() }

// StepMid plots ys against xs as a mid-step line: each value is a flat
// segment centred on its x, with the steps halfway between neighbours.
// Non-finite values leave a gap.
func (f *Figure) StepMid(ax *Axes, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("step plot: %d x values for %d y values", len(xs), len(ys))
	}
	dc := f.dc
	dc.ClipRect(ax.Frame.X, ax.Frame.Y, ax.Frame.W, ax.Frame.H)
	defer dc.ResetClip()

	dc.SetRGB(0.122, 0.467, 0.706)
	dc.SetLineWidth(1.5)
	n := len(xs)
	prev := false
	for i := range n {
		if !isFinite(ys[i]) || !isFinite(xs[i]) {
			prev = false
			continue
		}
		xl, xr := xs[i], xs[i]
		if i > 0 {
			xl = (xs[i-1] + xs[i]) / 2
		}
		if i < n-1 {
			xr = (xs[i] + xs[i+1]) / 2
		}
		py := ax.PixelY(ys[i])
		if prev {
			dc.LineTo(ax.PixelX(xl), py)
		} else {
			dc.MoveTo(ax.PixelX(xl), py)
		}
		dc.LineTo(ax.PixelX(xr), py)
		prev = true
	}
	return dc.Stroke()
}

// DrawImage stretches img over the whole axes frame with nearest-neighbour
// sampling, row 0 at the top.
func (f *Figure) DrawImage(ax *Axes, img *gg.ImageBuf) {
	f.dc.DrawImageEx(img, gg.DrawImageOptions{
		X:             ax.Frame.X,
		Y:             ax.Frame.Y,
		DstWidth:      ax.Frame.W,
		DstHeight:     ax.Frame.H,
		Interpolation: gg.InterpNearest,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
}

// Decorate draws the frame, ticks and labels of ax. Empty labels are
// omitted. The y label is written horizontally above the frame.
func (f *Figure) Decorate(ax *Axes, xlabel, ylabel string) error {
	dc := f.dc
	fr := ax.Frame
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(fr.X, fr.Y, fr.W, fr.H)
	if err := dc.Stroke(); err != nil {
		return err
	}

	const tickLen = 4
	xt := Ticks(ax.X.Lo, ax.X.Hi, 7)
	yt := Ticks(ax.Y.Lo, ax.Y.Hi, 4)
	for _, t := range xt {
		px := ax.PixelX(t.Value)
		dc.DrawLine(px, fr.Bottom(), px, fr.Bottom()+tickLen)
	}
	for _, t := range yt {
		py := ax.PixelY(t.Value)
		dc.DrawLine(fr.X-tickLen, py, fr.X, py)
	}
	if err := dc.Stroke(); err != nil {
		return err
	}

	dc.SetFont(f.tick)
	_, th := dc.MeasureString("0")
	for _, t := range xt {
		dc.DrawStringAnchored(t.Label, ax.PixelX(t.Value), fr.Bottom()+tickLen+2, 0.5, 1)
	}
	for _, t := range yt {
		dc.DrawStringAnchored(t.Label, fr.X-tickLen-3, ax.PixelY(t.Value), 1, 0.35)
	}

	dc.SetFont(f.label)
	if xlabel != "" {
		dc.DrawStringAnchored(xlabel, fr.X+fr.W/2, fr.Bottom()+tickLen+th+8, 0.5, 1)
	}
	if ylabel != "" {
		dc.DrawString(ylabel, fr.X, fr.Y-5)
	}
	return nil
}

// Text writes lines top-down inside r, wrapping any line wider than r.
// No frame is drawn.
func (f *Figure) Text(r Rect, lines []string) {
	dc := f.dc
	dc.SetFont(f.body)
	dc.SetRGB(0, 0, 0)
	_, lh := dc.MeasureString("Mg")
	lh *= 1.35
	y := r.Y + lh
	for _, line := range lines {
		for _, part := range wrap(line, r.W, dc.MeasureString) {
			if y > r.Bottom() {
				return
			}
			dc.DrawString(part, r.X, y)
			y += lh
		}
	}
}

// wrap splits s greedily so that each part measures at most width.
func wrap(s string, width float64, measure func(string) (float64, float64)) []string {
	if w, _ := measure(s); w <= width || width <= 0 {
		return []string{s}
	}
	var parts []string
	runes := []rune(s)
	start := 0
	for start < len(runes) {
		end := start + 1
		for end < len(runes) {
			if w, _ := measure(string(runes[start : end+1])); w > width {
				break
			}
			end++
		}
		parts = append(parts, strings.TrimLeft(string(runes[start:end]), " "))
		start = end
	}
	return parts
}

// EncodePNG writes the canvas as PNG.
func (f *Figure) EncodePNG(w io.Writer) error {
	return f.dc.EncodePNG(w)
}

// Save writes the canvas as PNG to path, replacing any existing file, and
// returns the number of bytes written.
func (f *Figure) Save(path string) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: out}
	bw := bufio.NewWriter(cw)
	if err := f.EncodePNG(bw); err != nil {
		out.Close()
		return cw.n, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return cw.n, err
	}
	return cw.n, out.Close()
}

// Close releases the drawing context. It is safe to call more than once.
func (f *Figure) Close() error {
	return f.dc.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
