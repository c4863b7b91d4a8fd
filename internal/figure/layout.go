package figure

// Rect is a pixel rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Margins are fractions of the canvas reserved around the grid, plus the
// gaps between cells as fractions of the mean cell size.
type Margins struct {
	Left, Right, Top, Bottom float64
	HSpace, WSpace           float64
}

// DefaultMargins leaves room for tick labels on the left and the x label at
// the bottom.
var DefaultMargins = Margins{
	Left:   0.08,
	Right:  0.02,
	Top:    0.04,
	Bottom: 0.09,
	HSpace: 0.25,
	WSpace: 0.08,
}

// Grid divides a width x height canvas into rows x len(widthRatios) cells.
// Rows share the height equally; columns split the width by widthRatios.
// The result is indexed [row][col].
func Grid(width, height, rows int, widthRatios []float64, m Margins) [][]Rect {
	cols := len(widthRatios)
	if rows <= 0 || cols == 0 {
		return nil
	}
	var total float64
	for _, r := range widthRatios {
		total += r
	}

	left := m.Left * float64(width)
	top := m.Top * float64(height)
	innerW := float64(width) * (1 - m.Left - m.Right)
	innerH := float64(height) * (1 - m.Top - m.Bottom)

	// Spacing is a fraction of the average cell, so n cells plus n-1 gaps
	// fill the inner box.
	cellH := innerH / (float64(rows) + m.HSpace*float64(rows-1))
	gapH := cellH * m.HSpace
	meanW := innerW / (float64(cols) + m.WSpace*float64(cols-1))
	gapW := meanW * m.WSpace
	usableW := innerW - gapW*float64(cols-1)

	widths := make([]float64, cols)
	for c, r := range widthRatios {
		widths[c] = usableW * r / total
	}

	out := make([][]Rect, rows)
	y := top
	for r := range rows {
		out[r] = make([]Rect, cols)
		x := left
		for c := range cols {
			out[r][c] = Rect{X: x, Y: y, W: widths[c], H: cellH}
			x += widths[c] + gapW
		}
		y += cellH + gapH
	}
	return out
}
