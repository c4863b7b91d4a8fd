package render

import (
	"fmt"

	"github.com/backmassage/candplot/internal/candidate"
	"github.com/backmassage/candplot/internal/catalog"
	"github.com/backmassage/candplot/internal/dsp"
	"github.com/backmassage/candplot/internal/figure"
)

// Axis labels.
const (
	labelFlux = "Flux (Arb. Units)"
	labelFreq = "Frequency (MHz)"
	labelDM   = "DM (pc cm^-3)"
	labelTime = "Time (ms)"
)

// compose lays out the four panels: time series, frequency-time and DM-time
// waterfalls stacked in the left column, metadata text in the right. The
// caller owns the returned figure.
func compose(rec *candidate.Record, wf *dsp.Waterfalls, expected catalog.ExpectedDM, dmScale float64, width, height int) (_ *figure.Figure, err error) {
	h := rec.Header
	ts := dsp.TimeAxis(h.Tsamp, h.Width)
	tlim := figure.Limits{Lo: ts[0], Hi: ts[len(ts)-1]}

	fig, err := figure.New(width, height)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			fig.Close()
		}
	}()

	cells := figure.Grid(width, height, 3, []float64{4, 1}, figure.DefaultMargins)

	series := dsp.ColumnSums(wf.FreqTime)
	ylim, ok := figure.DataLimits(series, 0.05)
	if !ok {
		ylim = figure.Limits{Lo: 0, Hi: 1}
	}
	ax, err := figure.NewAxes(cells[0][0], tlim, ylim)
	if err != nil {
		return nil, fmt.Errorf("time series: %w", err)
	}
	if err := fig.StepMid(ax, spread(ts, len(series)), series); err != nil {
		return nil, fmt.Errorf("time series: %w", err)
	}
	if err := fig.Decorate(ax, "", labelFlux); err != nil {
		return nil, err
	}

	flim := figure.Limits{Lo: h.Fch1, Hi: h.Fch1 + float64(h.NChans)*h.Foff}
	if err := imagePanel(fig, cells[1][0], tlim, flim, wf.FreqTime, "", labelFreq); err != nil {
		return nil, fmt.Errorf("freq-time: %w", err)
	}

	dlim := figure.Limits{Lo: h.DM + h.DM*dmScale, Hi: h.DM - h.DM*dmScale}
	if err := imagePanel(fig, cells[2][0], tlim, dlim, wf.DMTime, labelTime, labelDM); err != nil {
		return nil, fmt.Errorf("dm-time: %w", err)
	}

	lines := append(rec.Lines(), "expected DM : "+expected.String())
	fig.Text(cells[0][1].Union(cells[2][1]), lines)
	return fig, nil
}

func imagePanel(fig *figure.Figure, frame figure.Rect, x, y figure.Limits, m *dsp.Matrix, xlabel, ylabel string) error {
	ax, err := figure.NewAxes(frame, x, y)
	if err != nil {
		return err
	}
	img, err := figure.Viridis.Raster(m)
	if err != nil {
		return err
	}
	fig.DrawImage(ax, img)
	return fig.Decorate(ax, xlabel, ylabel)
}

// spread returns n x positions for the time series. With the usual 256 time
// bins these are the time axis itself; other lengths are spaced evenly
// between its endpoints.
func spread(ts []float64, n int) []float64 {
	if n == len(ts) {
		return ts
	}
	lo, hi := ts[0], ts[len(ts)-1]
	xs := make([]float64, n)
	if n == 1 {
		xs[0] = (lo + hi) / 2
		return xs
	}
	for i := range xs {
		xs[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return xs
}
