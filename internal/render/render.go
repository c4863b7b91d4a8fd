// Package render turns one candidate file into one diagnostic PNG.
//
// [Renderer.Render] never returns an error: every result, including data
// problems that only skip the candidate and hard failures, is reported as an
// [Outcome] so the batch driver can count and summarise them.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/candplot/internal/candidate"
	"github.com/backmassage/candplot/internal/catalog"
	"github.com/backmassage/candplot/internal/dsp"
	"github.com/backmassage/candplot/internal/figure"
)

// Options control one render.
type Options struct {
	Show    bool
	Save    bool
	Detrend bool
	// DMRangeScale sets the DM-time panel's extent to dm*(1 +/- scale).
	DMRangeScale float64
	// SkipExisting skips candidates whose output PNG already exists.
	SkipExisting bool
}

// DefaultOptions are the batch defaults: save, detrend, full DM range.
func DefaultOptions() Options {
	return Options{Save: true, Detrend: true, DMRangeScale: 1.0}
}

// Logger is the subset of logging.Logger the renderer uses.
type Logger interface {
	Warn(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Renderer holds the collaborators shared by every render. All fields
// except Opener are optional. A Renderer is safe for concurrent use as long
// as its collaborators are.
type Renderer struct {
	Opener      candidate.Opener
	OpenOptions candidate.OpenOptions
	// Catalog resolves expected DMs. Nil shows every source as unknown.
	Catalog catalog.Lookup
	// Viewer displays figures when Options.Show is set.
	Viewer Viewer
	Log    Logger
	// Width and Height of the canvas; zero uses figure defaults.
	Width, Height int
	Verbose       bool
}

// Render reads path, draws its figure and writes it next to the input.
func (r *Renderer) Render(ctx context.Context, path string, opts Options) (out Outcome) {
	start := time.Now()
	out = Outcome{ID: uuid.New(), Input: path}
	defer func() {
		if p := recover(); p != nil {
			out.Status, out.Reason, out.Err = Failed, "", fmt.Errorf("%s: panic: %v", path, p)
		}
		out.Elapsed = time.Since(start)
	}()

	n, saved, err := r.render(ctx, path, opts)
	out.Status, out.Reason = Classify(err)
	out.Err = err
	if err == nil {
		out.Path = OutputPath(path)
		out.Saved = saved != ""
	}
	out.Bytes = n
	return out
}

func (r *Renderer) render(ctx context.Context, path string, opts Options) (int64, string, error) {
	outPath := OutputPath(path)
	if opts.SkipExisting && opts.Save {
		if _, err := os.Stat(outPath); err == nil {
			return 0, "", fmt.Errorf("%s: %w", outPath, ErrOutputExists)
		}
	}

	rec, err := candidate.Load(r.Opener, path, r.OpenOptions)
	if err != nil {
		return 0, "", err
	}

	expected, err := catalog.Resolve(ctx, r.Catalog, rec.Header.SourceName)
	if err != nil {
		r.warn("%s: no expected DM for %q: %v", path, rec.Header.SourceName, err)
	}

	wf, err := dsp.Prepare(rec.FreqTime, rec.DMTime, opts.Detrend)
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", path, err)
	}
	r.debug("%s: median %.4g std %.4g", path, wf.Median, wf.Std)

	width, height := r.Width, r.Height
	if width == 0 || height == 0 {
		width, height = figure.DefaultWidth, figure.DefaultHeight
	}
	fig, err := compose(rec, wf, expected, opts.DMRangeScale, width, height)
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", path, err)
	}
	defer fig.Close()

	var n int64
	var saved string
	if opts.Save {
		n, err = fig.Save(outPath)
		if err != nil {
			return n, "", err
		}
		saved = outPath
	}
	if opts.Show {
		r.show(ctx, fig, saved)
	}
	return n, saved, nil
}

// show hands the figure to the viewer. Viewer problems never fail a render.
func (r *Renderer) show(ctx context.Context, fig *figure.Figure, saved string) {
	if r.Viewer == nil {
		r.warn("show requested but no viewer is configured")
		return
	}
	target := saved
	if target == "" {
		// The viewer may still be reading after we return, so the temporary
		// file is left behind.
		f, err := os.CreateTemp("", "candplot-*.png")
		if err != nil {
			r.warn("show: %v", err)
			return
		}
		target = f.Name()
		f.Close()
		if _, err := fig.Save(target); err != nil {
			r.warn("show: %v", err)
			return
		}
	}
	if err := r.Viewer.Show(ctx, target); err != nil && !errors.Is(err, context.Canceled) {
		r.warn("show %s: %v", target, err)
	}
}

func (r *Renderer) warn(format string, args ...interface{}) {
	if r.Log != nil {
		r.Log.Warn(format, args...)
	}
}

func (r *Renderer) debug(format string, args ...interface{}) {
	if r.Log != nil {
		r.Log.Debug(r.Verbose, format, args...)
	}
}
