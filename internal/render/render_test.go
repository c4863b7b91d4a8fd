package render

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/backmassage/candplot/internal/candidate"
	"github.com/backmassage/candplot/internal/candidate/candidatetest"
	"github.com/backmassage/candplot/internal/catalog"
	"github.com/backmassage/candplot/internal/dsp"
	"github.com/backmassage/candplot/internal/figure"
)

type recordLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordLogger) Warn(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *recordLogger) Debug(bool, string, ...interface{}) {}

func (l *recordLogger) joined() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.warns, "\n")
}

type fakeViewer struct {
	shown []string
	err   error
}

func (v *fakeViewer) Show(_ context.Context, path string) error {
	v.shown = append(v.shown, path)
	return v.err
}

// setup registers f under a real temp path so the PNG lands on disk.
func setup(t *testing.T, f *candidatetest.File) (*Renderer, *candidatetest.Opener, *recordLogger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cand_0001.h5")
	op := candidatetest.NewOpener()
	op.Add(path, f)
	log := &recordLogger{}
	r := &Renderer{
		Opener:  op,
		Catalog: catalog.NewTable(nil),
		Log:     log,
	}
	return r, op, log, path
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/data/cand_1.h5", "/data/cand_1.png"},
		{"cand.hdf5", "cand.h.png"},
		{"ab", ".png"},
		{"", ".png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath(tt.in), "OutputPath(%q)", tt.in)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status Status
		reason string
	}{
		{"nil", nil, Rendered, ""},
		{"shape", fmt.Errorf("x: %w", dsp.ErrShape), Skipped, dsp.ErrShape.Error()},
		{"cast", errors.Join(fmt.Errorf("%w: fch1", candidate.ErrCast)), Skipped, candidate.ErrCast.Error()},
		{"limits", fmt.Errorf("x: %w", figure.ErrAxisLimits), Skipped, figure.ErrAxisLimits.Error()},
		{"exists", ErrOutputExists, Skipped, ErrOutputExists.Error()},
		{"missing attribute", fmt.Errorf("%w: dm", candidate.ErrMissingAttribute), Failed, ""},
		{"io", fs.ErrPermission, Failed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "rendered", Rendered.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Status(9).String())
}

func TestRender_EndToEnd(t *testing.T) {
	r, op, log, path := setup(t, candidatetest.Synthetic())

	out := r.Render(context.Background(), path, DefaultOptions())
	require.NoError(t, out.Err)
	assert.Equal(t, Rendered, out.Status)
	assert.Equal(t, OutputPath(path), out.Path)
	assert.True(t, out.Saved)
	assert.NotEqual(t, uuid.Nil, out.ID)
	assert.Positive(t, out.Elapsed)
	assert.True(t, op.Balanced(), "candidate file left open")

	f, err := os.Open(out.Path)
	require.NoError(t, err)
	defer f.Close()
	st, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, st.Size(), out.Bytes)
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, figure.DefaultWidth, cfg.Width)
	assert.Equal(t, figure.DefaultHeight, cfg.Height)

	// The unresolvable source is a warning, not a failure.
	assert.Contains(t, log.joined(), "FRB_UNCATALOGUED")
}

func TestRender_KnownSource(t *testing.T) {
	r, _, log, path := setup(t, candidatetest.Synthetic())
	r.Catalog = catalog.NewTable(map[string]float64{"FRB_UNCATALOGUED": 50.1})
	r.Width, r.Height = 600, 320

	out := r.Render(context.Background(), path, DefaultOptions())
	require.NoError(t, out.Err)
	assert.Equal(t, Rendered, out.Status)
	assert.Empty(t, log.joined())
}

func TestRender_NilCatalog(t *testing.T) {
	r, _, log, path := setup(t, candidatetest.Synthetic())
	r.Catalog = nil

	out := r.Render(context.Background(), path, DefaultOptions())
	assert.Equal(t, Rendered, out.Status)
	assert.Contains(t, log.joined(), catalog.ErrUnavailable.Error())
}

func TestRender_RepeatedOverwrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, op, _, path := setup(t, candidatetest.Synthetic())
	r.Width, r.Height = 400, 240

	first := r.Render(context.Background(), path, DefaultOptions())
	require.Equal(t, Rendered, first.Status, "%v", first.Err)
	a, err := os.ReadFile(first.Path)
	require.NoError(t, err)

	for range 3 {
		again := r.Render(context.Background(), path, DefaultOptions())
		require.Equal(t, Rendered, again.Status, "%v", again.Err)
		assert.Equal(t, first.Path, again.Path)
		assert.NotEqual(t, first.ID, again.ID)
	}
	b, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, a, b, "identical inputs give identical images")
	assert.Equal(t, 4, op.Opens())
	assert.True(t, op.Balanced())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the PNG is written")
}

func TestRender_NoSave(t *testing.T) {
	r, _, _, path := setup(t, candidatetest.Synthetic())
	opts := DefaultOptions()
	opts.Save = false

	out := r.Render(context.Background(), path, opts)
	assert.Equal(t, Rendered, out.Status)
	assert.Equal(t, OutputPath(path), out.Path, "the derived path is reported even when unsaved")
	assert.False(t, out.Saved)
	assert.Zero(t, out.Bytes)
	assert.NoFileExists(t, OutputPath(path))
}

func TestRender_NoDetrend(t *testing.T) {
	r, _, _, path := setup(t, candidatetest.Synthetic())
	opts := DefaultOptions()
	opts.Detrend = false
	opts.DMRangeScale = 0.2

	out := r.Render(context.Background(), path, opts)
	assert.Equal(t, Rendered, out.Status, "%v", out.Err)
}

func TestRender_Show(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	r, _, log, path := setup(t, candidatetest.Synthetic())
	v := &fakeViewer{}
	r.Viewer = v

	opts := DefaultOptions()
	opts.Show = true
	out := r.Render(context.Background(), path, opts)
	require.Equal(t, Rendered, out.Status)
	assert.Equal(t, []string{out.Path}, v.shown)

	// Unsaved figures are shown from a temporary file.
	opts.Save = false
	v.err = errors.New("no display")
	out = r.Render(context.Background(), path, opts)
	require.Equal(t, Rendered, out.Status, "viewer errors do not fail the render")
	require.Len(t, v.shown, 2)
	assert.NotEqual(t, OutputPath(path), v.shown[1])
	assert.FileExists(t, v.shown[1])
	assert.Contains(t, log.joined(), "no display")
}

func TestRender_ShowWithoutViewer(t *testing.T) {
	r, _, log, path := setup(t, candidatetest.Synthetic())
	opts := DefaultOptions()
	opts.Show = true

	out := r.Render(context.Background(), path, opts)
	assert.Equal(t, Rendered, out.Status)
	assert.Contains(t, log.joined(), "no viewer")
}

func TestRender_SkipExisting(t *testing.T) {
	r, op, _, path := setup(t, candidatetest.Synthetic())
	require.NoError(t, os.WriteFile(OutputPath(path), []byte("old"), 0o644))

	opts := DefaultOptions()
	opts.SkipExisting = true
	out := r.Render(context.Background(), path, opts)
	assert.Equal(t, Skipped, out.Status)
	assert.Equal(t, ErrOutputExists.Error(), out.Reason)
	assert.Zero(t, op.Opens(), "existing output short-circuits the read")

	b, err := os.ReadFile(OutputPath(path))
	require.NoError(t, err)
	assert.Equal(t, "old", string(b))
}

func TestRender_Skips(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *candidatetest.File)
		reason error
	}{
		{
			name: "freq_time shape",
			mutate: func(f *candidatetest.File) {
				f.Datasets[candidate.DatasetFreqTime] = &dsp.Matrix{Rows: 4, Cols: 4, Data: make([]float64, 3)}
			},
			reason: dsp.ErrShape,
		},
		{
			name: "dm_time shape",
			mutate: func(f *candidatetest.File) {
				f.Datasets[candidate.DatasetDMTime] = &dsp.Matrix{Rows: 2, Cols: 0}
			},
			reason: dsp.ErrShape,
		},
		{
			name:   "string fch1",
			mutate: func(f *candidatetest.File) { f.Attrs["fch1"] = "high" },
			reason: candidate.ErrCast,
		},
		{
			name:   "non-finite tsamp",
			mutate: func(f *candidatetest.File) { f.Attrs["tsamp"] = math.NaN() },
			reason: figure.ErrAxisLimits,
		},
		{
			name:   "infinite dm",
			mutate: func(f *candidatetest.File) { f.Attrs["dm"] = math.Inf(1) },
			reason: figure.ErrAxisLimits,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := candidatetest.Synthetic()
			tt.mutate(f)
			r, op, _, path := setup(t, f)

			out := r.Render(context.Background(), path, DefaultOptions())
			assert.Equal(t, Skipped, out.Status, "%v", out.Err)
			assert.ErrorIs(t, out.Err, tt.reason)
			assert.Equal(t, tt.reason.Error(), out.Reason)
			assert.Empty(t, out.Path)
			assert.False(t, out.Saved)
			assert.NoFileExists(t, OutputPath(path))
			assert.True(t, op.Balanced())
		})
	}
}

func TestCompose_ErrorAfterCanvasIsReturned(t *testing.T) {
	op := candidatetest.NewOpener()
	f := candidatetest.Synthetic()
	f.Attrs["dm"] = 1e308
	op.Add("big_dm.h5", f)
	rec, err := candidate.Load(op, "big_dm.h5", candidate.OpenOptions{})
	require.NoError(t, err)
	wf, err := dsp.Prepare(rec.FreqTime, rec.DMTime, true)
	require.NoError(t, err)

	var fig *figure.Figure
	require.NotPanics(t, func() {
		fig, err = compose(rec, wf, catalog.ExpectedDM{}, 1.0, 200, 100)
	})
	assert.Nil(t, fig)
	assert.ErrorIs(t, err, figure.ErrAxisLimits)
}

func TestRender_Failures(t *testing.T) {
	t.Run("missing attribute", func(t *testing.T) {
		f := candidatetest.Synthetic()
		delete(f.Attrs, "snr")
		r, op, _, path := setup(t, f)

		out := r.Render(context.Background(), path, DefaultOptions())
		assert.Equal(t, Failed, out.Status)
		assert.ErrorIs(t, out.Err, candidate.ErrMissingAttribute)
		assert.Empty(t, out.Reason)
		assert.True(t, op.Balanced())
	})

	t.Run("missing dataset", func(t *testing.T) {
		f := candidatetest.Synthetic()
		delete(f.Datasets, candidate.DatasetDMTime)
		r, _, _, path := setup(t, f)

		out := r.Render(context.Background(), path, DefaultOptions())
		assert.Equal(t, Failed, out.Status)
		assert.ErrorIs(t, out.Err, candidate.ErrMissingDataset)
	})

	t.Run("missing file", func(t *testing.T) {
		r, _, _, path := setup(t, candidatetest.Synthetic())

		out := r.Render(context.Background(), path+".gone", DefaultOptions())
		assert.Equal(t, Failed, out.Status)
		assert.ErrorIs(t, out.Err, fs.ErrNotExist)
	})

	t.Run("unwritable output", func(t *testing.T) {
		f := candidatetest.Synthetic()
		path := filepath.Join(t.TempDir(), "no", "such", "dir", "c.h5")
		op := candidatetest.NewOpener()
		op.Add(path, f)
		r := &Renderer{Opener: op, Width: 200, Height: 120}

		out := r.Render(context.Background(), path, DefaultOptions())
		assert.Equal(t, Failed, out.Status)
		assert.Error(t, out.Err)
	})
}

type panicOpener struct{}

func (panicOpener) Open(string, candidate.OpenOptions) (candidate.Source, error) {
	panic("corrupt superblock")
}

func TestRender_RecoversPanic(t *testing.T) {
	r := &Renderer{Opener: panicOpener{}}
	out := r.Render(context.Background(), "x.h5", DefaultOptions())
	assert.Equal(t, Failed, out.Status)
	assert.ErrorContains(t, out.Err, "corrupt superblock")
}

func TestRender_AllNonFiniteFreqTime(t *testing.T) {
	f := candidatetest.Synthetic()
	ft := f.Datasets[candidate.DatasetFreqTime]
	for i := range ft.Data {
		ft.Data[i] = math.NaN()
	}
	r, _, _, path := setup(t, f)
	r.Width, r.Height = 300, 200

	// Scrubbing leaves zeros, the zero std turns them into NaN, and the
	// figure still renders with blank panels.
	out := r.Render(context.Background(), path, DefaultOptions())
	assert.Equal(t, Rendered, out.Status, "%v", out.Err)
	assert.FileExists(t, out.Path)
}

func TestSpread(t *testing.T) {
	ts := dsp.TimeAxis(0.001, 1)
	assert.Equal(t, ts, spread(ts, len(ts)))

	xs := spread(ts, 16)
	require.Len(t, xs, 16)
	assert.Equal(t, ts[0], xs[0])
	assert.InDelta(t, ts[len(ts)-1], xs[15], 1e-9)

	assert.Equal(t, []float64{0}, spread(ts, 1))
	assert.Empty(t, spread(ts, 0))
}

func TestExecViewer(t *testing.T) {
	assert.False(t, ExecViewer{}.Available())
	assert.Error(t, ExecViewer{}.Show(context.Background(), "x.png"))

	missing := ExecViewer{Command: filepath.Join(t.TempDir(), "viewer") + " --flag"}
	assert.False(t, missing.Available())
	assert.Error(t, missing.Show(context.Background(), "x.png"))
}
