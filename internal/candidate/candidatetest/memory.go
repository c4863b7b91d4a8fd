// Package candidatetest provides an in-memory candidate.Opener and synthetic
// records for tests that should not depend on libhdf5.
package candidatetest

import (
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"sync"

	"github.com/backmassage/candplot/internal/candidate"
	"github.com/backmassage/candplot/internal/dsp"
)

// File is the in-memory content of one candidate file. A []float64
// attribute value stands for an array attribute.
type File struct {
	Attrs    map[string]any
	Datasets map[string]*dsp.Matrix
}

// Opener serves Files by path and counts opens and closes.
type Opener struct {
	mu     sync.Mutex
	files  map[string]*File
	opens  int
	closes int
	last   candidate.OpenOptions
}

// NewOpener returns an empty Opener.
func NewOpener() *Opener {
	return &Opener{files: make(map[string]*File)}
}

// Add registers f under path.
func (o *Opener) Add(path string, f *File) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[path] = f
}

// Open implements candidate.Opener.
func (o *Opener) Open(path string, opts candidate.OpenOptions) (candidate.Source, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := o.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	o.opens++
	o.last = opts
	return &source{f: f, o: o}, nil
}

// Balanced reports whether every opened source was closed.
func (o *Opener) Balanced() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens == o.closes
}

// Opens returns how many times Open succeeded.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// LastOptions returns the options passed to the most recent Open.
func (o *Opener) LastOptions() candidate.OpenOptions {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

type source struct {
	f *File
	o *Opener
}

func (s *source) Attr(name string) (any, error) {
	v, ok := s.f.Attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", candidate.ErrMissingAttribute, name)
	}
	if _, array := v.([]float64); array {
		return nil, fmt.Errorf("%w: %s", candidate.ErrNotScalar, name)
	}
	return v, nil
}

func (s *source) AttrNames() ([]string, error) {
	return slices.Collect(maps.Keys(s.f.Attrs)), nil
}

func (s *source) Dataset(name string) (*dsp.Matrix, error) {
	m, ok := s.f.Datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", candidate.ErrMissingDataset, name)
	}
	return m.Clone(), nil
}

func (s *source) Close() error {
	s.o.mu.Lock()
	defer s.o.mu.Unlock()
	s.o.closes++
	return nil
}

// Synthetic returns a complete candidate: freq_time (16 time x 8 channel),
// dm_time (16 x 16), width 1, tsamp 1 ms, fch1 1400 MHz, foff -1 MHz,
// nchans 8, dm 50, and a source name no catalogue knows.
func Synthetic() *File {
	ft := make([]float64, 16*8)
	for i := range ft {
		t, c := i/8, i%8
		ft[i] = float64(c) * 0.25
		if t == 8 {
			ft[i] += 10
		}
	}
	dt := make([]float64, 16*16)
	for i := range dt {
		row, col := i/16, i%16
		if col == 8 && row > 4 && row < 12 {
			dt[i] = 5
		}
	}
	ftm, _ := dsp.NewMatrix(16, 8, ft)
	dtm, _ := dsp.NewMatrix(16, 16, dt)

	return &File{
		Attrs: map[string]any{
			"source_name": "FRB_UNCATALOGUED",
			"fch1":        1400.0,
			"foff":        -1.0,
			"nchans":      8.0,
			"dm":          50.0,
			"cand_id":     "cand_tstart_58000.000000000_tcand_1.0000000_dm_50.00000_snr_12.00000",
			"tsamp":       0.001,
			"dm_opt":      49.5,
			"snr":         12.0,
			"snr_opt":     12.5,
			"width":       1.0,
		},
		Datasets: map[string]*dsp.Matrix{
			candidate.DatasetFreqTime: ftm,
			candidate.DatasetDMTime:   dtm,
		},
	}
}
