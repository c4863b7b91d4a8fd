// Package candidate reads single-pulse candidate files: two named 2-D arrays
// (a DM-time array and a dedispersed dynamic spectrum) plus scalar metadata
// attributes written by the upstream detection pipeline.
//
// Reading goes through an [Opener] so the container format is pluggable;
// [HDF5Opener] is the production implementation and candidatetest provides
// an in-memory one. [Load] owns the open/read/close sequence.
package candidate

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/backmassage/candplot/internal/dsp"
)

// Names of the required datasets.
const (
	DatasetDMTime   = "data_dm_time"
	DatasetFreqTime = "data_freq_time"
)

// Sentinel errors. ErrMissingAttribute and ErrMissingDataset are hard
// failures; ErrCast marks a value of the wrong type and is treated like
// dsp.ErrShape by the renderer.
var (
	ErrMissingAttribute = errors.New("missing attribute")
	ErrMissingDataset   = errors.New("missing dataset")
	ErrCast             = errors.New("incompatible attribute type")
	// ErrNotScalar marks an array-valued attribute. It wraps ErrCast.
	ErrNotScalar = fmt.Errorf("%w: not a scalar", ErrCast)
)

// Attr is one scalar attribute as read from the file. Value is a float64 or
// a string.
type Attr struct {
	Key   string
	Value any
}

// String formats the attribute as a "key : value" display line.
func (a Attr) String() string {
	return a.Key + " : " + FormatValue(a.Value)
}

// FormatValue renders an attribute value. Whole floats print without a
// fractional part so channel counts and widths read naturally.
func FormatValue(v any) string {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatFloat(x, 'f', -1, 64)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Header is the typed view of the attributes the plot needs.
type Header struct {
	SourceName string
	Fch1       float64 // MHz, top channel
	Foff       float64 // MHz per channel, sign gives direction
	NChans     int
	DM         float64
	CandID     string
	Tsamp      float64 // seconds
	DMOpt      float64
	SNR        float64
	SNROpt     float64
	Width      float64 // boxcar width in samples
}

// Record is a fully read candidate. It owns its arrays.
type Record struct {
	Path     string
	Attrs    []Attr
	Header   Header
	DMTime   *dsp.Matrix
	FreqTime *dsp.Matrix
}

// Lines returns the attribute display lines in file order.
func (r *Record) Lines() []string {
	out := make([]string, len(r.Attrs))
	for i, a := range r.Attrs {
		out[i] = a.String()
	}
	return out
}
