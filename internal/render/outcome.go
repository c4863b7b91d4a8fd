package render

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/candplot/internal/candidate"
	"github.com/backmassage/candplot/internal/dsp"
	"github.com/backmassage/candplot/internal/figure"
)

// Status is the result class of one render.
type Status int

const (
	// Rendered means the figure was produced (and saved when requested).
	Rendered Status = iota
	// Skipped means the candidate's data could not be plotted: a shape or
	// type problem in the arrays or attributes, or an existing output with
	// SkipExisting set. Skips are expected in bulk runs.
	Skipped
	// Failed is any other error: unreadable or missing files, missing
	// required keys, I/O and encode errors, and recovered panics.
	Failed
)

func (s Status) String() string {
	switch s {
	case Rendered:
		return "rendered"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrOutputExists is the skip reason when SkipExisting finds a PNG.
var ErrOutputExists = errors.New("output exists")

// softErrors are the sentinels that turn a render into a skip.
var softErrors = []error{
	dsp.ErrShape,
	candidate.ErrCast,
	figure.ErrAxisLimits,
	ErrOutputExists,
}

// Outcome describes one render.
type Outcome struct {
	ID     uuid.UUID
	Input  string
	// Path is the derived output PNG on success, whether or not it was
	// written. Saved reports whether it was.
	Path   string
	Saved  bool
	Status Status
	// Reason is the matched sentinel's message for skips. Summaries group
	// on it.
	Reason string
	Err    error
	Bytes  int64
	// Elapsed is wall time for the whole render.
	Elapsed time.Duration
}

// Classify maps a render error to a status and, for skips, a reason.
func Classify(err error) (Status, string) {
	if err == nil {
		return Rendered, ""
	}
	for _, soft := range softErrors {
		if errors.Is(err, soft) {
			return Skipped, soft.Error()
		}
	}
	return Failed, ""
}

// OutputPath derives the PNG path by replacing the input's final three
// characters (normally ".h5") with ".png".
func OutputPath(input string) string {
	return input[:max(len(input)-3, 0)] + ".png"
}
