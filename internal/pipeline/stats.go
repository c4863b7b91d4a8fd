package pipeline

import (
	"slices"
	"time"

	"github.com/backmassage/candplot/internal/render"
)

// RunStats tracks aggregate counters across a batch run.
type RunStats struct {
	Total    int // matched paths
	Current  int // outcomes received
	Rendered int
	Skipped  int
	Failed   int
	Bytes    int64 // PNG bytes written
	Elapsed  time.Duration

	// SkipReasons counts skipped candidates per reason.
	SkipReasons map[string]int
}

// Record folds one outcome into the counters.
func (s *RunStats) Record(out render.Outcome) {
	s.Current++
	s.Bytes += out.Bytes
	switch out.Status {
	case render.Rendered:
		s.Rendered++
	case render.Skipped:
		s.Skipped++
		if s.SkipReasons == nil {
			s.SkipReasons = map[string]int{}
		}
		s.SkipReasons[out.Reason]++
	default:
		s.Failed++
	}
}

// Pending is the number of matched paths that produced no outcome, which
// happens only when the run was cancelled.
func (s *RunStats) Pending() int {
	return s.Total - s.Current
}

// Reasons returns the skip reasons in sorted order.
func (s *RunStats) Reasons() []string {
	keys := make([]string, 0, len(s.SkipReasons))
	for k := range s.SkipReasons {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
