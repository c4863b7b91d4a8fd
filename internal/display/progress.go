package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/termenv"

	"github.com/backmassage/candplot/internal/term"
)

const (
	barWidth  = 30
	maxLabel  = 40
	clearLine = "\r\x1b[K"
)

// Progress is an inline, \r-overwritten progress line. When disabled (piped
// output, --no-progress) it only counts. It is safe for concurrent use.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	bar     progress.Model
	total   int
	done    int
	label   string
	enabled bool
	drawn   bool
}

// NewProgress returns a progress line for total units written to w.
func NewProgress(w io.Writer, total int, enabled bool) *Progress {
	opts := []progress.Option{progress.WithWidth(barWidth), progress.WithoutPercentage()}
	if term.Enabled() {
		opts = append(opts, progress.WithDefaultGradient(), progress.WithColorProfile(termenv.ANSI256))
	} else {
		opts = append(opts, progress.WithColorProfile(termenv.Ascii))
	}
	return &Progress{
		w:       w,
		bar:     progress.New(opts...),
		total:   total,
		enabled: enabled && total > 0,
	}
}

// Advance counts one finished unit and redraws with label as the last item.
func (p *Progress) Advance(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.label = label
	p.draw()
}

// Above runs fn with the progress line cleared, then redraws it. Use it for
// log output that would otherwise be overwritten.
func (p *Progress) Above(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clear()
	fn()
	p.draw()
}

// Done erases the line. Further Advance calls still count.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clear()
	p.enabled = false
}

// Count is the number of Advance calls so far.
func (p *Progress) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Progress) draw() {
	if !p.enabled || p.done == 0 {
		return
	}
	frac := float64(p.done) / float64(p.total)
	if frac > 1 {
		frac = 1
	}
	label := p.label
	if r := []rune(label); len(r) > maxLabel {
		label = string(r[:maxLabel-1]) + "…"
	}
	fmt.Fprintf(p.w, "%s  %s %3d%% [%d/%d] %s", clearLine, p.bar.ViewAs(frac), int(frac*100), p.done, p.total, label)
	p.drawn = true
}

func (p *Progress) clear() {
	if p.drawn {
		fmt.Fprint(p.w, clearLine)
		p.drawn = false
	}
}
