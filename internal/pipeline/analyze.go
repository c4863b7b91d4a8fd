package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/backmassage/candplot/internal/candidate"
	"github.com/backmassage/candplot/internal/catalog"
	"github.com/backmassage/candplot/internal/config"
	"github.com/backmassage/candplot/internal/display"
	"github.com/backmassage/candplot/internal/logging"
	"github.com/backmassage/candplot/internal/term"
)

// candRow holds the header values shown in the analysis table.
type candRow struct {
	Name     string
	Source   string
	DM       float64
	Expected catalog.ExpectedDM
	SNR      float64
	WidthMs  float64
	Err      error
}

// Analyze reads the header of every candidate matching cfg.Pattern on the
// worker pool and writes a table of source, DM, expected DM, S/N and width
// to w, highlighting statistical outliers in S/N and DM. No arrays are
// read and nothing is rendered.
func Analyze(ctx context.Context, cfg *config.Config, log *logging.Logger, op candidate.Opener, lookup catalog.Lookup, w io.Writer) error {
	files, err := Discover(cfg.Pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn("No candidate files match %s", cfg.Pattern)
		return nil
	}

	total := len(files)
	log.Info("Analyzing %d candidates matching %s …", total, cfg.Pattern)

	bar := display.NewProgress(os.Stdout, total, cfg.Progress && term.IsTerminal(os.Stdout))
	opts := candidate.OpenOptions{FileLocking: cfg.FileLocking}
	results := Map(ctx, files, cfg.Workers, cfg.ChunkSize, func(ctx context.Context, path string) candRow {
		return inspect(ctx, op, lookup, path, opts)
	})

	var rows []candRow
	var skipped int
	for row := range results {
		if row.Err != nil {
			skipped++
			bar.Above(func() { log.Warn("Skip (unreadable): %v", row.Err) })
		} else {
			rows = append(rows, row)
		}
		bar.Advance(row.Name)
	}
	bar.Done()

	if ctx.Err() != nil {
		log.Warn("Interrupted")
		return nil
	}
	if len(rows) == 0 {
		log.Warn("No candidates could be read")
		return nil
	}

	slices.SortFunc(rows, func(a, b candRow) int { return cmp.Compare(a.Name, b.Name) })

	snrStats := computeStats(column(rows, func(r candRow) float64 { return r.SNR }))
	dmStats := computeStats(column(rows, func(r candRow) float64 { return r.DM }))

	printAnalysisTable(w, rows, snrStats, dmStats)
	printAnalysisSummary(log, rows, snrStats, dmStats, skipped)
	return nil
}

func inspect(ctx context.Context, op candidate.Opener, lookup catalog.Lookup, path string, opts candidate.OpenOptions) candRow {
	row := candRow{Name: filepath.Base(path)}
	rec, err := candidate.LoadHeader(op, path, opts)
	if err != nil {
		row.Err = err
		return row
	}
	h := rec.Header
	row.Source = h.SourceName
	row.DM = h.DM
	row.SNR = h.SNR
	row.WidthMs = h.Width * h.Tsamp * 1000
	if lookup != nil {
		row.Expected, _ = catalog.Resolve(ctx, lookup, h.SourceName)
	}
	return row
}

func column(rows []candRow, f func(candRow) float64) []float64 {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := f(r); !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	return vals
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierLo float64 // Q1 - 1.5*IQR
	outlierHi float64 // Q3 + 1.5*IQR
	extremeLo float64 // Q1 - 3.0*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := slices.Clone(vals)
	slices.Sort(sorted)

	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3.0*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a value.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || math.IsNaN(v) {
		return ""
	}
	if v < b.extremeLo || v > b.extremeHi {
		return "extreme"
	}
	if v < b.outlierLo || v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func printAnalysisTable(w io.Writer, rows []candRow, snrStats, dmStats iqrBounds) {
	nameW := len("File")
	srcW := len("Source")
	dmW := len("DM")
	expW := len("Expected")
	snrW := len("S/N")
	widW := len("Width (ms)")

	for _, r := range rows {
		nameW = max(nameW, len(r.Name))
		srcW = max(srcW, len(r.Source))
		dmW = max(dmW, len(fmtDM(r.DM)))
		expW = max(expW, len(r.Expected.String()))
		snrW = max(snrW, len(fmtSNR(r.SNR)))
		widW = max(widW, len(fmtWidth(r.WidthMs)))
	}
	nameW = min(nameW, 50)
	srcW = min(srcW, 24)

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %-*s  %-*s",
		nameW, "File",
		srcW, "Source",
		dmW, "DM",
		expW, "Expected",
		snrW, "S/N",
		widW, "Width (ms)",
	)
	separator := "  " + strings.Repeat("─", len(header)-2)

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, separator)

	for _, r := range rows {
		dmClass := dmStats.classify(r.DM)
		snrClass := snrStats.classify(r.SNR)

		// Pad the plain text first, then color it, so escape bytes do not
		// count toward the column width.
		fmt.Fprintf(w, "  %-*s  %-*s  %s  %-*s  %s  %-*s  %s\n",
			nameW, truncate(r.Name, nameW),
			srcW, truncate(r.Source, srcW),
			colorPad(fmtDM(r.DM), dmW, dmClass),
			expW, r.Expected.String(),
			colorPad(fmtSNR(r.SNR), snrW, snrClass),
			widW, fmtWidth(r.WidthMs),
			formatFlag(worstFlag(dmClass, snrClass)),
		)
	}
	fmt.Fprintln(w)
}

func printAnalysisSummary(log *logging.Logger, rows []candRow, snrStats, dmStats iqrBounds, skipped int) {
	var outliers, extremes, known int
	for _, r := range rows {
		switch worstFlag(dmStats.classify(r.DM), snrStats.classify(r.SNR)) {
		case "extreme":
			extremes++
		case "outlier":
			outliers++
		}
		if r.Expected.Known {
			known++
		}
	}

	log.Info("Analyzed %d candidates (%d unreadable)", len(rows), skipped)
	log.Info("  Catalogued sources: %d of %d", known, len(rows))
	if snrStats.valid {
		log.Info("  S/N IQR: %.1f – %.1f (outlier < %.1f or > %.1f)",
			snrStats.q1, snrStats.q3, snrStats.outlierLo, snrStats.outlierHi)
	}
	if dmStats.valid {
		log.Info("  DM IQR: %.1f – %.1f pc cm^-3 (outlier < %.1f or > %.1f)",
			dmStats.q1, dmStats.q3, dmStats.outlierLo, dmStats.outlierHi)
	}
	if outliers > 0 {
		log.Outlier("  %d outlier(s) flagged [~]", outliers)
	}
	if extremes > 0 {
		log.Error("  %d extreme outlier(s) flagged [!]", extremes)
	}
	if outliers == 0 && extremes == 0 {
		log.Success("  No outliers detected")
	}
}

func fmtDM(dm float64) string { return fmt.Sprintf("%.2f", dm) }
func fmtSNR(snr float64) string { return fmt.Sprintf("%.1f", snr) }
func fmtWidth(ms float64) string { return fmt.Sprintf("%.3f", ms) }

func truncate(s string, width int) string {
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

func worstFlag(classes ...string) string {
	worst := ""
	for _, c := range classes {
		if c == "extreme" {
			return "extreme"
		}
		if c == "outlier" {
			worst = "outlier"
		}
	}
	return worst
}

func formatFlag(flag string) string {
	switch flag {
	case "extreme":
		return term.Red.Render("[!]")
	case "outlier":
		return term.Orange.Render("[~]")
	default:
		return ""
	}
}

// colorPad pads a plain string to width, then colors it.
func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch class {
	case "extreme":
		return term.Red.Render(padded)
	case "outlier":
		return term.Orange.Render(padded)
	default:
		return padded
	}
}
