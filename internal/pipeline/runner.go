package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/backmassage/candplot/internal/config"
	"github.com/backmassage/candplot/internal/display"
	"github.com/backmassage/candplot/internal/logging"
	"github.com/backmassage/candplot/internal/render"
	"github.com/backmassage/candplot/internal/term"
)

// RenderOptions maps the batch configuration onto per-candidate options.
func RenderOptions(cfg *config.Config) render.Options {
	return render.Options{
		Show:         cfg.Show,
		Save:         cfg.Save,
		Detrend:      cfg.Detrend,
		DMRangeScale: cfg.DMRangeScale,
		SkipExisting: cfg.SkipExisting,
	}
}

// Run is the top-level batch entry point. It expands cfg.Pattern, renders
// every match on the worker pool, logs each outcome as it completes and
// returns aggregate stats. The error is non-nil only when the pattern
// itself is unusable; per-candidate failures are counted in the stats.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, r *render.Renderer) (RunStats, error) {
	start := time.Now()
	var stats RunStats

	files, err := Discover(cfg.Pattern)
	if err != nil {
		return stats, err
	}
	stats.Total = len(files)
	if stats.Total == 0 {
		log.Warn("No candidate files match %s", cfg.Pattern)
		return stats, nil
	}

	logBatchHeader(cfg, log, &stats)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	bar := display.NewProgress(os.Stdout, stats.Total, cfg.Progress && term.IsTerminal(os.Stdout))
	base := r.Log
	if base == nil {
		base = log
	}
	worker := *r
	worker.Log = progressLog{bar: bar, log: base}
	opts := RenderOptions(cfg)

	outcomes := Map(runCtx, files, cfg.Workers, cfg.ChunkSize, func(ctx context.Context, path string) render.Outcome {
		return worker.Render(ctx, path, opts)
	})
	for out := range outcomes {
		stats.Record(out)
		bar.Above(func() { logOutcome(cfg, log, out) })
		bar.Advance(filepath.Base(out.Input))

		if out.Status == render.Failed && cfg.FailFast && runCtx.Err() == nil {
			bar.Above(func() { log.Error("Stopping dispatch after the first failure (--fail-fast)") })
			cancel()
		}
	}
	bar.Done()
	stats.Elapsed = time.Since(start)

	if ctx.Err() != nil {
		log.Warn("Interrupted")
	}
	logSummary(log, &stats)
	return stats, nil
}

// progressLog keeps worker log lines from being overwritten by the
// progress line.
type progressLog struct {
	bar *display.Progress
	log render.Logger
}

func (p progressLog) Warn(format string, args ...interface{}) {
	p.bar.Above(func() { p.log.Warn(format, args...) })
}

func (p progressLog) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	p.bar.Above(func() { p.log.Debug(verbose, format, args...) })
}

// logOutcome reports one finished candidate.
func logOutcome(cfg *config.Config, log *logging.Logger, out render.Outcome) {
	name := filepath.Base(out.Input)
	switch out.Status {
	case render.Rendered:
		if out.Saved {
			log.Success("%s -> %s (%s, %s)", name, filepath.Base(out.Path),
				display.FormatBytes(out.Bytes), display.FormatDuration(out.Elapsed))
		} else {
			log.Success("%s rendered (%s)", name, display.FormatDuration(out.Elapsed))
		}
	case render.Skipped:
		log.Warn("Skip (%s): %s", out.Reason, name)
		log.Debug(cfg.Verbose, "  %v", out.Err)
	default:
		log.With("id", out.ID.String()).Error("Failed: %v", out.Err)
	}
}

func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("Pattern:    %s", cfg.Pattern)
	log.Info("Candidates: %d", stats.Total)
	log.Info("Workers:    %d (chunks of %d)", cfg.Workers, cfg.ChunkSize)

	mode := "save"
	switch {
	case cfg.Save && cfg.Show:
		mode = "save + show"
	case cfg.Show:
		mode = "show only"
	case !cfg.Save:
		mode = "render only (nothing written)"
	}
	log.Info("Output:     %s", mode)
	log.Debug(cfg.Verbose, "Detrend: %v, DM range scale: %g, file locking: %v",
		cfg.Detrend, cfg.DMRangeScale, cfg.FileLocking)
	if cfg.SkipExisting {
		log.Info("Existing PNGs are skipped")
	}
}

func logSummary(log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d rendered, %d skipped, %d failed", stats.Rendered, stats.Skipped, stats.Failed)
	log.Info("Summary report:")
	log.Info("  Total candidates processed: %d of %d", stats.Current, stats.Total)
	if n := stats.Pending(); n > 0 {
		log.Warn("  Not processed: %d", n)
	}
	for _, reason := range stats.Reasons() {
		log.Info("  Skipped (%s): %d", reason, stats.SkipReasons[reason])
	}
	if stats.Bytes > 0 {
		log.Success("  PNG output: %s", display.FormatBytes(stats.Bytes))
	}
	log.Info("  Elapsed: %s (%s)", display.FormatDuration(stats.Elapsed), display.Rate(stats.Current, stats.Elapsed))
	if stats.Failed > 0 {
		log.Error("  %d candidate(s) failed", stats.Failed)
	}
}
