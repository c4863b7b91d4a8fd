// Command candplot renders diagnostic plots for FRB and pulsar candidate
// files.
//
// `candplot <glob>` renders every matching HDF5 candidate to a PNG next to
// it; `candplot analyze <glob>` prints a header table with outlier flags;
// `candplot check` runs system diagnostics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/candplot/internal/candidate"
	"github.com/backmassage/candplot/internal/check"
	"github.com/backmassage/candplot/internal/config"
	"github.com/backmassage/candplot/internal/display"
	"github.com/backmassage/candplot/internal/logging"
	"github.com/backmassage/candplot/internal/pipeline"
	"github.com/backmassage/candplot/internal/render"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "0.4.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

// run executes the CLI and returns the process exit code: 0 when nothing
// failed, 1 otherwise.
func run(ctx context.Context, args []string) int {
	cfg := config.DefaultConfig()
	code := 0
	root := newRootCmd(&cfg, &code)
	root.SetArgs(args)

	// Bootstrap errors (flags, config file, validation) happen before the
	// logger exists and go straight to stderr.
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "candplot: %v\n", err)
		return 1
	}
	return code
}

func newRootCmd(cfg *config.Config, code *int) *cobra.Command {
	b := config.NewBinding(cfg)
	root := &cobra.Command{
		Use:   "candplot [flags] <glob>",
		Short: "Render diagnostic plots for FRB/pulsar candidate files",
		Long: "candplot reads HDF5 candidate files matching a glob and writes a four-panel\n" +
			"PNG (time series, frequency-time, DM-time, metadata) next to each one.",
		Version:       version + " (" + commit + ")",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return b.Resolve(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setPattern(cfg, args); err != nil {
				return err
			}
			*code = runBatch(cmd.Context(), cfg)
			return nil
		},
	}
	root.SetVersionTemplate("candplot v{{.Version}}\n")
	b.DefineGlobal(root.PersistentFlags())
	b.DefineRender(root.Flags())

	root.AddCommand(newAnalyzeCmd(cfg, code), newCheckCmd(cfg, code))
	return root
}

func newAnalyzeCmd(cfg *config.Config, code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [flags] <glob>",
		Short: "Tabulate candidate headers and flag S/N and DM outliers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setPattern(cfg, args); err != nil {
				return err
			}
			*code = runAnalyze(cmd.Context(), cfg)
			return nil
		},
	}
}

func newCheckCmd(cfg *config.Config, code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run system diagnostics (HDF5, font, PNG encoding, catalogues, viewer)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*code = runCheck(cmd.Context(), cfg)
			return nil
		},
	}
}

// setPattern takes the glob from the positional arg, falling back to the
// config file's pattern.
func setPattern(cfg *config.Config, args []string) error {
	if len(args) == 1 {
		cfg.Pattern = args[0]
	}
	if cfg.Pattern == "" {
		return fmt.Errorf("need a glob pattern, e.g. candplot 'data/*.h5'")
	}
	return nil
}

func runBatch(ctx context.Context, cfg *config.Config) int {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "candplot: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner(os.Stdout, version)

	// Fail fast if HDF5, the font or PNG encoding are unusable.
	if err := check.CheckDeps(cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	lookup, closeCatalog := buildCatalog(cfg, log)
	defer closeCatalog()

	r := &render.Renderer{
		Opener:      &candidate.HDF5Opener{},
		OpenOptions: candidate.OpenOptions{FileLocking: cfg.FileLocking},
		Catalog:     lookup,
		Log:         log,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Verbose:     cfg.Verbose,
	}
	if cfg.Show {
		r.Viewer = render.ExecViewer{Command: cfg.Viewer}
	}

	ctx, stop := withSignals(ctx, log)
	defer stop()

	stats, err := pipeline.Run(ctx, cfg, log, r)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

func runAnalyze(ctx context.Context, cfg *config.Config) int {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "candplot: %v\n", err)
		return 1
	}
	defer log.Close()

	lookup, closeCatalog := buildCatalog(cfg, log)
	defer closeCatalog()

	ctx, stop := withSignals(ctx, log)
	defer stop()

	if err := pipeline.Analyze(ctx, cfg, log, &candidate.HDF5Opener{}, lookup, os.Stdout); err != nil {
		log.Error("%v", err)
		return 1
	}
	return 0
}

func runCheck(ctx context.Context, cfg *config.Config) int {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "candplot: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner(os.Stdout, version)
	log.Info("=== candplot v%s (%s) ===", version, commit)
	if !check.RunCheck(ctx, cfg, log) {
		return 1
	}
	return 0
}

// withSignals cancels the returned context on SIGINT/SIGTERM so the pool
// stops dispatching new chunks while in-flight renders finish.
func withSignals(parent context.Context, log *logging.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, finishing in-flight candidates…")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
