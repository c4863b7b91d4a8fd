package config

// This file binds CLI flags onto a Config. Flags are grouped into global
// (pool, catalogue, display) and render flags. Negated flags (e.g. --no-save)
// are applied after parsing so Config defaults hold unless set.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Binding connects a Config to parsed flags. Create one with [NewBinding],
// register flag groups, parse, then call [Binding.Resolve].
type Binding struct {
	cfg        *Config
	configFile string
	negated    negatedFlags
}

// negatedFlags holds boolean flags that are applied after parsing. Each one
// inverts a default (e.g. noSave -> Save=false).
type negatedFlags struct {
	noDetrend  bool
	noSave     bool
	noPsrcat   bool
	noProgress bool
	noColor    bool
}

// NewBinding returns a Binding writing into cfg.
func NewBinding(cfg *Config) *Binding {
	return &Binding{cfg: cfg}
}

// DefineGlobal registers flags shared by every subcommand.
func (b *Binding) DefineGlobal(fs *pflag.FlagSet) {
	b.definePoolFlags(fs)
	b.defineCatalogFlags(fs)
	b.defineDisplayFlags(fs)
}

// DefineRender registers flags that only affect figure rendering.
func (b *Binding) DefineRender(fs *pflag.FlagSet) {
	cfg := b.cfg
	fs.BoolVar(&b.negated.noDetrend, "no-detrend", false, "Do not remove the linear trend along time from each channel")
	fs.Float64Var(&cfg.DMRangeScale, "dm-range-scale", cfg.DMRangeScale, "DM-time extent is dm*(1 +/- scale)")
	fs.BoolVar(&b.negated.noSave, "no-save", false, "Do not write PNGs next to the inputs")
	fs.BoolVar(&cfg.Show, "show", false, "Open each figure in a viewer")
	fs.StringVar(&cfg.Viewer, "viewer", cfg.Viewer, "Viewer command used by --show")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Figure width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Figure height in pixels")
	fs.BoolVar(&cfg.SkipExisting, "skip-existing", false, "Skip candidates whose PNG already exists")
	fs.BoolVar(&cfg.FailFast, "fail-fast", false, "Stop the batch at the first failed candidate")
}

// definePoolFlags registers -j/--workers, --chunk-size, --file-locking and --config.
func (b *Binding) definePoolFlags(fs *pflag.FlagSet) {
	cfg := b.cfg
	fs.StringVar(&b.configFile, "config", "", "YAML config file (flags override its values)")
	fs.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of worker goroutines")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Paths handed to a worker at a time")
	fs.BoolVar(&cfg.FileLocking, "file-locking", false, "Keep HDF5 file locking enabled")
}

// defineCatalogFlags registers the expected-DM sources.
func (b *Binding) defineCatalogFlags(fs *pflag.FlagSet) {
	cfg := b.cfg
	fs.StringVar(&cfg.CatalogFile, "catalog", "", "YAML table of source DMs")
	fs.StringVar(&cfg.CatalogDB, "catalog-db", "", "SQLite database of source DMs")
	fs.StringVar(&cfg.Psrcat, "psrcat", cfg.Psrcat, "psrcat binary")
	fs.BoolVar(&b.negated.noPsrcat, "no-psrcat", false, "Do not query psrcat")
}

// defineDisplayFlags registers --color, --no-color, verbose, --log, --no-progress.
func (b *Binding) defineDisplayFlags(fs *pflag.FlagSet) {
	cfg := b.cfg
	fs.Var(&colorModeValue{&cfg.ColorMode}, "color", "Color output: auto | always | never")
	fs.BoolVar(&b.negated.noColor, "no-color", false, "Same as --color=never")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	fs.StringVarP(&cfg.LogFile, "log", "l", "", "Append logs to file")
	fs.BoolVar(&b.negated.noProgress, "no-progress", false, "Hide the progress bar")
}

// Resolve finishes configuration once fs has been parsed: it overlays the
// --config file, re-applies the flags the user passed so they win over the
// file, applies negated flags and validates.
func (b *Binding) Resolve(fs *pflag.FlagSet) error {
	if b.configFile != "" {
		changed := map[string]string{}
		fs.Visit(func(f *pflag.Flag) { changed[f.Name] = f.Value.String() })

		if err := LoadFile(b.configFile, b.cfg); err != nil {
			return err
		}
		for name, v := range changed {
			if err := fs.Set(name, v); err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
		}
	}
	applyNegatedFlags(b.cfg, &b.negated)
	return b.cfg.Validate()
}

// applyNegatedFlags copies negated flag values into cfg (e.g. noSave -> Save=false).
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noDetrend {
		cfg.Detrend = false
	}
	if n.noSave {
		cfg.Save = false
	}
	if n.noPsrcat {
		cfg.Psrcat = ""
	}
	if n.noProgress {
		cfg.Progress = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	}
}

// pflag.Value adapter so ColorMode can be used with fs.Var.

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string { return string(*c.p) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*c.p = ColorAuto
	case "always":
		*c.p = ColorAlways
	case "never":
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}
