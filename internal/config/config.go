// Package config holds runtime configuration: defaults, an optional YAML
// file, CLI flag binding, and validation. Precedence is defaults, then the
// file, then flags the user actually passed.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [LoadFile], then by flags bound through
// [NewBinding] and applied by [Binding.Resolve].
// Fields are grouped by concern with inline documentation of defaults.
type Config struct {
	// Input (set from the positional arg).
	Pattern string `yaml:"pattern"`

	// Worker pool.
	Workers   int `yaml:"workers"`    // Default: 4.
	ChunkSize int `yaml:"chunk_size"` // Default: 2 paths per dispatch.

	// Rendering.
	Detrend      bool    `yaml:"detrend"`        // Default: true.
	DMRangeScale float64 `yaml:"dm_range_scale"` // Default: 1.0.
	Save         bool    `yaml:"save"`           // Default: true.
	Show         bool    `yaml:"show"`
	Viewer       string  `yaml:"viewer"` // Default: xdg-open, or open on darwin.
	Width        int     `yaml:"width"`  // Default: 1500 px.
	Height       int     `yaml:"height"` // Default: 800 px.
	FileLocking  bool    `yaml:"file_locking"`

	// Behavior.
	SkipExisting bool `yaml:"skip_existing"`
	FailFast     bool `yaml:"fail_fast"`

	// DM catalogue sources, queried in this order. Empty disables a source.
	CatalogFile string `yaml:"catalog_file"` // YAML table.
	CatalogDB   string `yaml:"catalog_db"`   // SQLite database.
	Psrcat      string `yaml:"psrcat"`       // Default: "psrcat".

	// Display and logging.
	Verbose   bool      `yaml:"verbose"`
	Progress  bool      `yaml:"progress"` // Default: true.
	ColorMode ColorMode `yaml:"color"`    // Default: "auto".
	LogFile   string    `yaml:"log_file"`
}

// DefaultConfig returns the batch defaults.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		ChunkSize:    2,
		Detrend:      true,
		DMRangeScale: 1.0,
		Save:         true,
		Viewer:       DefaultViewer(),
		Width:        1500,
		Height:       800,
		Psrcat:       "psrcat",
		Progress:     true,
		ColorMode:    ColorAuto,
	}
}

// DefaultViewer is the platform's "open this file" command.
func DefaultViewer() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

// LoadFile overlays the YAML file at path onto c. Keys not present keep
// their current values; unknown keys are an error.
func LoadFile(path string, c *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges and enum fields. The glob pattern is not required
// here because `candplot check` runs without one.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1 (got %d)", c.Workers)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be at least 1 (got %d)", c.ChunkSize)
	}
	if math.IsNaN(c.DMRangeScale) || math.IsInf(c.DMRangeScale, 0) || c.DMRangeScale < 0 {
		return fmt.Errorf("dm range scale must be a finite non-negative number (got %v)", c.DMRangeScale)
	}
	if c.Width < 100 || c.Height < 100 {
		return fmt.Errorf("figure size %dx%d is too small (minimum 100x100)", c.Width, c.Height)
	}
	if c.Show && strings.TrimSpace(c.Viewer) == "" {
		return errors.New("--show needs a viewer command")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}
	return nil
}
