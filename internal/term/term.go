// Package term provides color styles and terminal detection.
//
// Styles are package-level variables because multiple packages (logging,
// display) need them for output formatting. [Configure] sets them once
// during startup; when colors are disabled the lipgloss color profile is
// ASCII and every style renders its input unchanged.
package term

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/backmassage/candplot/internal/config"
)

// Bold foreground styles.
var (
	Red     = lipgloss.NewStyle()
	Green   = lipgloss.NewStyle()
	Yellow  = lipgloss.NewStyle()
	Orange  = lipgloss.NewStyle()
	Blue    = lipgloss.NewStyle()
	Cyan    = lipgloss.NewStyle()
	Magenta = lipgloss.NewStyle()
)

var enabled bool

// Configure resolves the color mode and sets the package-level styles.
// Call once during startup (from [logging.NewLogger]).
func Configure(mode config.ColorMode) {
	enabled = resolve(mode)
	if enabled {
		lipgloss.SetColorProfile(termenv.ANSI256)
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	Red = bold("9")
	Green = bold("10")
	Yellow = bold("11")
	Orange = bold("208")
	Blue = bold("12")
	Cyan = bold("14")
	Magenta = bold("13")
}

func bold(c string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c))
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return enabled }

// resolve determines whether colors should be enabled based on the configured
// mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
