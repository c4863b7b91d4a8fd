package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workers != 4 || cfg.ChunkSize != 2 {
		t.Errorf("default pool = %d workers, chunk %d; want 4, 2", cfg.Workers, cfg.ChunkSize)
	}
	if !cfg.Detrend || !cfg.Save || cfg.Show {
		t.Errorf("default render flags detrend=%v save=%v show=%v", cfg.Detrend, cfg.Save, cfg.Show)
	}
	if cfg.DMRangeScale != 1.0 {
		t.Errorf("default DMRangeScale = %v, want 1", cfg.DMRangeScale)
	}
	if cfg.Width != 1500 || cfg.Height != 800 {
		t.Errorf("default size = %dx%d, want 1500x800", cfg.Width, cfg.Height)
	}
	if cfg.FileLocking {
		t.Error("default FileLocking should be false")
	}
	if cfg.Viewer == "" {
		t.Error("default Viewer should be set")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"one worker", func(c *Config) { c.Workers = 1 }, false},
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }, true},
		{"negative dm scale", func(c *Config) { c.DMRangeScale = -0.5 }, true},
		{"zero dm scale", func(c *Config) { c.DMRangeScale = 0 }, false},
		{"nan dm scale", func(c *Config) { c.DMRangeScale = math.NaN() }, true},
		{"tiny figure", func(c *Config) { c.Width = 10 }, true},
		{"show without viewer", func(c *Config) { c.Show, c.Viewer = true, " " }, true},
		{"empty color mode", func(c *Config) { c.ColorMode = "" }, true},
		{"unknown color mode", func(c *Config) { c.ColorMode = "sometimes" }, true},
		{"never color mode", func(c *Config) { c.ColorMode = ColorNever }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candplot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "workers: 8\ndetrend: false\ncatalog_db: /data/dm.sqlite\ncolor: never\n")

	cfg := DefaultConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	want := DefaultConfig()
	want.Workers = 8
	want.Detrend = false
	want.CatalogDB = "/data/dm.sqlite"
	want.ColorMode = ColorNever
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadFile mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("LoadFile should fail for a missing file")
	}
	if err := LoadFile(writeFile(t, "wrokers: 3\n"), &cfg); err == nil {
		t.Error("LoadFile should reject unknown keys")
	}
	if err := LoadFile(writeFile(t, "workers: many\n"), &cfg); err == nil {
		t.Error("LoadFile should reject a mistyped value")
	}
}

func TestLoadFile_Empty(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadFile(writeFile(t, ""), &cfg); err != nil {
		t.Fatalf("LoadFile(empty) = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("empty file changed config (-want +got):\n%s", diff)
	}
}

// parse binds every flag group on a fresh FlagSet, parses args and resolves.
func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	cfg := DefaultConfig()
	b := NewBinding(&cfg)
	fs := pflag.NewFlagSet("candplot", pflag.ContinueOnError)
	b.DefineGlobal(fs)
	b.DefineRender(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	err := b.Resolve(fs)
	return cfg, err
}

func TestDefineRender_DetrendUsage(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("candplot", pflag.ContinueOnError)
	NewBinding(&cfg).DefineRender(fs)

	usage := fs.Lookup("no-detrend").Usage
	if !strings.Contains(usage, "linear trend along time") || strings.Contains(usage, "median") {
		t.Errorf("--no-detrend usage = %q", usage)
	}
}

func TestResolve_Flags(t *testing.T) {
	cfg, err := parse(t, "-j", "2", "--chunk-size=5", "--no-detrend", "--no-save", "--no-psrcat",
		"--dm-range-scale", "0.5", "--no-color", "-v", "--no-progress")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := DefaultConfig()
	want.Workers = 2
	want.ChunkSize = 5
	want.Detrend = false
	want.Save = false
	want.Psrcat = ""
	want.DMRangeScale = 0.5
	want.ColorMode = ColorNever
	want.Verbose = true
	want.Progress = false
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "workers: 8\nchunk_size: 3\ndetrend: false\nwidth: 1000\n")

	cfg, err := parse(t, "--config", path, "--workers", "2", "--width=1200")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want flag value 2", cfg.Workers)
	}
	if cfg.Width != 1200 {
		t.Errorf("Width = %d, want flag value 1200", cfg.Width)
	}
	if cfg.ChunkSize != 3 {
		t.Errorf("ChunkSize = %d, want file value 3", cfg.ChunkSize)
	}
	if cfg.Detrend {
		t.Error("Detrend should come from the file (false)")
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad color", []string{"--color", "rainbow"}},
		{"zero workers", []string{"--workers", "0"}},
		{"missing config", []string{"--config", "/nonexistent/candplot.yaml"}},
		{"negative scale", []string{"--dm-range-scale=-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse(t, tt.args...); err == nil {
				t.Errorf("parse(%v) should fail", tt.args)
			}
		})
	}
}

func TestColorModeValue(t *testing.T) {
	var m ColorMode
	v := &colorModeValue{&m}
	if err := v.Set("ALWAYS"); err != nil || m != ColorAlways {
		t.Errorf("Set(ALWAYS) = %v, mode %q", err, m)
	}
	if v.String() != "always" || v.Type() != "mode" {
		t.Errorf("String/Type = %q/%q", v.String(), v.Type())
	}
	if err := v.Set("rarely"); err == nil {
		t.Error("Set(rarely) should fail")
	}
}
