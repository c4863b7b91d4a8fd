package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/backmassage/candplot/internal/config"
	"github.com/backmassage/candplot/internal/term"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "candplot.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	l.Error("also to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("[INFO] to file")) || !bytes.Contains(b, []byte("[ERROR] also to file")) {
		t.Errorf("log file content: %s", string(b))
	}
}

type sinks struct {
	out, err, file bytes.Buffer
}

func newTestLogger(color bool) (*Logger, *sinks) {
	s := &sinks{}
	z := build(zapcore.AddSync(&s.out), zapcore.AddSync(&s.err), zapcore.AddSync(&s.file), color)
	return &Logger{z: z}, s
}

func TestLevels(t *testing.T) {
	l, s := newTestLogger(false)

	l.Info("rendering %d files", 3)
	l.Success("done")
	l.Warn("careful")
	l.Outlier("snr %.1f", 42.0)
	l.Debug(false, "hidden")
	l.Debug(true, "shown")
	l.Error("broken")

	line := regexp.MustCompile(`^\d{4}-\d\d-\d\d \d\d:\d\d:\d\d \[INFO\] rendering 3 files$`)
	first := strings.SplitN(s.out.String(), "\n", 2)[0]
	if !line.MatchString(first) {
		t.Errorf("first stdout line = %q", first)
	}

	for _, want := range []string{"[SUCCESS] done", "[WARN] careful", "[OUTLIER] snr 42.0", "[DEBUG] shown"} {
		if !strings.Contains(s.out.String(), want) {
			t.Errorf("stdout missing %q:\n%s", want, s.out.String())
		}
	}
	if strings.Contains(s.out.String(), "hidden") {
		t.Error("Debug(false) should not log")
	}
	if strings.Contains(s.out.String(), "broken") {
		t.Error("errors should not go to stdout")
	}
	if !strings.Contains(s.err.String(), "[ERROR] broken") {
		t.Errorf("stderr = %q", s.err.String())
	}
	if n := strings.Count(s.file.String(), "\n"); n != 6 {
		t.Errorf("file has %d lines, want 6:\n%s", n, s.file.String())
	}
}

func TestWith(t *testing.T) {
	l, s := newTestLogger(false)
	l.With("file", "cand_001.h5").Warn("skipped")
	if !strings.Contains(s.out.String(), `[WARN] skipped {"file": "cand_001.h5"}`) {
		t.Errorf("stdout = %q", s.out.String())
	}
	if err := l.With("k", 1).Close(); err != nil {
		t.Errorf("child Close = %v", err)
	}
}

func TestColor(t *testing.T) {
	term.Configure(config.ColorAlways)
	t.Cleanup(func() { term.Configure(config.ColorNever) })

	l, s := newTestLogger(true)
	l.Info("colored")
	if !strings.Contains(s.out.String(), "\x1b[") {
		t.Errorf("stdout should carry ANSI escapes: %q", s.out.String())
	}
	if strings.Contains(s.file.String(), "\x1b[") {
		t.Errorf("file should stay plain: %q", s.file.String())
	}
}
