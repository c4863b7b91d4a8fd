// Package logging provides the leveled console logger used by every
// command: colored tags on stdout, errors on stderr, and an optional plain
// append-only log file. It is a thin printf-style layer over zap.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/backmassage/candplot/internal/config"
	"github.com/backmassage/candplot/internal/term"
)

// Levels beyond zap's built-ins. Both sort below Error so they go to stdout.
const (
	successLevel = zapcore.Level(-2)
	outlierLevel = zapcore.Level(-3)
)

// Logger provides leveled, optionally colored logging with optional file sink.
// It is safe for concurrent use.
type Logger struct {
	z    *zap.Logger
	file *os.File
}

// NewLogger configures terminal colors from cfg and optionally opens
// cfg.LogFile. Call Close() when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	var file *os.File
	var fileSink zapcore.WriteSyncer
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		file, fileSink = f, zapcore.AddSync(f)
	}

	z := build(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr), fileSink, term.Enabled())
	return &Logger{z: z, file: file}, nil
}

// build tees a console core per stream plus the optional plain file core.
func build(stdout, stderr, file zapcore.WriteSyncer, color bool) *zap.Logger {
	below := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l < zapcore.ErrorLevel })
	above := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })
	all := zap.LevelEnablerFunc(func(zapcore.Level) bool { return true })

	console := zapcore.NewConsoleEncoder(encoderConfig(color))
	cores := []zapcore.Core{
		zapcore.NewCore(console, stdout, below),
		zapcore.NewCore(console, stderr, above),
	}
	if file != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(false)), file, all))
	}
	return zap.New(zapcore.NewTee(cores...))
}

func encoderConfig(color bool) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeLevel:      levelEncoder(color),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// levelEncoder renders "[INFO]" style tags, colored per level when asked.
func levelEncoder(color bool) zapcore.LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		tag := "[" + levelName(l) + "]"
		if color {
			tag = levelStyle(l).Render(tag)
		}
		enc.AppendString(tag)
	}
}

func levelName(l zapcore.Level) string {
	switch l {
	case successLevel:
		return "SUCCESS"
	case outlierLevel:
		return "OUTLIER"
	}
	return l.CapitalString()
}

func levelStyle(l zapcore.Level) lipgloss.Style {
	switch l {
	case successLevel:
		return term.Green
	case outlierLevel:
		return term.Orange
	case zapcore.DebugLevel:
		return term.Cyan
	case zapcore.InfoLevel:
		return term.Blue
	case zapcore.WarnLevel:
		return term.Yellow
	}
	return term.Red
}

// With returns a child logger that appends key=value to every line. The
// child shares the parent's sinks; only the parent's Close releases them.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{z: l.z.With(zap.Any(key, value))}
}

// Close flushes buffered output and closes the log file if one was opened.
func (l *Logger) Close() error {
	_ = l.z.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) log(level zapcore.Level, format string, args []interface{}) {
	if ce := l.z.Check(level, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(zapcore.InfoLevel, format, args)
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.log(successLevel, format, args)
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(zapcore.WarnLevel, format, args)
}

// Error logs at ERROR level (red) to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(zapcore.ErrorLevel, format, args)
}

// Outlier logs at OUTLIER level (orange).
func (l *Logger) Outlier(format string, args ...interface{}) {
	l.log(outlierLevel, format, args)
}

// Debug logs at DEBUG level (cyan) only when verbose; no-op otherwise.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.log(zapcore.DebugLevel, format, args)
}
