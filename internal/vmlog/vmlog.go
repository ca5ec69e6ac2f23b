// Package vmlog wraps zap with the grouped, leveled logging shape the
// scheduler pools and main's startup error paths log through; the Kernel
// also hands each process a grouped child logger, though the dispatch loop
// emits no log entries. Program output (the print/echo instructions) goes
// through fmt/stdout directly instead.
package vmlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin handle around a *zap.Logger plus whatever grouped
// fields have accumulated via Group, so call sites can build up context
// (pid, instruction, opcode) incrementally without passing a field slice
// through every function signature.
type Logger struct {
	base *zap.Logger
}

// New builds a Logger. verbose selects Debug level; otherwise Info.
func New(verbose bool) *Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return &Logger{base: logger}
}

// Nop returns a Logger that discards everything, used in tests that don't
// care about trace output.
func Nop() *Logger { return &Logger{base: zap.NewNop()} }

func toFields(kv []any) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
	return fields
}

// Group returns a child Logger with the given key/value pairs attached to
// every subsequent entry, e.g. vmlog.Group("process", "pid", pid, "quantum",
// remaining).
func (l *Logger) Group(key string, kv ...any) *Logger {
	return &Logger{base: l.base.With(zap.Namespace(key)).With(toFields(kv)...)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.base.Debug(msg, toFields(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.base.Info(msg, toFields(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.base.Warn(msg, toFields(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.base.Error(msg, toFields(kv)...) }

// Fatal logs at error level, flushes, and exits with code 1, matching the
// Kernel's "fatal runtime errors terminate with diagnostic + exit code 1"
// requirement.
func (l *Logger) Fatal(msg string, kv ...any) {
	l.base.Error(msg, toFields(kv)...)
	l.base.Sync()
	os.Exit(1)
}

// Sync flushes any buffered log entries, called once at Kernel shutdown.
func (l *Logger) Sync() error { return l.base.Sync() }
