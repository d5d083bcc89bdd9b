package compiler

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides verbose output for compile decisions.
type Logger struct {
	enabled bool
	sugar   *zap.SugaredLogger
}

// NewLogger creates a logger writing to stderr.
func NewLogger(enabled bool) *Logger {
	l := &Logger{enabled: enabled}
	l.SetOutput(os.Stderr)
	return l
}

// NewZapLogger creates a logger on top of an existing zap logger.
func NewZapLogger(enabled bool, base *zap.Logger) *Logger {
	if base == nil {
		return NewLogger(enabled)
	}
	return &Logger{enabled: enabled, sugar: base.Named("compiler").Sugar()}
}

// SetOutput sets the output writer for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zapcore.DebugLevel)
	l.sugar = zap.New(core).Named("regvm").Sugar()
}

// Log prints a formatted message if verbose mode is enabled.
func (l *Logger) Log(format string, args ...interface{}) {
	if l.enabled {
		l.sugar.Infof(format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l.enabled {
		l.sugar.Infof("=== %s ===", name)
	}
}

// Enabled returns whether the logger is enabled.
func (l *Logger) Enabled() bool {
	return l.enabled
}
