package logger

import (
	"fmt"
	"strings"
)

// Logger is the printf-style logging surface every component accepts.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Options struct {
	Backend    string
	Level      string
	UseColor   bool
	TimeFormat string
	// File enables rotated file output instead of the console.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds a logger for the named backend: zerolog, slog or std.
func New(opts Options) (Logger, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "zerolog":
		return NewZerologLoggerWithOptions(ZerologOptions{
			UseColor:   opts.UseColor,
			Level:      opts.Level,
			TimeFormat: opts.TimeFormat,
			OutputFile: opts.File,
			MaxSizeMB:  opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAgeDays: opts.MaxAgeDays,
			Compress:   opts.Compress,
		}), nil
	case "slog":
		return NewSlogLoggerWithLevel(opts.Level), nil
	case "std":
		return NewStdLogger(), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

type nopLogger struct{}

// NewNopLogger discards everything.
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
