package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ZerologLogger struct {
	logger zerolog.Logger
}

type ZerologOptions struct {
	UseColor   bool
	Level      string
	TimeFormat string
	OutputFile string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Writer overrides every other output setting when non-nil.
	Writer io.Writer
}

func NewZerologLogger() Logger {
	return NewZerologLoggerWithOptions(ZerologOptions{
		UseColor:   true,
		Level:      "debug",
		TimeFormat: "15:04:05",
	})
}

func NewZerologLoggerWithOptions(opts ZerologOptions) Logger {
	var out io.Writer
	switch {
	case opts.Writer != nil:
		out = opts.Writer
	case opts.OutputFile != "":
		if opts.MaxSizeMB == 0 {
			opts.MaxSizeMB = 10
		}
		out = &lumberjack.Logger{
			Filename:   opts.OutputFile,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
	case opts.UseColor:
		timeFormat := opts.TimeFormat
		if timeFormat == "" {
			timeFormat = "15:04:05"
		}
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: timeFormat,
		}
	default:
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.DebugLevel
	}

	return &ZerologLogger{
		logger: zerolog.New(out).With().Timestamp().Logger().Level(level),
	}
}

func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.logger.Debug().Msg(fmt.Sprintf(msg, args...))
}

func (l *ZerologLogger) Info(msg string, args ...any) {
	l.logger.Info().Msg(fmt.Sprintf(msg, args...))
}

func (l *ZerologLogger) Warn(msg string, args ...any) {
	l.logger.Warn().Msg(fmt.Sprintf(msg, args...))
}

func (l *ZerologLogger) Error(msg string, args ...any) {
	l.logger.Error().Msg(fmt.Sprintf(msg, args...))
}
