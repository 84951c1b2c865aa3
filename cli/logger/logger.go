// Package logger builds the [slog.Logger] of the application from its options.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options are embedded in the CLI options, hence the prefixed names.
type Options struct {
	LogLevel  string `doc:"log from debug, info, warn or error"`
	LogFile   string `doc:"append logs to file, - for stdout"`
	LogFormat string `doc:"format logs as text or json"         default:"text"`
}

func level(option string) (slog.Leveler, bool) {
	switch strings.ToLower(option) {
	case "":
		return nil, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return nil, false
	}
}

func nop() error { return nil }

// New returns a logger for options and a function closing its log file.
// Invalid options are reset to their default and reported as a warning by
// the returned logger.
func New(options *Options) (*slog.Logger, func() error) {
	return newLogger(options, os.Stdout)
}

func newLogger(options *Options, stdout io.Writer) (*slog.Logger, func() error) {
	level, ok := level(options.LogLevel)
	if !ok {
		bad := options.LogLevel
		options.LogLevel = ""
		logger, close := newLogger(options, stdout)
		logger.Warn("could not parse logger level", "level", bad)
		return logger, close
	}
	opts := slog.HandlerOptions{Level: level}

	var handler func(io.Writer, *slog.HandlerOptions) slog.Handler
	switch strings.ToLower(options.LogFormat) {
	case "json":
		handler = func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, o) }
	case "text":
		handler = func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, o) }
	default:
		bad := options.LogFormat
		options.LogFormat = "text"
		logger, close := newLogger(options, stdout)
		logger.Warn("could not parse logger format", "format", bad)
		return logger, close
	}

	switch options.LogFile {
	case "", "-":
		return slog.New(handler(stdout, &opts)), nop
	case os.DevNull:
		return slog.New(slog.DiscardHandler), nop
	}
	f, err := os.OpenFile(options.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		options.LogFile = ""
		logger, close := newLogger(options, stdout)
		logger.Warn("could not open logger file", "err", err)
		return logger, close
	}
	return slog.New(handler(f, &opts)), f.Close
}
