package common

import (
	"log/slog"
	"os"
)

// LoggingOpts selects the slog handler and the static attributes attached to every record.
type LoggingOpts struct {
	Debug   bool
	JSON    bool
	Service string
	Version string
}

// SetupLogger builds the process-wide structured logger.
func SetupLogger(opts *LoggingOpts) (log *slog.Logger) {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	if opts.JSON {
		log = slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	} else {
		log = slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	}

	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}

	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}

	return log
}
