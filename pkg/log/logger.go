// Package log configures the process-wide zerolog logger.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Setup builds the root logger and installs it as the zerolog global.
// Unknown levels fall back to info. Pretty switches to the console
// writer for local runs.
func Setup(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if pretty {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		logger = zerolog.New(out).With().Timestamp().Logger().Level(lvl)
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
	}

	zlog.Logger = logger
	return logger
}
