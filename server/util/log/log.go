// Package log is tracehub's structured logging façade: a small set of
// package-level Infof/Warningf/Errorf/Debugf functions backed by
// github.com/rs/zerolog, in the same call-site spirit as the teacher's
// server/util/log package (log.Warningf(...) at the call site, no logger
// object threaded through every function signature).
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// logger is package-global by design, matching the call-site convention
// used throughout the teacher codebase (e.g. server/janitor/janitor.go's
// log.Warningf calls) rather than requiring every component to carry a
// *zerolog.Logger field.
var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// SetWriter replaces the destination zerolog writes to. Tests redirect it
// to a buffer; a caller that wants structured JSON-Lines output (e.g. for
// shipping logs off-box) can pass any zerolog.LevelWriter.
func SetWriter(w zerolog.LevelWriter) {
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel adjusts the minimum level that reaches the writer. Debugf calls
// are dropped entirely below zerolog.DebugLevel, matching the teacher CLI
// log package's verbose-flag gate.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func Debugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}

func Infof(format string, args ...interface{}) {
	logger.Info().Msgf(format, args...)
}

func Warningf(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	logger.Error().Msgf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatal().Msgf(format, args...)
}
