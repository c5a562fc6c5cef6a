// pkg/logging/logging.go
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logWriter stores the current log writer globally.
var logWriter io.Writer

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logWriter = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// Configure configures the global zerolog logger from a level string and a
// format ("text" or "json"). Invalid levels fall back to info.
func Configure(levelStr, format string) {
	level := parseLogLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	w := logWriter
	if strings.EqualFold(format, "json") {
		w = os.Stderr
	}

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger
}

// parseLogLevel converts a string log level to zerolog.Level.
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "info"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to info level.")
		return zerolog.InfoLevel
	}
	return level
}

// SetLogWriter sets the global log writer. Tests use this to capture output.
func SetLogWriter(w io.Writer) {
	logWriter = w
}
