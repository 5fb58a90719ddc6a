package cfg

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log output formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

func parseLevel(level string) (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// SetupLogging configures the global zerolog logger from the settings.
func (s *Settings) SetupLogging() error {
	return SetupLogging(s.LogLevel, s.LogFormat, os.Stderr)
}

// SetupLogging sets the global level and points the global logger at out,
// pretty-printed for the console format and as JSON lines otherwise.
func SetupLogging(level, format string, out io.Writer) error {
	l, err := parseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)

	if format == LogFormatConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}
	return nil
}
