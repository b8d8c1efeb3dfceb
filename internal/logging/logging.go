// Package logging builds the zerolog logger shared by the CLI and the
// pipeline. Console output for interactive use, plain JSON otherwise.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New constructs the root logger. When console is true, output is
// human-readable; otherwise structured JSON lines go to stderr so the
// batch report on stdout stays machine-parseable.
func New(level string, console bool) (zerolog.Logger, error) {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var writer io.Writer = os.Stderr
	if console {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(writer).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", "canon").
		Logger()

	return logger, nil
}
