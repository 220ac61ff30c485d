// Package logging builds the zerolog logger of the command line.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stderr" validate:"required"` // stdout, stderr, or file path

	// Writer, when set, replaces Output.
	Writer io.Writer `yaml:"-"`
}

// New returns a logger writing to the configured output. The returned
// closer releases the log file, if any.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level: %w", err)
	}

	var closer io.Closer = nopCloser{}
	output := cfg.Writer
	if output == nil {
		switch cfg.Output {
		case "stdout":
			output = os.Stdout
		case "stderr", "":
			output = os.Stderr
		default:
			file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return zerolog.Nop(), nil, fmt.Errorf("could not open log file: %w", err)
			}
			output, closer = file, file
		}
	}

	switch cfg.Format {
	case "console", "":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.TimeOnly}
	case "json":
	default:
		closer.Close()
		return zerolog.Nop(), nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
