// Package logging configures the global zerolog logger.
//
// CLI commands log to stderr through a console writer. The popup owns the
// terminal, so while it runs logs go to a file instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Level string
	// File, when set, receives JSON log lines instead of stderr.
	File string
	// Writer overrides both stderr and File (tests).
	Writer io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the global logger and returns a closer for any opened file.
func Setup(opts Options) (io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	switch {
	case opts.Writer != nil:
		log.Logger = zerolog.New(opts.Writer).With().Timestamp().Logger()
		return nopCloser{}, nil
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0750); err != nil {
			return nopCloser{}, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nopCloser{}, fmt.Errorf("opening log file %s: %w", opts.File, err)
		}
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
		return f, nil
	default:
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
		return nopCloser{}, nil
	}
}
