// Package logging builds the structured logger used across troupe.
package logging

import (
	"fmt"
	"io"
	"os"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"

	"github.com/najoast/troupe/config"
)

// New creates a logger writing to w as described by cfg. Fields are
// attached to every entry.
func New(cfg config.LogConfig, w io.Writer) (log.Logger, error) {
	level, err := zerolog.ParseLevel(string(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidLogLevel, cfg.Level)
	}

	opts := []log.Option{
		log.LevelOption(level),
		log.ColorOption(cfg.Color),
	}
	if cfg.Format == "json" {
		opts = append(opts, log.OutputJSONOption())
	}

	logger := log.NewLogger(w, opts...)
	if len(cfg.Fields) > 0 {
		kv := make([]any, 0, 2*len(cfg.Fields))
		for k, v := range cfg.Fields {
			kv = append(kv, k, v)
		}
		logger = logger.With(kv...)
	}
	return logger, nil
}

// Open resolves the configured output and builds the logger. The returned
// closer releases the output file, if one was opened.
func Open(cfg config.LogConfig) (log.Logger, io.Closer, error) {
	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log output: %w", err)
		}
		w, closer = f, f
	}

	logger, err := New(cfg, w)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
