// Package logging builds the application logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure New.
type Options struct {
	Level  string
	Format string
	// File, when set, receives logs through a size-rotated writer.
	File string
	// Out is used when File is empty. Defaults to stderr.
	Out io.Writer
}

// New returns a logger and a closer for its output.
func New(opt Options) (*log.Logger, io.Closer, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, nil, err
	}
	formatter, err := ParseFormatter(opt.Format)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = opt.Out
		closer io.Closer = nopCloser{}
	)
	if opt.File != "" {
		if err := os.MkdirAll(filepath.Dir(opt.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rotated := &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out, closer = rotated, rotated
	}
	if out == nil {
		out = os.Stderr
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: opt.File != "",
		Prefix:          "tada",
	})
	return logger, closer, nil
}

// ParseLevel maps a level name onto a log.Level. Empty means warn.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning", "":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

// ParseFormatter maps a format name onto a log.Formatter. Empty means text.
func ParseFormatter(format string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return 0, fmt.Errorf("unknown log format %q", format)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
