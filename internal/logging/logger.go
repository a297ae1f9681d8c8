// Package logging hands out logrus entries tagged with a component field.
// All components share one underlying logger, so Configure applies to
// entries created before and after it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Options controls level, format and sinks.
type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string
	// Stderr is "auto", "always" or "never". Auto writes to stderr unless a
	// file sink is set and stderr is an interactive terminal, or when debug
	// logging is on.
	Stderr string
}

var (
	mu      sync.Mutex
	base    = newBase()
	loggers = make(map[string]*logrus.Entry)
	sink    *os.File
)

func newBase() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("CALLCOMPOSITE_LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// NewLogger returns the cached entry for component.
func NewLogger(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}
	entry := base.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure applies opts to the shared logger.
func Configure(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	levelStr := strings.TrimSpace(opts.Level)
	if env := strings.TrimSpace(os.Getenv("CALLCOMPOSITE_LOG_LEVEL")); env != "" {
		levelStr = env
	}
	level := logrus.InfoLevel
	if levelStr != "" {
		parsed, err := logrus.ParseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", levelStr, err)
		}
		level = parsed
	}
	base.SetLevel(level)

	switch opts.Format {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var writers []io.Writer
	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	if toStderr(opts.Stderr, level, file != nil) {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		base.SetOutput(io.Discard)
	case 1:
		base.SetOutput(writers[0])
	default:
		base.SetOutput(io.MultiWriter(writers...))
	}

	if sink != nil {
		_ = sink.Close()
	}
	sink = file
	return nil
}

// SetOutput redirects the shared logger, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
}

func toStderr(mode string, level logrus.Level, hasFile bool) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if level >= logrus.DebugLevel || !hasFile {
		return true
	}
	interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return !interactive
}
