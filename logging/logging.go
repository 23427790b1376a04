// Package logging provides category-scoped zap loggers for canvas.
// The TUI owns the terminal, so logs go to a file; until Initialize is
// called every logger is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a subsystem; it becomes the zap logger name.
type Category string

const (
	CategoryBoot      Category = "boot"
	CategoryAPI       Category = "api"
	CategoryChat      Category = "chat"
	CategoryNormalize Category = "normalize"
	CategoryDiagram   Category = "diagram"
	CategoryTUI       Category = "tui"
	CategoryStore     Category = "store"
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level string // debug, info, warn, error
	File  string // empty disables file output
}

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Initialize builds the root logger. Verbose forces debug level.
func Initialize(opts Options, verbose bool) (*zap.Logger, error) {
	if opts.File == "" {
		return L(), nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{opts.File}
	cfg.ErrorOutputPaths = []string{opts.File}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	Set(logger)
	Get(CategoryBoot).Info("logging initialized",
		zap.String("file", opts.File),
		zap.Stringer("level", level))
	return logger, nil
}

// Set replaces the root logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	root = l
	mu.Unlock()
}

// L returns the root logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Get returns the logger for a category.
func Get(cat Category) *zap.Logger {
	return L().Named(string(cat))
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}
