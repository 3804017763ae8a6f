// Package log provides file-backed structured logging for githydra.
//
// The TUI owns stdout and stderr, so all diagnostics go to a log file.
// Logging is disabled (a no-op) until Init or InitWriter is called.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
)

// Category tags a log line with the subsystem that produced it.
type Category string

const (
	CatEngine    Category = "engine"
	CatGit       Category = "git"
	CatQueue     Category = "queue"
	CatScheduler Category = "scheduler"
	CatCache     Category = "cache"
	CatUI        Category = "ui"
	CatConfig    Category = "config"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
	closer io.Closer
)

// Init opens (or creates) the log file at path and routes all subsequent
// log calls to it. Parent directories are created as needed.
func Init(path string, level slog.Level) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	closer = f
	return nil
}

// InitWriter routes log output to an arbitrary writer. Used in tests.
func InitWriter(w io.Writer, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	closer = nil
}

// Close closes the log file, if one is open, and disables logging.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	logger = nil
}

func logAt(level slog.Level, cat Category, msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		return
	}
	l.With("cat", string(cat)).Log(context.Background(), level, msg, args...)
}

// Debug logs at debug level with key/value pairs.
func Debug(cat Category, msg string, args ...any) { logAt(slog.LevelDebug, cat, msg, args...) }

// Info logs at info level with key/value pairs.
func Info(cat Category, msg string, args ...any) { logAt(slog.LevelInfo, cat, msg, args...) }

// Warn logs at warn level with key/value pairs.
func Warn(cat Category, msg string, args ...any) { logAt(slog.LevelWarn, cat, msg, args...) }

// Error logs at error level with key/value pairs.
func Error(cat Category, msg string, args ...any) { logAt(slog.LevelError, cat, msg, args...) }

// SafeGo runs fn on a new goroutine with panic recovery. A panic is logged
// with the goroutine's name and stack instead of crashing the process.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Error(CatEngine, "panic in goroutine",
					"name", name,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
