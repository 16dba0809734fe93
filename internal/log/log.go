package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// LevelNone is above every level slog emits, silencing the logger.
const LevelNone = slog.Level(100)

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return LevelNone
	}
}

// Writer is the destination behind the default logger: stderr, or a file
// that is reopened on SIGHUP so that it can be rotated away.
type Writer struct {
	mu   sync.Mutex
	path string
	out  io.Writer
	fh   *os.File
	sigs chan os.Signal
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Write(p)
}

func (w *Writer) reopen() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	fh, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if w.fh != nil {
		_ = w.fh.Close()
	}
	w.fh = fh
	w.out = fh
	return nil
}

// Close stops listening for SIGHUP and closes the log file, if any.
func (w *Writer) Close() error {
	if w.sigs != nil {
		signal.Stop(w.sigs)
		close(w.sigs)
		w.sigs = nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fh == nil {
		return nil
	}
	err := w.fh.Close()
	w.fh = nil
	w.out = os.Stderr
	return err
}

/*
 * when logging to a file listen for SIGHUP on log file rotation
 * mv calru.log calru.bak && kill -HUP <pid>
 */
func (w *Writer) setupLogRotation() {
	w.sigs = make(chan os.Signal, 1)
	signal.Notify(w.sigs, syscall.SIGHUP)
	go func(sigs chan os.Signal) {
		for range sigs {
			if err := w.reopen(); err != nil {
				fmt.Fprintf(os.Stderr, "could not reopen log file '%s': %v\n", w.path, err)
			}
		}
	}(w.sigs)
}

// NewWriter opens file for appending, creating parent directories. An empty
// file means stderr. When the file cannot be opened the writer falls back
// to stderr and the error is returned alongside it.
func NewWriter(file string) (*Writer, error) {
	w := &Writer{path: file, out: os.Stderr}
	if file == "" {
		return w, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return w, fmt.Errorf("failed to create log directory for '%s': %w", file, err)
	}
	if err := w.reopen(); err != nil {
		return w, fmt.Errorf("failed to open log file '%s': %w", file, err)
	}
	w.setupLogRotation()
	return w, nil
}

// Setup installs the default slog logger with a JSON (or "text") handler.
func Setup(level, file, format string) (*Writer, error) {
	w, err := NewWriter(file)

	options := &slog.HandlerOptions{
		AddSource: false,
		Level:     ParseLevel(level),
	}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	slog.SetDefault(slog.New(handler))
	return w, err
}
