// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides the structured logger shared by the reduction
// services and the sansbatch CLI.
//
// The logger wraps log/slog and fans records out to up to three places:
//
//   - stderr (or any io.Writer), text or JSON, unless Quiet is set
//   - a dated JSON log file under LogDir
//   - a Sink, which sees each record as an Entry
//
// Basic usage:
//
//	logger := logging.New(logging.Config{Level: logging.LevelInfo, Service: "sansbatch"})
//	defer logger.Close()
//	logger.Info("batch started", "batch_id", id, "entries", n)
//
// Use With to bind attributes that every following line should carry:
//
//	entryLogger := logger.With("batch_id", id, "entry", key)
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" onto a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config controls where a Logger writes.
type Config struct {
	// Level is the minimum severity written anywhere.
	Level Level

	// LogDir enables file logging to {Service}_{date}.log. "~" is expanded.
	LogDir string

	// Service is attached to every record as the "service" attribute.
	Service string

	// JSON switches the console handler from text to JSON.
	JSON bool

	// Quiet disables the console handler.
	Quiet bool

	// Output replaces stderr as the console destination.
	Output io.Writer

	// Sink receives a copy of every record at or above Level.
	Sink Sink
}

// Sink receives a copy of each record, for example to keep the messages of
// a batch run for its summary or to assert on them in tests. Record is
// called on the logging goroutine.
type Sink interface {
	Record(entry Entry)
	Close() error
}

// Entry is one record as a Sink sees it.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	Service string         `json:"service,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Logger is a structured logger. The zero value is not usable; use New.
type Logger struct {
	slog  *slog.Logger
	level Level
	name  string
	bound []any
	sink  Sink
	file  *os.File
	mu    sync.Mutex
}

// New builds a Logger from config. Close it to release the log file.
// A LogDir that cannot be created is skipped; the console keeps working.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}
	l := &Logger{level: config.Level, name: config.Service, sink: config.Sink}

	var tee teeHandler
	if !config.Quiet {
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		if config.JSON {
			tee = append(tee, slog.NewJSONHandler(out, opts))
		} else {
			tee = append(tee, slog.NewTextHandler(out, opts))
		}
	}
	if config.LogDir != "" {
		if f, err := openLogFile(config.LogDir, config.Service); err == nil {
			l.file = f
			tee = append(tee, slog.NewJSONHandler(f, opts))
		}
	}

	var h slog.Handler = tee
	switch len(tee) {
	case 0:
		h = slog.NewTextHandler(io.Discard, opts)
	case 1:
		h = tee[0]
	}
	if config.Service != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}
	l.slog = slog.New(h)
	return l
}

// Default returns an info-level stderr logger for the sansbatch service.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "sansbatch"})
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(Config{Quiet: true})
}

func (l *Logger) Debug(msg string, args ...any) { l.emit(LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.emit(LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.emit(LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.emit(LevelError, msg, args) }

// With returns a child logger carrying args on every record, such as the
// batch id and entry key. The parent keeps ownership of the log file.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:  l.slog.With(args...),
		level: l.level,
		name:  l.name,
		bound: slices.Concat(l.bound, args),
		sink:  l.sink,
	}
}

// Slog exposes the underlying slog logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close closes the sink and the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.sink != nil {
		errs = append(errs, l.sink.Close())
		l.sink = nil
	}
	if l.file != nil {
		errs = append(errs, l.file.Close())
		l.file = nil
	}
	return errors.Join(errs...)
}

func (l *Logger) emit(level Level, msg string, args []any) {
	l.slog.Log(context.Background(), level.slogLevel(), msg, args...)
	if l.sink == nil || level < l.level {
		return
	}
	l.sink.Record(Entry{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
		Service: l.name,
		Attrs:   pairs(l.bound, args),
	})
}

// openLogFile appends to today's file for service under dir.
func openLogFile(dir, service string) (*os.File, error) {
	if rest, ok := strings.CutPrefix(dir, "~"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, rest)
		}
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	if service == "" {
		service = "sansbatch"
	}
	name := service + "_" + time.Now().Format(time.DateOnly) + ".log"
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
}

// teeHandler writes each record to every handler that accepts its level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(t, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t teeHandler) each(fn func(slog.Handler) slog.Handler) teeHandler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}

// pairs folds key/value argument lists into one map; later keys win and
// non-string keys are dropped.
func pairs(lists ...[]any) map[string]any {
	out := make(map[string]any)
	for _, args := range lists {
		for i := 0; i+1 < len(args); i += 2 {
			if k, ok := args[i].(string); ok {
				out[k] = args[i+1]
			}
		}
	}
	return out
}

// MemorySink keeps every record it is handed.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Record(entry Entry) {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
}

func (m *MemorySink) Close() error { return nil }

// Entries returns a copy of everything recorded so far.
func (m *MemorySink) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Messages returns the message of every recorded entry, in order.
func (m *MemorySink) Messages() []string {
	var out []string
	for _, e := range m.Entries() {
		out = append(out, e.Message)
	}
	return out
}

var _ Sink = (*MemorySink)(nil)
