// Package observe wires structured logging and tracing for the client.
package observe

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/bolt/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

var tracer = otel.Tracer("steamrec")

// Observer handles logging and tracing
type Observer struct {
	log    *bolt.Logger
	closer io.Closer
}

func newObserver(l *bolt.Logger, verbose bool, closer io.Closer) *Observer {
	if !verbose {
		l.SetLevel(bolt.WARN)
	}
	return &Observer{log: l, closer: closer}
}

// New creates a new Observer with console output.
// If verbose is false, only warnings and errors are shown.
func New(out io.Writer, verbose bool) *Observer {
	return newObserver(bolt.New(bolt.NewConsoleHandler(out)), verbose, nil)
}

// NewJSON creates a new Observer with JSON output.
func NewJSON(out io.Writer, verbose bool) *Observer {
	return newObserver(bolt.New(bolt.NewJSONHandler(out)), verbose, nil)
}

// NewFile logs JSON lines to a rotated file. The TUI owns the terminal, so
// interactive sessions log here instead of stdout.
func NewFile(path string, verbose bool) (*Observer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	return newObserver(bolt.New(bolt.NewJSONHandler(rotator)), verbose, rotator), nil
}

// Discard drops every log line. Useful in tests.
func Discard() *Observer {
	return New(io.Discard, false)
}

// Log returns the underlying logger
func (o *Observer) Log() *bolt.Logger {
	return o.log
}

// StartSpan starts a new OTel span
func (o *Observer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// Close flushes and closes the log file, if any.
func (o *Observer) Close() error {
	if o.closer != nil {
		return o.closer.Close()
	}
	return nil
}
