// Package logging builds the process logger.
//
// Components take a [logr.Logger] and never write to stdout themselves. The
// sink is funcr, rendering one timestamped line per call:
//
//	2026-01-02 15:04:05 "level"=0 "msg"="Instance is live" "ip"="203.0.113.10"
//
// Verbosity 0 shows lifecycle progress; 1 adds per-attempt API calls.
package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// TimestampFormat is the layout of the leading timestamp.
const TimestampFormat = "2006-01-02 15:04:05"

// New returns a logger writing to w at the given verbosity.
func New(w io.Writer, verbosity int) logr.Logger {
	var mu sync.Mutex
	return funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{
		LogTimestamp:    true,
		TimestampFormat: TimestampFormat,
		Verbosity:       verbosity,
	})
}

// Warn logs a non-fatal problem. logr has no warning level, so warnings are
// info lines with a "Warning:" message prefix, matching the CLI output style.
func Warn(log logr.Logger, err error, msg string, keysAndValues ...any) {
	kv := append([]any{"error", err.Error()}, keysAndValues...)
	log.Info("Warning: "+msg, kv...)
}
