// Package logging provides leveled logging and event tracing for hopfield.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An EventLogger for structured JSONL memory events (.hopfield/events.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// EventsFile is the name of the JSONL event trace inside the data directory.
const EventsFile = "events.jsonl"

// LevelTrace is a custom slog level below Debug. At this level every
// overlap measurement is traced, not only learn events.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing text to w, or JSON when
// jsonOutput is set.
func NewLogger(level string, jsonOutput bool, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Event is one line of the event trace.
type Event struct {
	Time       string   `json:"time"`
	Kind       string   `json:"event"`
	Patterns   int      `json:"patterns,omitempty"`
	DurationUS int64    `json:"duration_us,omitempty"`
	Overlap    *float64 `json:"overlap,omitempty"`
	Label      string   `json:"label,omitempty"`
	Source     string   `json:"source,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

// Event kinds.
const (
	EventLearn   = "learn"
	EventOverlap = "overlap"
	EventRecall  = "recall"
	EventImport  = "import"
)

// EventLogger writes memory events to a JSONL file. It is safe for
// concurrent use. A nil EventLogger is safe to use; all methods are no-ops
// on a nil receiver.
type EventLogger struct {
	mu     sync.Mutex
	file   *os.File
	traced bool
}

// NewEventLogger creates an event logger writing to dir/events.jsonl.
// At "info" level (the default) it returns nil and no file is created.
// Overlap events are only written at "trace".
// Returns nil if the file cannot be opened.
func NewEventLogger(dir string, level string) *EventLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, EventsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &EventLogger{file: f, traced: lvl <= LevelTrace}
}

// Log writes e as a single JSONL line. Time is filled in when empty.
func (el *EventLogger) Log(e Event) {
	if el == nil {
		return
	}
	if e.Time == "" {
		e.Time = time.Now().UTC().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	data = append(data, '\n')

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file == nil {
		return
	}
	_, _ = el.file.Write(data)
}

// ObserveLearn records a learn event.
func (el *EventLogger) ObserveLearn(patterns int, d time.Duration) {
	el.Log(Event{Kind: EventLearn, Patterns: patterns, DurationUS: d.Microseconds()})
}

// ObserveOverlap records an overlap event at trace level.
func (el *EventLogger) ObserveOverlap(overlap float64) {
	if el == nil || !el.traced {
		return
	}
	el.Log(Event{Kind: EventOverlap, Overlap: &overlap})
}

// Close closes the underlying file. Safe to call on nil receiver.
func (el *EventLogger) Close() {
	if el == nil {
		return
	}

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file == nil {
		return
	}
	el.file.Close()
	el.file = nil
}
