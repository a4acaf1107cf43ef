package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Trace", "Trace", LevelTrace},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtTrace bool
	}{
		{"info filters debug", "info", false, false},
		{"debug passes debug", "debug", true, false},
		{"trace passes all", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, false, &buf)

			logger.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logAtDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.logAtDebug)
			}

			logger.Log(context.Background(), LevelTrace, "trace message")
			if got := strings.Contains(buf.String(), "trace message"); got != tt.logAtTrace {
				t.Errorf("trace logged = %v, want %v", got, tt.logAtTrace)
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", false, &buf)
	logger.Log(context.Background(), LevelTrace, "sweep")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected level=TRACE, got %q", buf.String())
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", true, &buf)
	logger.Info("learned", "patterns", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "learned" || entry["patterns"] != float64(3) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewEventLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "info")

	if el != nil {
		t.Error("expected nil EventLogger at info level")
	}

	// Nil logger should still be safe to use
	el.Log(Event{Kind: EventLearn})
	el.ObserveLearn(1, time.Millisecond)
	el.ObserveOverlap(1)
	el.Close()

	if _, err := os.Stat(filepath.Join(dir, EventsFile)); err == nil {
		t.Error("events.jsonl should not exist at info level")
	}
}

func readEvents(t *testing.T, dir string) []Event {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, EventsFile))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}
	var events []Event
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("failed to parse JSONL entry %q: %v", line, err)
		}
		events = append(events, e)
	}
	return events
}

func TestEventLogger_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")
	if el == nil {
		t.Fatal("expected EventLogger at debug level")
	}

	el.ObserveLearn(2, 1500*time.Microsecond)
	el.ObserveOverlap(0.5) // dropped below trace
	el.Log(Event{Kind: EventImport, Label: "digits", Source: "digits.hfs"})
	el.Close()

	events := readEvents(t, dir)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Kind != EventLearn || events[0].Patterns != 2 || events[0].DurationUS != 1500 {
		t.Errorf("learn event = %+v", events[0])
	}
	if events[0].Time == "" {
		t.Error("expected time to be filled in")
	}
	if events[1].Kind != EventImport || events[1].Source != "digits.hfs" {
		t.Errorf("import event = %+v", events[1])
	}
}

func TestEventLogger_TraceLevelRecordsOverlap(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "trace")
	el.ObserveOverlap(-0.25)
	el.Close()

	events := readEvents(t, dir)
	if len(events) != 1 || events[0].Kind != EventOverlap {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Overlap == nil || *events[0].Overlap != -0.25 {
		t.Errorf("overlap = %v, want -0.25", events[0].Overlap)
	}
}

func TestEventLogger_LogAfterClose(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")

	el.Log(Event{Kind: "before_close"})
	el.Close()
	el.Log(Event{Kind: "after_close"})
	el.Close()

	events := readEvents(t, dir)
	if len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}

func TestNewEventLogger_CreatesDir(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "sub", "dir")

	el := NewEventLogger(nestedDir, "debug")
	if el == nil {
		t.Fatal("expected non-nil EventLogger when dir needs creation")
	}
	defer el.Close()

	el.Log(Event{Kind: "dir_create_test"})

	info, err := os.Stat(filepath.Join(nestedDir, EventsFile))
	if err != nil {
		t.Fatalf("events.jsonl should exist after dir creation: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}
