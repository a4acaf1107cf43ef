// Package workspace ties a project's pattern store to a live memory. Opening
// a workspace replays every stored pattern so the couplings are rebuilt
// exactly as they were learned.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nvandessel/hopfield/internal/config"
	"github.com/nvandessel/hopfield/internal/hopfield"
	"github.com/nvandessel/hopfield/internal/logging"
	"github.com/nvandessel/hopfield/internal/metrics"
	"github.com/nvandessel/hopfield/internal/pattern"
	"github.com/nvandessel/hopfield/internal/sanitize"
	"github.com/nvandessel/hopfield/internal/snapshot"
	"github.com/nvandessel/hopfield/internal/store"
)

// ErrNotInitialized is returned by Open when the root has no network.
var ErrNotInitialized = errors.New("hopfield not initialized (run 'hopfield init')")

// Workspace is an open project: its store, its memory and the observers
// attached to the memory.
type Workspace struct {
	Root    string
	Config  *config.HopfieldConfig
	Store   store.PatternStore
	Memory  *hopfield.Memory
	Metrics *metrics.Recorder

	meta      store.Meta
	events    *logging.EventLogger
	logger    *slog.Logger
	replaying bool
}

// Init creates the network described by cfg.Network under root and opens it.
// Initializing an existing network with the same shape is a no-op.
func Init(ctx context.Context, root string, cfg *config.HopfieldConfig, logger *slog.Logger) (*Workspace, error) {
	shape, err := pattern.NewShape(cfg.Network.Shape...)
	if err != nil {
		return nil, err
	}

	s, err := store.NewSQLiteStore(root)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx, store.Meta{Shape: shape, Seed: cfg.Network.Seed}); err != nil {
		s.Close()
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return open(ctx, root, s, cfg, logger)
}

// Open opens the network under root and replays its patterns.
func Open(ctx context.Context, root string, cfg *config.HopfieldConfig, logger *slog.Logger) (*Workspace, error) {
	if _, err := os.Stat(store.DatabasePath(root)); os.IsNotExist(err) {
		return nil, ErrNotInitialized
	}
	s, err := store.NewSQLiteStore(root)
	if err != nil {
		return nil, err
	}
	return open(ctx, root, s, cfg, logger)
}

func open(ctx context.Context, root string, s store.PatternStore, cfg *config.HopfieldConfig, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	meta, err := s.Meta(ctx)
	if err != nil {
		s.Close()
		if errors.Is(err, store.ErrNotInitialized) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("reading network meta: %w", err)
	}

	w := &Workspace{
		Root:    root,
		Config:  cfg,
		Store:   s,
		Metrics: metrics.NewRecorder(),
		meta:    meta,
		events:  logging.NewEventLogger(store.LocalDataPath(root), cfg.Logging.Level),
		logger:  logger,
	}

	opts := []hopfield.Option{hopfield.WithLogger(logger), hopfield.WithObserver(w)}
	if meta.Seed != nil {
		opts = append(opts, hopfield.WithSeed(*meta.Seed))
	}
	w.Memory, err = hopfield.New(meta.Shape, opts...)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("creating memory: %w", err)
	}

	if err := w.replay(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Workspace) replay(ctx context.Context) error {
	start := time.Now()
	records, err := w.Store.Patterns(ctx)
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	w.replaying = true
	defer func() { w.replaying = false }()
	for _, rec := range records {
		if err := w.Memory.Learn(rec.Pattern); err != nil {
			return fmt.Errorf("replaying pattern %d: %w", rec.Seq, err)
		}
	}

	w.logger.Debug("replayed patterns",
		"count", len(records),
		"shape", w.meta.Shape.String(),
		"duration", time.Since(start),
	)
	return nil
}

// ObserveLearn forwards to the metrics recorder and, outside of replay, to
// the event log.
func (w *Workspace) ObserveLearn(patterns int, d time.Duration) {
	w.Metrics.ObserveLearn(patterns, d)
	if !w.replaying {
		w.events.ObserveLearn(patterns, d)
	}
}

// ObserveOverlap forwards to the metrics recorder and the event log.
func (w *Workspace) ObserveOverlap(overlap float64) {
	w.Metrics.ObserveOverlap(overlap)
	w.events.ObserveOverlap(overlap)
}

// Meta returns the network meta.
func (w *Workspace) Meta() store.Meta {
	return w.meta
}

// Learn persists p with a sanitized label and source, then learns it. A
// pattern of the wrong shape is rejected before anything is written, and a
// failed write leaves the memory untouched.
func (w *Workspace) Learn(ctx context.Context, p pattern.Pattern, label, source string) (store.Record, error) {
	if want := w.Memory.Shape(); !p.Shape().Equal(want) {
		return store.Record{}, &pattern.ShapeMismatchError{Want: want.Dims(), Got: p.Shape().Dims()}
	}

	label, source = sanitize.Label(label), sanitize.Source(source)
	rec, err := w.Store.AddPattern(ctx, store.Record{Pattern: p, Label: label, Source: source})
	if err != nil {
		return store.Record{}, fmt.Errorf("persisting pattern: %w", err)
	}
	if err := w.Memory.Learn(p); err != nil {
		return store.Record{}, fmt.Errorf("learning pattern %d: %w", rec.Seq, err)
	}
	w.logger.Info("learned pattern", "seq", rec.Seq, "label", label, "source", source)
	return rec, nil
}

// Snapshot captures the memory's state along with stored labels and sources.
func (w *Workspace) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	records, err := w.Store.Patterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patterns: %w", err)
	}
	state := w.Memory.State()
	if len(records) != len(state.Patterns) {
		return nil, fmt.Errorf("store has %d patterns, memory has %d", len(records), len(state.Patterns))
	}

	entries := make([]snapshot.Entry, len(records))
	for i, rec := range records {
		entries[i] = snapshot.Entry{Label: rec.Label, Source: rec.Source}
	}
	return snapshot.New(state, w.meta.Seed, entries), nil
}

// Import verifies s and learns its patterns, in order, on top of the
// current memory. It returns the number of patterns learned.
func (w *Workspace) Import(ctx context.Context, s *snapshot.Snapshot) (int, error) {
	if !w.meta.Shape.Equal(pattern.Shape(s.Shape)) {
		return 0, &pattern.ShapeMismatchError{Want: w.meta.Shape.Dims(), Got: s.Shape}
	}
	if _, err := s.Restore(); err != nil {
		return 0, fmt.Errorf("verifying snapshot: %w", err)
	}
	patterns, err := s.DecodePatterns()
	if err != nil {
		return 0, err
	}

	for i, p := range patterns {
		e := s.Patterns[i]
		if _, err := w.Learn(ctx, p, e.Label, e.Source); err != nil {
			return i, fmt.Errorf("importing pattern %d: %w", i, err)
		}
	}
	w.events.Log(logging.Event{Kind: logging.EventImport, Patterns: len(patterns)})
	return len(patterns), nil
}

// LogEvent appends e to the event log when event logging is enabled.
func (w *Workspace) LogEvent(e logging.Event) {
	w.events.Log(e)
}

// Close releases the store and the event log.
func (w *Workspace) Close() error {
	w.events.Close()
	return w.Store.Close()
}
