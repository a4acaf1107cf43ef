package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/hopfield/internal/config"
	"github.com/nvandessel/hopfield/internal/logging"
	"github.com/nvandessel/hopfield/internal/pattern"
	"github.com/nvandessel/hopfield/internal/store"
)

func testConfig(shape ...int) *config.HopfieldConfig {
	cfg := config.Default()
	cfg.Network.Shape = shape
	return cfg
}

func TestOpen_NotInitialized(t *testing.T) {
	root := t.TempDir()

	_, err := Open(context.Background(), root, config.Default(), nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Open() error = %v, want ErrNotInitialized", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".hopfield")); !os.IsNotExist(err) {
		t.Error("Open() created .hopfield in an uninitialized root")
	}
}

func TestInit_RejectsBadShape(t *testing.T) {
	_, err := Init(context.Background(), t.TempDir(), testConfig(2, 0), nil)
	if !errors.Is(err, pattern.ErrShape) {
		t.Errorf("Init() error = %v, want ErrShape", err)
	}
}

func TestWorkspace_LearnPersistsAndReplays(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	seed := uint64(11)
	cfg := testConfig(2, 2)
	cfg.Network.Seed = &seed

	ws, err := Init(ctx, root, cfg, nil)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	patterns := []pattern.Pattern{
		pattern.MustParse("#.\n.#"),
		pattern.MustParse("##\n.."),
		pattern.MustParse("#.\n#."),
	}
	for i, p := range patterns {
		rec, err := ws.Learn(ctx, p, "", "")
		if err != nil {
			t.Fatalf("Learn(%d) error = %v", i, err)
		}
		if rec.Seq != i+1 {
			t.Errorf("Learn(%d).Seq = %d", i, rec.Seq)
		}
	}
	want := ws.Memory.Weights()
	if err := ws.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(ctx, root, cfg, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	if reopened.Memory.PatternCount() != 3 {
		t.Fatalf("PatternCount() = %d, want 3", reopened.Memory.PatternCount())
	}
	got := reopened.Memory.Weights()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if got.At(i, j) != want.At(i, j) {
				t.Errorf("W[%d][%d] = %v after replay, want %v", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
	if meta := reopened.Meta(); meta.Seed == nil || *meta.Seed != 11 {
		t.Errorf("Meta().Seed = %v, want 11", meta.Seed)
	}
}

func TestWorkspace_LearnMismatchPersistsNothing(t *testing.T) {
	ctx := context.Background()
	ws, err := open(ctx, t.TempDir(), initializedMemoryStore(t, 2, 2), config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	_, err = ws.Learn(ctx, pattern.MustParse("#.#"), "", "")
	if !errors.Is(err, pattern.ErrShapeMismatch) {
		t.Fatalf("Learn() error = %v, want ErrShapeMismatch", err)
	}
	n, err := ws.Store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || ws.Memory.PatternCount() != 0 {
		t.Errorf("store has %d, memory has %d patterns, want 0", n, ws.Memory.PatternCount())
	}
}

// failingStore rejects every write.
type failingStore struct {
	*store.InMemoryStore
}

func (failingStore) AddPattern(context.Context, store.Record) (store.Record, error) {
	return store.Record{}, errors.New("disk full")
}

func TestWorkspace_LearnWriteFailureLeavesMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	ws, err := open(ctx, t.TempDir(), failingStore{initializedMemoryStore(t, 2, 2)}, config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	_, err = ws.Learn(ctx, pattern.MustParse("#.\n.#"), "diag", "")
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Learn() error = %v, want disk full", err)
	}
	if ws.Memory.PatternCount() != 0 {
		t.Errorf("memory has %d patterns after failed write, want 0", ws.Memory.PatternCount())
	}
	if _, err := ws.Snapshot(ctx); err != nil {
		t.Errorf("Snapshot() after failed write: %v", err)
	}
}

func initializedMemoryStore(t *testing.T, shape ...int) *store.InMemoryStore {
	t.Helper()
	s := store.NewInMemoryStore()
	if err := s.Init(context.Background(), store.Meta{Shape: pattern.MustShape(shape...)}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWorkspace_SnapshotAndImport(t *testing.T) {
	ctx := context.Background()
	src, err := open(ctx, t.TempDir(), initializedMemoryStore(t, 3), config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if _, err := src.Learn(ctx, pattern.MustParse("#.#"), "ends", "a.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Learn(ctx, pattern.MustParse(".#."), "middle", ""); err != nil {
		t.Fatal(err)
	}

	snap, err := src.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Patterns) != 2 || snap.Patterns[0].Label != "ends" || snap.Patterns[0].Source != "a.txt" {
		t.Errorf("snapshot entries = %+v", snap.Patterns)
	}

	dst, err := open(ctx, t.TempDir(), initializedMemoryStore(t, 3), config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()

	n, err := dst.Import(ctx, snap)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Import() = %d, want 2", n)
	}
	recs, err := dst.Store.Patterns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1].Label != "middle" {
		t.Errorf("imported records = %+v", recs)
	}

	other, err := open(ctx, t.TempDir(), initializedMemoryStore(t, 4), config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if _, err := other.Import(ctx, snap); !errors.Is(err, pattern.ErrShapeMismatch) {
		t.Errorf("Import() into 4-node memory error = %v, want ErrShapeMismatch", err)
	}
}

func TestWorkspace_MetricsAndEvents(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	cfg := testConfig(2)
	cfg.Logging.Level = "debug"

	ws, err := Init(ctx, root, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Learn(ctx, pattern.MustParse("#."), "", ""); err != nil {
		t.Fatal(err)
	}
	ws.Close()

	// Replay must not write learn events.
	ws, err = Open(ctx, root, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Memory.Overlap(pattern.MustParse("#.")); err != nil {
		t.Fatal(err)
	}
	rows, err := ws.Metrics.Summary()
	if err != nil {
		t.Fatal(err)
	}
	ws.Close()

	values := map[string]string{}
	for _, r := range rows {
		values[r.Name] = r.Value
	}
	if values["hopfield_patterns"] != "1" {
		t.Errorf("hopfield_patterns = %q, want 1", values["hopfield_patterns"])
	}
	if values["hopfield_overlap_count"] != "1" {
		t.Errorf("hopfield_overlap_count = %q, want 1", values["hopfield_overlap_count"])
	}

	data, err := os.ReadFile(filepath.Join(root, ".hopfield", logging.EventsFile))
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if lines := countLines(data); lines != 1 {
		t.Errorf("events.jsonl has %d lines, want 1 learn event", lines)
	}
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
