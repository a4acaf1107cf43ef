package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/hopfield/internal/pattern"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements PatternStore using SQLite for persistence.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the store at <root>/.hopfield/hopfield.db.
func NewSQLiteStore(root string) (*SQLiteStore, error) {
	dir := LocalDataPath(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", DataDirName, err)
	}
	return OpenSQLiteStore(DatabasePath(root))
}

// OpenSQLiteStore opens the database file at dbPath.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Init records the network meta.
func (s *SQLiteStore) Init(ctx context.Context, meta Meta) error {
	if err := meta.Shape.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.metaUnlocked(ctx)
	switch {
	case err == nil:
		return checkSameShape(existing, meta)
	case !errors.Is(err, ErrNotInitialized):
		return err
	}

	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	shapeJSON, err := json.Marshal(meta.Shape)
	if err != nil {
		return fmt.Errorf("marshal shape: %w", err)
	}
	var seed sql.NullString
	if meta.Seed != nil {
		seed = sql.NullString{String: strconv.FormatUint(*meta.Seed, 10), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO network (id, shape, seed, created_at) VALUES (1, ?, ?, ?)`,
		string(shapeJSON), seed, meta.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert network: %w", err)
	}
	return nil
}

// Meta returns the stored meta.
func (s *SQLiteStore) Meta(ctx context.Context) (Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metaUnlocked(ctx)
}

func (s *SQLiteStore) metaUnlocked(ctx context.Context) (Meta, error) {
	var shapeJSON, createdAt string
	var seed sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT shape, seed, created_at FROM network WHERE id = 1`).Scan(&shapeJSON, &seed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, ErrNotInitialized
	}
	if err != nil {
		return Meta{}, fmt.Errorf("failed to query network: %w", err)
	}

	var dims []int
	if err := json.Unmarshal([]byte(shapeJSON), &dims); err != nil {
		return Meta{}, fmt.Errorf("failed to parse stored shape: %w", err)
	}
	shape, err := pattern.NewShape(dims...)
	if err != nil {
		return Meta{}, fmt.Errorf("stored shape: %w", err)
	}

	meta := Meta{Shape: shape}
	if seed.Valid {
		v, err := strconv.ParseUint(seed.String, 10, 64)
		if err != nil {
			return Meta{}, fmt.Errorf("failed to parse stored seed: %w", err)
		}
		meta.Seed = &v
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		meta.CreatedAt = t
	}
	return meta, nil
}

// AddPattern appends a pattern.
func (s *SQLiteStore) AddPattern(ctx context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.metaUnlocked(ctx)
	if err != nil {
		return Record{}, err
	}
	if !rec.Pattern.Shape().Equal(meta.Shape) {
		return Record{}, &pattern.ShapeMismatchError{Want: meta.Shape.Dims(), Got: rec.Pattern.Shape().Dims()}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var last int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM patterns`).Scan(&last); err != nil {
		return Record{}, fmt.Errorf("failed to read last sequence: %w", err)
	}

	rec = fillRecord(rec, last+1)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO patterns (seq, id, label, source, bits, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Seq, rec.ID, nullString(rec.Label), nullString(rec.Source),
		rec.Pattern.Encode(), rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Record{}, fmt.Errorf("failed to insert pattern: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("failed to commit pattern: %w", err)
	}
	return rec, nil
}

// Patterns returns every record ordered by Seq.
func (s *SQLiteStore) Patterns(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.metaUnlocked(ctx)
	if errors.Is(err, ErrNotInitialized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, label, source, bits, created_at FROM patterns ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec           Record
			label, source sql.NullString
			bits, created string
		)
		if err := rows.Scan(&rec.Seq, &rec.ID, &label, &source, &bits, &created); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		rec.Label = label.String
		rec.Source = source.String
		rec.Pattern, err = pattern.Decode(meta.Shape, bits)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", rec.ID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}
	return records, nil
}

// Count returns the number of stored patterns.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patterns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count patterns: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
