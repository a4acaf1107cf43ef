// Package snapshot reads and writes portable memory snapshots.
//
// A snapshot file is a plain-text JSON header line followed by a
// zstd-compressed JSON payload. The header carries a SHA-256 checksum of the
// compressed bytes so a file can be verified and summarized without
// decompressing it.
package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/nvandessel/hopfield/internal/constants"
	"github.com/nvandessel/hopfield/internal/hopfield"
	"github.com/nvandessel/hopfield/internal/pattern"
	"gonum.org/v1/gonum/mat"
)

// FormatVersion is the snapshot format written by this package.
const FormatVersion = 1

// MaxDecompressedSize is the maximum allowed size of a decompressed payload (200MB).
const MaxDecompressedSize = 200 * 1024 * 1024

// ErrWeightsMismatch is returned by Restore when the stored couplings differ
// from the ones rebuilt from the stored patterns.
var ErrWeightsMismatch = errors.New("stored weights do not match learned patterns")

// Header is the plain-text first line of a snapshot file.
type Header struct {
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	Checksum     string    `json:"checksum"`
	Shape        []int     `json:"shape"`
	PatternCount int       `json:"pattern_count"`
	Compressed   bool      `json:"compressed"`
}

// Entry is one learned pattern in a snapshot.
type Entry struct {
	Label  string `json:"label,omitempty"`
	Source string `json:"source,omitempty"`
	Bits   string `json:"bits"`
}

// Snapshot is the payload of a snapshot file.
type Snapshot struct {
	Shape     []int       `json:"shape"`
	Seed      *uint64     `json:"seed,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	Patterns  []Entry     `json:"patterns"`
	Weights   [][]float64 `json:"weights,omitempty"`
}

// New builds a snapshot of a memory's state. Labels and sources are taken
// from entries when provided; entries may be nil or shorter than
// state.Patterns.
func New(state hopfield.State, seed *uint64, entries []Entry) *Snapshot {
	s := &Snapshot{
		Shape:     state.Shape.Dims(),
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
		Patterns:  make([]Entry, len(state.Patterns)),
		Weights:   weightRows(state.Weights),
	}
	for i, p := range state.Patterns {
		if i < len(entries) {
			s.Patterns[i] = entries[i]
		}
		s.Patterns[i].Bits = p.Encode()
	}
	return s
}

// DecodePatterns decodes the stored patterns in learning order.
func (s *Snapshot) DecodePatterns() ([]pattern.Pattern, error) {
	shape, err := pattern.NewShape(s.Shape...)
	if err != nil {
		return nil, err
	}
	out := make([]pattern.Pattern, len(s.Patterns))
	for i, e := range s.Patterns {
		p, err := pattern.Decode(shape, e.Bits)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Restore replays the stored patterns into a new memory. When the snapshot
// carries weights, they must match the rebuilt couplings within
// constants.WeightTolerance or ErrWeightsMismatch is returned.
func (s *Snapshot) Restore(opts ...hopfield.Option) (*hopfield.Memory, error) {
	patterns, err := s.DecodePatterns()
	if err != nil {
		return nil, err
	}

	if s.Seed != nil {
		opts = append(opts, hopfield.WithSeed(*s.Seed))
	}
	m, err := hopfield.New(s.Shape, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.LearnAll(patterns...); err != nil {
		return nil, fmt.Errorf("replaying patterns: %w", err)
	}

	if s.Weights != nil {
		if err := compareWeights(m.Weights(), s.Weights); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func weightRows(w *mat.SymDense) [][]float64 {
	if w == nil {
		return nil
	}
	n := w.SymmetricDim()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = w.At(i, j)
		}
	}
	return rows
}

func compareWeights(got *mat.SymDense, want [][]float64) error {
	n := got.SymmetricDim()
	if len(want) != n {
		return fmt.Errorf("%w: %d rows, want %d", ErrWeightsMismatch, len(want), n)
	}
	for i, row := range want {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d entries, want %d", ErrWeightsMismatch, i, len(row), n)
		}
		for j, v := range row {
			if math.Abs(got.At(i, j)-v) > constants.WeightTolerance {
				return fmt.Errorf("%w: entry (%d,%d) is %g, rebuilt %g", ErrWeightsMismatch, i, j, v, got.At(i, j))
			}
		}
	}
	return nil
}

// ParseLevel maps "fastest", "default", "better" or "best" to a zstd
// encoder level. An empty string selects the default.
func ParseLevel(s string) (zstd.EncoderLevel, error) {
	if s == "" {
		return zstd.SpeedDefault, nil
	}
	ok, level := zstd.EncoderLevelFromString(s)
	if !ok {
		return 0, fmt.Errorf("unknown compression level %q", s)
	}
	return level, nil
}

// Write writes s to w: header line + zstd-compressed payload.
func Write(w io.Writer, s *Snapshot, level zstd.EncoderLevel) (*Header, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(payload, nil)
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing zstd encoder: %w", err)
	}

	header := &Header{
		Version:      FormatVersion,
		CreatedAt:    s.CreatedAt,
		Checksum:     checksum(compressed),
		Shape:        s.Shape,
		PatternCount: len(s.Patterns),
		Compressed:   true,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshaling header: %w", err)
	}

	if _, err := w.Write(append(headerBytes, '\n')); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return nil, fmt.Errorf("writing compressed payload: %w", err)
	}
	return header, nil
}

// WriteFile writes s to path, creating parent directories.
func WriteFile(path string, s *Snapshot, level zstd.EncoderLevel) (*Header, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	header, err := Write(f, s, level)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing file: %w", err)
	}
	return header, nil
}

// Read reads a snapshot from r, verifies the checksum and decompresses the
// payload.
func Read(r io.Reader) (*Snapshot, *Header, error) {
	reader := bufio.NewReader(r)
	header, err := readHeader(reader)
	if err != nil {
		return nil, nil, err
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	if actual := checksum(body); actual != header.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}

	payload := body
	if header.Compressed {
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer zr.Close()

		payload, err = io.ReadAll(io.LimitReader(zr, MaxDecompressedSize+1))
		if err != nil {
			return nil, nil, fmt.Errorf("decompressing payload: %w", err)
		}
	}
	if int64(len(payload)) > MaxDecompressedSize {
		return nil, nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", MaxDecompressedSize)
	}

	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, nil, fmt.Errorf("parsing snapshot data: %w", err)
	}
	if !pattern.Shape(s.Shape).Equal(pattern.Shape(header.Shape)) {
		return nil, nil, fmt.Errorf("payload shape %v does not match header shape %v", s.Shape, header.Shape)
	}
	return &s, header, nil
}

// ReadFile reads a snapshot file.
func ReadFile(path string) (*Snapshot, *Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// ReadHeader reads only the header line without decompressing.
func ReadHeader(r io.Reader) (*Header, error) {
	return readHeader(bufio.NewReader(r))
}

func readHeader(reader *bufio.Reader) (*Header, error) {
	headerLine, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}

	var header Header
	if err := json.Unmarshal(bytes.TrimSpace(headerLine), &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", header.Version)
	}
	return &header, nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}
