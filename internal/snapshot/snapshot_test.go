package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/nvandessel/hopfield/internal/hopfield"
	"github.com/nvandessel/hopfield/internal/pattern"
)

func learnedMemory(t *testing.T) *hopfield.Memory {
	t.Helper()
	m, err := hopfield.New([]int{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	err = m.LearnAll(
		pattern.MustParse("#.#\n.#."),
		pattern.MustParse("###\n..."),
		pattern.MustParse("#..\n#.."),
	)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestWriteRead_RoundTrip(t *testing.T) {
	m := learnedMemory(t)
	seed := uint64(7)
	entries := []Entry{{Label: "checker"}, {Label: "top", Source: "top.png"}}

	var buf bytes.Buffer
	header, err := Write(&buf, New(m.State(), &seed, entries), zstd.SpeedDefault)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if header.Version != FormatVersion || header.PatternCount != 3 || !header.Compressed {
		t.Errorf("header = %+v", header)
	}
	if !strings.HasPrefix(header.Checksum, "sha256:") {
		t.Errorf("checksum = %q, want sha256: prefix", header.Checksum)
	}

	s, readHeader, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if readHeader.Checksum != header.Checksum {
		t.Errorf("read checksum = %q, want %q", readHeader.Checksum, header.Checksum)
	}
	if s.Seed == nil || *s.Seed != 7 {
		t.Errorf("seed = %v, want 7", s.Seed)
	}
	if len(s.Patterns) != 3 {
		t.Fatalf("got %d patterns, want 3", len(s.Patterns))
	}
	if s.Patterns[0].Label != "checker" || s.Patterns[1].Source != "top.png" || s.Patterns[2].Label != "" {
		t.Errorf("entries = %+v", s.Patterns)
	}
	if s.Patterns[1].Bits != "111000" {
		t.Errorf("pattern 1 bits = %q, want 111000", s.Patterns[1].Bits)
	}

	restored, err := s.Restore()
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !sameWeights(restored, m) {
		t.Error("restored weights differ from original")
	}
	if restored.PatternCount() != 3 {
		t.Errorf("restored PatternCount() = %d, want 3", restored.PatternCount())
	}
}

func sameWeights(a, b *hopfield.Memory) bool {
	wa, wb := a.Weights(), b.Weights()
	n := wa.SymmetricDim()
	if wb.SymmetricDim() != n {
		return false
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if wa.At(i, j) != wb.At(i, j) {
				return false
			}
		}
	}
	return true
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "memory.hfs")
	m := learnedMemory(t)

	if _, err := WriteFile(path, New(m.State(), nil, nil), zstd.SpeedBestCompression); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}

	s, _, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if s.Seed != nil {
		t.Errorf("seed = %d, want nil", *s.Seed)
	}
	if _, err := s.Restore(); err != nil {
		t.Errorf("Restore() error = %v", err)
	}
}

func TestRead_CorruptedChecksum(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Write(&buf, New(learnedMemory(t).State(), nil, nil), zstd.SpeedFastest); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	_, _, err := Read(bytes.NewReader(data))
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("Read() error = %v, want checksum mismatch", err)
	}
}

func TestReadHeader(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Write(&buf, New(learnedMemory(t).State(), nil, nil), zstd.SpeedDefault); err != nil {
		t.Fatal(err)
	}

	header, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if !pattern.Shape(header.Shape).Equal(pattern.Shape{2, 3}) {
		t.Errorf("header shape = %v, want [2 3]", header.Shape)
	}
	if header.PatternCount != 3 {
		t.Errorf("header pattern count = %d, want 3", header.PatternCount)
	}
}

func TestReadHeader_UnsupportedVersion(t *testing.T) {
	_, err := ReadHeader(strings.NewReader(`{"version":99}` + "\n"))
	if err == nil || !strings.Contains(err.Error(), "unsupported snapshot version") {
		t.Errorf("ReadHeader() error = %v", err)
	}
}

func TestRestore_WeightsMismatch(t *testing.T) {
	s := New(learnedMemory(t).State(), nil, nil)
	s.Weights[0][1] += 0.5

	_, err := s.Restore()
	if !errors.Is(err, ErrWeightsMismatch) {
		t.Errorf("Restore() error = %v, want ErrWeightsMismatch", err)
	}
}

func TestRestore_WithoutWeights(t *testing.T) {
	s := New(learnedMemory(t).State(), nil, nil)
	s.Weights = nil

	m, err := s.Restore()
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if m.PatternCount() != 3 {
		t.Errorf("PatternCount() = %d, want 3", m.PatternCount())
	}
}

func TestRestore_BadBits(t *testing.T) {
	s := &Snapshot{Shape: []int{2, 2}, Patterns: []Entry{{Bits: "101"}}}

	if _, err := s.Restore(); err == nil {
		t.Error("Restore() succeeded with a short pattern")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zstd.EncoderLevel
		wantErr bool
	}{
		{"", zstd.SpeedDefault, false},
		{"fastest", zstd.SpeedFastest, false},
		{"default", zstd.SpeedDefault, false},
		{"better", zstd.SpeedBetterCompression, false},
		{"best", zstd.SpeedBestCompression, false},
		{"ultra", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
