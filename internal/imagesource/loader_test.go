package imagesource

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/hopfield/internal/pattern"
)

// checkerboard draws a w x h image made of cell x cell squares, white in the
// top-left corner.
func checkerboard(w, h, cell int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader(DefaultConfig())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return l
}

func TestDecode_Downsample(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, checkerboard(40, 40, 10)); err != nil {
		t.Fatal(err)
	}

	p, err := newTestLoader(t).Decode(&buf, pattern.MustShape(4, 4))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := pattern.MustParse("#.#.\n.#.#\n#.#.\n.#.#")
	if !p.Equal(want) {
		t.Errorf("Decode() =\n%s\nwant\n%s", p, want)
	}
}

func TestDecode_NonSquareShape(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 6, 2))
	for x := 0; x < 6; x++ {
		img.SetGray(x, 0, color.Gray{Y: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	p, err := newTestLoader(t).Decode(&buf, pattern.MustShape(2, 3))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.Encode() != "111000" {
		t.Errorf("Decode() = %q, want 111000", p.Encode())
	}
}

func TestDecode_Threshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{Y: 10})
	img.SetGray(1, 0, color.Gray{Y: 100})
	img.SetGray(2, 0, color.Gray{Y: 200})

	tests := []struct {
		threshold uint8
		want      string
	}{
		{0, "111"},
		{50, "011"},
		{100, "011"},
		{150, "001"},
		{255, "000"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		l, err := NewLoader(Config{Threshold: tt.threshold})
		if err != nil {
			t.Fatal(err)
		}
		p, err := l.Decode(&buf, pattern.MustShape(3))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if p.Encode() != tt.want {
			t.Errorf("threshold %d: Decode() = %q, want %q", tt.threshold, p.Encode(), tt.want)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	l := newTestLoader(t)

	if _, err := l.Decode(bytes.NewReader([]byte("not an image")), pattern.MustShape(2, 2)); err == nil {
		t.Error("Decode() accepted garbage input")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, checkerboard(4, 4, 1)); err != nil {
		t.Fatal(err)
	}
	_, err := l.Decode(&buf, pattern.MustShape(2, 2, 2))
	if !errors.Is(err, pattern.ErrShape) {
		t.Errorf("Decode() with 3-D shape error = %v, want ErrShape", err)
	}
}

func TestLoad_Cache(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", checkerboard(8, 8, 4))
	l := newTestLoader(t)
	ctx := context.Background()

	first, err := l.Load(ctx, path, pattern.MustShape(2, 2))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if l.cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", l.cache.Len())
	}

	second, err := l.Load(ctx, path, pattern.MustShape(2, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) {
		t.Error("cached pattern differs from first load")
	}
	if l.cache.Len() != 1 {
		t.Errorf("cache len after hit = %d, want 1", l.cache.Len())
	}

	if _, err := l.Load(ctx, path, pattern.MustShape(4, 4)); err != nil {
		t.Fatal(err)
	}
	if l.cache.Len() != 2 {
		t.Errorf("cache len after new shape = %d, want 2", l.cache.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := newTestLoader(t).Load(context.Background(), filepath.Join(t.TempDir(), "nope.png"), pattern.MustShape(2, 2))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadAll_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	white := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range white.Pix {
		white.Pix[i] = 255
	}
	black := image.NewGray(image.Rect(0, 0, 4, 4))

	var paths []string
	for i := 0; i < 10; i++ {
		img := black
		if i%2 == 0 {
			img = white
		}
		paths = append(paths, writePNG(t, dir, filepath.Base(t.Name())+string(rune('a'+i))+".png", img))
	}

	cfg := DefaultConfig()
	cfg.Workers = 3
	l, err := NewLoader(cfg)
	if err != nil {
		t.Fatal(err)
	}
	got, err := l.LoadAll(context.Background(), paths, pattern.MustShape(2, 2))
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(got) != len(paths) {
		t.Fatalf("LoadAll() returned %d patterns, want %d", len(got), len(paths))
	}
	for i, p := range got {
		want := "0000"
		if i%2 == 0 {
			want = "1111"
		}
		if p.Encode() != want {
			t.Errorf("pattern %d = %q, want %q", i, p.Encode(), want)
		}
	}
}

func TestLoadAll_Error(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png", checkerboard(4, 4, 2))
	paths := []string{good, filepath.Join(dir, "missing.png"), good}

	_, err := newTestLoader(t).LoadAll(context.Background(), paths, pattern.MustShape(2, 2))
	if err == nil {
		t.Fatal("LoadAll() expected error for missing file")
	}
}

func TestLoadAll_Canceled(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", checkerboard(4, 4, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader(t).LoadAll(ctx, []string{path}, pattern.MustShape(2, 2))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("LoadAll() error = %v, want context.Canceled", err)
	}
}
