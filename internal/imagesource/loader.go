// Package imagesource converts images into patterns. Images are resampled
// with nearest-neighbour interpolation to the requested shape and then
// thresholded on luminance: pixels at or above the threshold become true.
package imagesource

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nvandessel/hopfield/internal/constants"
	"github.com/nvandessel/hopfield/internal/pattern"
	"github.com/sourcegraph/conc/pool"
	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Defaults for a Loader.
const (
	DefaultThreshold = constants.DefaultImageThreshold
	DefaultWorkers   = constants.DefaultImageWorkers
	DefaultCacheSize = constants.DefaultImageCacheSize
)

// Config configures a Loader.
type Config struct {
	// Threshold is the 8-bit luminance at or above which a pixel is true.
	Threshold uint8

	// Workers bounds concurrent decodes in LoadAll.
	Workers int

	// CacheSize is the number of decoded patterns kept in memory.
	// Zero disables caching.
	CacheSize int
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Workers:   DefaultWorkers,
		CacheSize: DefaultCacheSize,
	}
}

type cacheKey struct {
	path    string
	size    int64
	modTime int64
	shape   string
}

// Loader decodes image files into patterns. It is safe for concurrent use.
type Loader struct {
	cfg   Config
	cache *lru.Cache[cacheKey, pattern.Pattern]
}

// NewLoader creates a Loader.
func NewLoader(cfg Config) (*Loader, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	l := &Loader{cfg: cfg}
	if cfg.CacheSize > 0 {
		c, err := lru.New[cacheKey, pattern.Pattern](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating pattern cache: %w", err)
		}
		l.cache = c
	}
	return l, nil
}

// Decode reads one image from r and converts it to a pattern of the given
// shape. Only one- and two-dimensional shapes are supported; a
// one-dimensional shape of n is treated as a 1 x n image.
func (l *Loader) Decode(r io.Reader, shape pattern.Shape) (pattern.Pattern, error) {
	width, height, err := imageSize(shape)
	if err != nil {
		return pattern.Pattern{}, err
	}

	src, _, err := image.Decode(r)
	if err != nil {
		return pattern.Pattern{}, fmt.Errorf("decoding image: %w", err)
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	bits := make([]bool, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			bits = append(bits, dst.GrayAt(x, y).Y >= l.cfg.Threshold)
		}
	}
	return pattern.New(shape, bits)
}

// Load decodes the image at path. Results are cached by path, size,
// modification time and shape.
func (l *Loader) Load(ctx context.Context, path string, shape pattern.Shape) (pattern.Pattern, error) {
	if err := ctx.Err(); err != nil {
		return pattern.Pattern{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return pattern.Pattern{}, fmt.Errorf("stat %s: %w", path, err)
	}
	key := cacheKey{
		path:    path,
		size:    info.Size(),
		modTime: info.ModTime().UnixNano(),
		shape:   shape.String(),
	}
	if l.cache != nil {
		if p, ok := l.cache.Get(key); ok {
			return p, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return pattern.Pattern{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	p, err := l.Decode(f, shape)
	if err != nil {
		return pattern.Pattern{}, fmt.Errorf("%s: %w", path, err)
	}
	if l.cache != nil {
		l.cache.Add(key, p)
	}
	return p, nil
}

// LoadAll decodes paths concurrently, bounded by Config.Workers, and returns
// the patterns in the order of paths. The first error cancels the remaining
// decodes.
func (l *Loader) LoadAll(ctx context.Context, paths []string, shape pattern.Shape) ([]pattern.Pattern, error) {
	out := make([]pattern.Pattern, len(paths))

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(l.cfg.Workers)
	for i, path := range paths {
		p.Go(func(ctx context.Context) error {
			pat, err := l.Load(ctx, path, shape)
			if err != nil {
				return err
			}
			out[i] = pat
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func imageSize(shape pattern.Shape) (width, height int, err error) {
	switch len(shape) {
	case 1:
		return shape[0], 1, nil
	case 2:
		return shape[1], shape[0], nil
	default:
		return 0, 0, &pattern.ShapeError{
			Dims:   shape.Dims(),
			Reason: "images can only be mapped onto one- or two-dimensional shapes",
		}
	}
}
