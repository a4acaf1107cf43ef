// Package config provides unified configuration loading for hopfield.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/hopfield/internal/constants"
	"github.com/nvandessel/hopfield/internal/pattern"
	"github.com/nvandessel/hopfield/internal/store"
	"gopkg.in/yaml.v3"
)

// HopfieldConfig contains all hopfield configuration settings.
type HopfieldConfig struct {
	// Network describes the memory created by "hopfield init".
	Network NetworkConfig `json:"network" yaml:"network"`

	// Image contains settings for converting images into patterns.
	Image ImageConfig `json:"image" yaml:"image"`

	// Recall contains settings for the recall command.
	Recall RecallConfig `json:"recall" yaml:"recall"`

	// Snapshot contains settings for export files.
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// NetworkConfig configures the shape and random seed of a new memory.
type NetworkConfig struct {
	// Shape is the list of dimensions, e.g. [8, 8].
	Shape []int `json:"shape" yaml:"shape"`

	// Seed seeds the lattice random source. Nil picks a random seed.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// ImageConfig configures image decoding.
type ImageConfig struct {
	// Threshold is the luminance (0-255) at or above which a pixel is true.
	Threshold int `json:"threshold" yaml:"threshold"`

	// Workers bounds concurrent image decodes.
	Workers int `json:"workers" yaml:"workers"`

	// CacheSize is the number of decoded images kept in memory.
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// RecallConfig configures zero-temperature recall.
type RecallConfig struct {
	// MaxSweeps bounds the number of asynchronous sweeps.
	MaxSweeps int `json:"max_sweeps" yaml:"max_sweeps"`

	// Noise is the fraction of probe spins flipped before recall (0-1).
	Noise float64 `json:"noise" yaml:"noise"`
}

// SnapshotConfig configures export files.
type SnapshotConfig struct {
	// Compression is the zstd level: "fastest", "default", "better" or "best".
	Compression string `json:"compression" yaml:"compression"`
}

// LoggingConfig configures hopfield's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables event logging to .hopfield/events.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a HopfieldConfig with sensible defaults.
func Default() *HopfieldConfig {
	return &HopfieldConfig{
		Network: NetworkConfig{
			Shape: []int{constants.DefaultShapeRows, constants.DefaultShapeCols},
		},
		Image: ImageConfig{
			Threshold: constants.DefaultImageThreshold,
			Workers:   constants.DefaultImageWorkers,
			CacheSize: constants.DefaultImageCacheSize,
		},
		Recall: RecallConfig{
			MaxSweeps: constants.DefaultRecallMaxSweeps,
			Noise:     0,
		},
		Snapshot: SnapshotConfig{
			Compression: "default",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// FileName is the config file inside a .hopfield directory.
const FileName = "config.yaml"

// ProjectPath returns the path of the project config file under root.
func ProjectPath(root string) string {
	return filepath.Join(store.LocalDataPath(root), FileName)
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.hopfield/config.yaml -> <root>/.hopfield/config.yaml -> environment variables
func Load(root string) (*HopfieldConfig, error) {
	config := Default()

	var paths []string
	if global, err := store.GlobalDataPath(); err == nil {
		paths = append(paths, filepath.Join(global, FileName))
	}
	if root != "" {
		paths = append(paths, ProjectPath(root))
	}

	for _, p := range paths {
		if _, statErr := os.Stat(p); statErr != nil {
			continue
		}
		if err := mergeFile(config, p); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the
// defaults.
func LoadFromFile(path string) (*HopfieldConfig, error) {
	config := Default()
	if err := mergeFile(config, path); err != nil {
		return nil, err
	}
	return config, nil
}

func mergeFile(config *HopfieldConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration as YAML to path, creating parent directories.
func (c *HopfieldConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *HopfieldConfig) Validate() error {
	if _, err := pattern.NewShape(c.Network.Shape...); err != nil {
		return fmt.Errorf("network.shape: %w", err)
	}

	if c.Image.Threshold < 0 || c.Image.Threshold > 255 {
		return fmt.Errorf("image.threshold must be between 0 and 255, got %d", c.Image.Threshold)
	}
	if c.Image.Workers < 1 {
		return fmt.Errorf("image.workers must be at least 1, got %d", c.Image.Workers)
	}
	if c.Image.CacheSize < 0 {
		return fmt.Errorf("image.cache_size must be non-negative, got %d", c.Image.CacheSize)
	}

	if c.Recall.MaxSweeps < 1 {
		return fmt.Errorf("recall.max_sweeps must be at least 1, got %d", c.Recall.MaxSweeps)
	}
	if c.Recall.Noise < 0 || c.Recall.Noise > 1 {
		return fmt.Errorf("recall.noise must be between 0 and 1, got %f", c.Recall.Noise)
	}

	validCompression := map[string]bool{"": true, "fastest": true, "default": true, "better": true, "best": true}
	if !validCompression[c.Snapshot.Compression] {
		return fmt.Errorf("invalid snapshot compression: %s (valid: fastest, default, better, best)", c.Snapshot.Compression)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *HopfieldConfig) error {
	if v := os.Getenv("HOPFIELD_SHAPE"); v != "" {
		shape, err := pattern.ParseShape(v)
		if err != nil {
			return fmt.Errorf("HOPFIELD_SHAPE: %w", err)
		}
		config.Network.Shape = shape.Dims()
	}

	if v := os.Getenv("HOPFIELD_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("HOPFIELD_SEED: %w", err)
		}
		config.Network.Seed = &seed
	}

	if v := os.Getenv("HOPFIELD_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Image.Threshold = n
		}
	}

	if v := os.Getenv("HOPFIELD_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Image.Workers = n
		}
	}

	if v := os.Getenv("HOPFIELD_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	return nil
}
