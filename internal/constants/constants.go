// Package constants provides named constants used throughout the hopfield codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Network defaults
const (
	// DefaultShapeRows is the number of rows of a network created without
	// an explicit shape.
	DefaultShapeRows = 8

	// DefaultShapeCols is the number of columns of a network created without
	// an explicit shape.
	DefaultShapeCols = 8
)

// Image conversion defaults
const (
	// DefaultImageThreshold is the 8-bit luminance at or above which a pixel
	// maps to +1.
	DefaultImageThreshold = 128

	// DefaultImageWorkers bounds concurrent image decodes.
	DefaultImageWorkers = 4

	// DefaultImageCacheSize is the number of decoded images kept in memory.
	DefaultImageCacheSize = 64
)

// Recall defaults
const (
	// DefaultRecallMaxSweeps bounds zero-temperature recall.
	DefaultRecallMaxSweeps = 20

	// RecallMatchThreshold is the overlap above which a recalled state is
	// reported as a match for a stored pattern.
	RecallMatchThreshold = 0.95
)

// Snapshot limits
const (
	// WeightTolerance is the largest per-entry difference accepted between a
	// stored coupling matrix and one rebuilt from the stored patterns.
	WeightTolerance = 1e-9
)
