package renderer

import (
	"errors"
	"fmt"

	"github.com/df07/go-weekend-raytracer/pkg/integrator"
)

var (
	// ErrInvalidConfig is returned before any work is scheduled
	ErrInvalidConfig = errors.New("invalid render config")
	// ErrWorkerFailed is returned when a render worker panics
	ErrWorkerFailed = errors.New("render worker failed")
)

// ProgressFunc receives the number of finished pixels out of total.
// It is always called from the goroutine that called Render.
type ProgressFunc func(completed, total int)

// Config contains rendering configuration
type Config struct {
	Width           int   // Image width in pixels, at least 2
	Height          int   // Image height in pixels, at least 2
	SamplesPerPixel int   // Number of rays per pixel
	MaxDepth        int   // Maximum ray bounce depth
	Seed            int64 // Base seed; each pixel derives its own stream from it
	NumWorkers      int   // Parallel workers (0 = use CPU count)
	ChunkSize       int   // Pixels per work item (0 = default)
	Linear          bool  // Skip the gamma 2 curve when converting to bytes

	// Background overrides the default sky gradient when set
	Background *integrator.Background
	Progress   ProgressFunc
}

// DefaultChunkSize is the number of pixels handed to a worker at a time
const DefaultChunkSize = 256

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Seed:            42,
		NumWorkers:      0, // Auto-detect CPU count
		ChunkSize:       DefaultChunkSize,
	}
}

// MergeConfig returns base with every non-zero field of override applied
func MergeConfig(base, override Config) Config {
	result := base
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.Height != 0 {
		result.Height = override.Height
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.Seed != 0 {
		result.Seed = override.Seed
	}
	if override.NumWorkers != 0 {
		result.NumWorkers = override.NumWorkers
	}
	if override.ChunkSize != 0 {
		result.ChunkSize = override.ChunkSize
	}
	if override.Linear {
		result.Linear = true
	}
	if override.Background != nil {
		result.Background = override.Background
	}
	if override.Progress != nil {
		result.Progress = override.Progress
	}
	return result
}

// Validate checks the configuration. Widths and heights of 1 are rejected
// because the viewport mapping divides by (size - 1).
func (c Config) Validate() error {
	switch {
	case c.Width < 2:
		return fmt.Errorf("%w: width must be at least 2, got %d", ErrInvalidConfig, c.Width)
	case c.Height < 2:
		return fmt.Errorf("%w: height must be at least 2, got %d", ErrInvalidConfig, c.Height)
	case c.SamplesPerPixel < 1:
		return fmt.Errorf("%w: samples per pixel must be positive, got %d", ErrInvalidConfig, c.SamplesPerPixel)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalidConfig, c.MaxDepth)
	case c.NumWorkers < 0:
		return fmt.Errorf("%w: worker count must not be negative, got %d", ErrInvalidConfig, c.NumWorkers)
	case c.ChunkSize < 0:
		return fmt.Errorf("%w: chunk size must not be negative, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	return nil
}

// TotalPixels returns Width * Height
func (c Config) TotalPixels() int {
	return c.Width * c.Height
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}

// newIntegrator builds the path tracer for this configuration
func (c Config) newIntegrator() *integrator.PathTracingIntegrator {
	pt := integrator.NewPathTracingIntegrator(c.MaxDepth)
	if c.Background != nil {
		pt = pt.WithBackground(*c.Background)
	}
	return pt
}
