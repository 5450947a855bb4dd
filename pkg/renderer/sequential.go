package renderer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// SequentialRenderer renders every pixel on the calling goroutine
type SequentialRenderer struct {
	config Config
	logger core.Logger
}

// NewSequentialRenderer creates a single-threaded renderer
func NewSequentialRenderer(config Config, logger core.Logger) *SequentialRenderer {
	if logger == nil {
		logger = core.NopLogger()
	}
	return &SequentialRenderer{config: config, logger: logger}
}

// Render walks rows from the top of the image down and columns left to right
func (r *SequentialRenderer) Render(ctx context.Context, world geometry.Shape, camera *geometry.Camera) (*PixelBuffer, RenderStats, error) {
	if err := r.config.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	stats := newRenderStats(uuid.New(), StrategySequential, r.config, 1)
	r.logger.Printf("render %s: sequential %dx%d, %d samples/pixel, depth %d",
		stats.RenderID, r.config.Width, r.config.Height, r.config.SamplesPerPixel, r.config.MaxDepth)
	start := time.Now()

	tracer := newPixelTracer(r.config)
	sampler := core.NewSeededSampler(r.config.Seed)
	buffer := NewPixelBuffer(r.config.Width, r.config.Height)
	progress := newProgressReporter(r.config.Progress, r.config.TotalPixels(), r.config.Width)

	for y := 0; y < r.config.Height; y++ {
		for x := 0; x < r.config.Width; x++ {
			if err := ctx.Err(); err != nil {
				r.logger.Printf("render %s: cancelled after %d pixels", stats.RenderID, progress.completed)
				return nil, RenderStats{}, err
			}
			buffer.Set(x, y, tracer.renderPixel(world, camera, sampler, x, y))
			progress.add(1)
		}
	}

	stats.Elapsed = time.Since(start)
	r.logger.Printf("render %s: finished in %v", stats.RenderID, stats.Elapsed)
	return buffer, stats, nil
}
