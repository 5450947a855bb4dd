package renderer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// ParallelRenderer spreads pixels over a worker pool. Only the goroutine
// calling Render writes to the pixel buffer.
type ParallelRenderer struct {
	config Config
	logger core.Logger
}

// NewParallelRenderer creates a renderer backed by a worker pool
func NewParallelRenderer(config Config, logger core.Logger) *ParallelRenderer {
	if logger == nil {
		logger = core.NopLogger()
	}
	return &ParallelRenderer{config: config, logger: logger}
}

// Render computes all pixels concurrently and assembles them as they arrive
func (r *ParallelRenderer) Render(ctx context.Context, world geometry.Shape, camera *geometry.Camera) (*PixelBuffer, RenderStats, error) {
	if err := r.config.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	total := r.config.TotalPixels()
	pool := NewWorkerPool(total, r.config.chunkSize(), r.config.NumWorkers)

	stats := newRenderStats(uuid.New(), StrategyParallel, r.config, pool.GetNumWorkers())
	r.logger.Printf("render %s: parallel %dx%d, %d samples/pixel, depth %d, %d workers",
		stats.RenderID, r.config.Width, r.config.Height, r.config.SamplesPerPixel, r.config.MaxDepth, stats.Workers)
	start := time.Now()

	tracer := newPixelTracer(r.config)
	width := r.config.Width
	results, wait := pool.Start(ctx, func(id int) pixelWorkFunc {
		sampler := core.NewSeededSampler(r.config.Seed)
		return func(index int) PixelResult {
			x, y := index%width, index/width
			return PixelResult{X: x, Y: y, RGB: tracer.renderPixel(world, camera, sampler, x, y)}
		}
	})

	buffer := NewPixelBuffer(r.config.Width, r.config.Height)
	progress := newProgressReporter(r.config.Progress, total, width)
	for result := range results {
		buffer.Set(result.X, result.Y, result.RGB)
		progress.add(1)
	}

	if err := wait(); err != nil {
		r.logger.Printf("render %s: failed after %d pixels: %v", stats.RenderID, progress.completed, err)
		return nil, RenderStats{}, err
	}

	stats.Elapsed = time.Since(start)
	r.logger.Printf("render %s: finished in %v", stats.RenderID, stats.Elapsed)
	return buffer, stats, nil
}
