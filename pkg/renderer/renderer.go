package renderer

import (
	"context"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
)

// Renderer turns a world seen through a camera into an image.
// Sequential and parallel implementations produce identical pixels for the
// same configuration.
type Renderer interface {
	Render(ctx context.Context, world geometry.Shape, camera *geometry.Camera) (*PixelBuffer, RenderStats, error)
}

// New returns the parallel renderer, or the sequential one when sequential is set
func New(config Config, sequential bool, logger core.Logger) Renderer {
	if sequential {
		return NewSequentialRenderer(config, logger)
	}
	return NewParallelRenderer(config, logger)
}

// pixelTracer computes single pixels. It holds no per-render state, so one
// value can be shared by every worker.
type pixelTracer struct {
	config     Config
	integrator integrator.Integrator
}

func newPixelTracer(config Config) pixelTracer {
	return pixelTracer{config: config, integrator: config.newIntegrator()}
}

// renderPixel computes the color of buffer pixel (x, y), where y = 0 is the
// top row. The sampler is reseeded from the pixel's flat index, so the result
// does not depend on which worker runs it or in what order.
func (p pixelTracer) renderPixel(world geometry.Shape, camera *geometry.Camera, sampler *core.RandomSampler, x, y int) [3]uint8 {
	width, height := p.config.Width, p.config.Height
	sampler.Seed(core.PixelSeed(p.config.Seed, y*width+x))

	// Viewport rows are counted from the bottom
	i, j := x, height-1-y

	colorAccum := core.Color{}
	for sample := 0; sample < p.config.SamplesPerPixel; sample++ {
		u := (float64(i) + sampler.Get1D()) / float64(width-1)
		v := (float64(j) + sampler.Get1D()) / float64(height-1)
		ray := camera.GetRay(u, v, sampler)
		colorAccum = colorAccum.Add(p.integrator.RayColor(ray, world, sampler))
	}

	if p.config.Linear {
		return colorAccum.ToRGBScaled(p.config.SamplesPerPixel)
	}
	return colorAccum.ToRGBGamma2(p.config.SamplesPerPixel)
}

// progressReporter forwards progress roughly once per image row
type progressReporter struct {
	fn        ProgressFunc
	total     int
	every     int
	completed int
}

func newProgressReporter(fn ProgressFunc, total, every int) *progressReporter {
	return &progressReporter{fn: fn, total: total, every: every}
}

func (p *progressReporter) add(n int) {
	p.completed += n
	if p.fn == nil {
		return
	}
	if p.completed%p.every == 0 || p.completed == p.total {
		p.fn(p.completed, p.total)
	}
}
