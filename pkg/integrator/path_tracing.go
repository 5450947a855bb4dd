package integrator

import (
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// ShadowAcneEpsilon is the lower bound of the hit interval. Secondary rays
// start on a surface and must not re-hit it through rounding error.
const ShadowAcneEpsilon = 0.001

// Background is a vertical sky gradient used for rays that escape the scene
type Background struct {
	TopColor    core.Color
	BottomColor core.Color
}

// DefaultBackground returns white at the horizon blending to light blue overhead
func DefaultBackground() Background {
	return Background{
		TopColor:    core.NewVec3(0.5, 0.7, 1.0),
		BottomColor: core.NewVec3(1.0, 1.0, 1.0),
	}
}

// Color returns the gradient color for a ray direction
func (b Background) Color(direction core.Vec3) core.Color {
	// Map y from [-1, 1] to [0, 1]
	t := 0.5 * (direction.Normalize().Y + 1.0)
	return b.BottomColor.Lerp(b.TopColor, t)
}

// PathTracingIntegrator implements unidirectional path tracing with a fixed
// bounce limit and no light sources other than the background
type PathTracingIntegrator struct {
	MaxDepth   int
	Background Background
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(maxDepth int) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		MaxDepth:   maxDepth,
		Background: DefaultBackground(),
	}
}

// WithBackground returns a copy of the integrator using a different sky
func (pt *PathTracingIntegrator) WithBackground(background Background) *PathTracingIntegrator {
	result := *pt
	result.Background = background
	return &result
}

// RayColor follows ray through at most MaxDepth scattering events.
// Each bounce multiplies a running attenuation; the path ends black when the
// depth runs out or a surface absorbs it, or with the sky color when it escapes.
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler) core.Color {
	attenuation := core.NewVec3(1, 1, 1)

	for depth := pt.MaxDepth; depth > 0; depth-- {
		hit, isHit := world.Hit(ray, ShadowAcneEpsilon, math.Inf(1))
		if !isHit {
			return attenuation.MultiplyVec(pt.Background.Color(ray.Direction))
		}

		scatter, didScatter := hit.Scatter(ray, sampler)
		if !didScatter {
			return core.Color{}
		}

		attenuation = attenuation.MultiplyVec(scatter.Attenuation)
		ray = scatter.Scattered
	}

	// Bounce limit exceeded, no more light is gathered
	return core.Color{}
}
