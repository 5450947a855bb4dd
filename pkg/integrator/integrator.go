package integrator

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the radiance carried back along ray from world.
	// The sampler belongs to the calling worker and is never shared.
	RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler) core.Color
}
