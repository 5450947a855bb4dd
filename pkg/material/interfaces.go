package material

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// Material interface for objects that can scatter rays.
// Implementations are immutable and shared by every shape that uses them.
type Material interface {
	// Scatter returns the outgoing ray and its attenuation, or false when the
	// surface absorbs the incoming ray.
	Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray   // The scattered ray
	Attenuation core.Color // Per-channel energy kept by the bounce
}

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point     core.Point // Point of intersection
	Normal    core.Vec3  // Unit surface normal, always opposing the incoming ray
	T         float64    // Parameter t along the ray
	FrontFace bool       // Whether ray hit the front face
	Material  Material   // Material of the hit object, may be nil
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Scatter dispatches to the hit's material. A hit without material absorbs.
func (h *HitRecord) Scatter(rayIn core.Ray, sampler core.Sampler) (ScatterResult, bool) {
	if h.Material == nil {
		return ScatterResult{}, false
	}
	return h.Material.Scatter(rayIn, *h, sampler)
}
