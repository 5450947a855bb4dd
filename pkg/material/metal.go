package material

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// Metal represents a metallic material with specular reflection
type Metal struct {
	Albedo core.Color // Metal color
	Fuzz   float64    // 0.0 = perfect mirror, 1.0 = very fuzzy
}

// NewMetal creates a new metal material, clamping fuzz to [0, 1]
func NewMetal(albedo core.Color, fuzz float64) *Metal {
	return &Metal{Albedo: albedo, Fuzz: mgl64.Clamp(fuzz, 0, 1)}
}

// Scatter implements the Material interface for metal scattering
func (m *Metal) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	reflected := Reflect(rayIn.Direction.Normalize(), hit.Normal)
	if m.Fuzz > 0 {
		reflected = reflected.Add(core.RandomUnitVector(sampler).Multiply(m.Fuzz))
	}

	scattered := core.NewRay(hit.Point, reflected)

	// Fuzz can push the ray below the surface at grazing angles; absorb it
	if scattered.Direction.Dot(hit.Normal) <= 0 {
		return ScatterResult{}, false
	}
	return ScatterResult{Scattered: scattered, Attenuation: m.Albedo}, true
}
