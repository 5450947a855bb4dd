package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

func TestSphere_Hit_ExactRoot(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, -1), 0.5, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	hit, isHit := sphere.Hit(ray, 0, math.Inf(1))
	require.True(t, isHit)
	assert.Equal(t, 0.5, hit.T)
	assert.Equal(t, core.NewVec3(0, 0, -0.5), hit.Point)
	assert.Equal(t, core.NewVec3(0, 0, 1), hit.Normal)
	assert.True(t, hit.FrontFace)
}

func TestSphere_Hit_AxisRays(t *testing.T) {
	tests := []struct {
		name   string
		origin core.Vec3
		radius float64
		hit    bool
	}{
		{"origin on axis inside radius", core.NewVec3(0.2, 0, 5), 0.5, true},
		{"origin offset beyond radius", core.NewVec3(0.6, 0, 5), 0.5, false},
		{"origin offset diagonally inside", core.NewVec3(0.3, 0.3, 5), 0.5, true},
		{"origin offset diagonally outside", core.NewVec3(0.4, 0.4, 5), 0.5, false},
		{"zero radius never hit", core.NewVec3(0, 0, 5), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sphere := NewSphere(core.NewVec3(0, 0, 0), tt.radius, nil)
			ray := core.NewRay(tt.origin, core.NewVec3(0, 0, -1))
			hit, isHit := sphere.Hit(ray, 0.001, math.Inf(1))
			require.Equal(t, tt.hit, isHit)
			if isHit {
				// t satisfies |O + tD - C|^2 = r^2
				p := ray.At(hit.T)
				assert.InDelta(t, tt.radius*tt.radius, p.LengthSquared(), 1e-12)
			}
		})
	}
}

func TestSphere_Hit_TangentIsMiss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(1, 0, 5), core.NewVec3(0, 0, -1))

	_, isHit := sphere.Hit(ray, 0.001, math.Inf(1))
	assert.False(t, isHit, "discriminant of zero must be treated as a miss")
}

func TestSphere_Hit_FrontAndBackFace(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)

	tests := []struct {
		name           string
		rayOrigin      core.Vec3
		rayDirection   core.Vec3
		expectedT      float64
		expectedFront  bool
		expectedNormal core.Vec3
	}{
		{
			name:           "front face hit",
			rayOrigin:      core.NewVec3(0, 0, 2),
			rayDirection:   core.NewVec3(0, 0, -1),
			expectedT:      1.0,
			expectedFront:  true,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			name:           "back face hit from inside",
			rayOrigin:      core.NewVec3(0, 0, 0),
			rayDirection:   core.NewVec3(0, 0, 1),
			expectedT:      1.0,
			expectedFront:  false,
			expectedNormal: core.NewVec3(0, 0, -1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDirection)
			hit, isHit := sphere.Hit(ray, 0.001, 1000.0)
			require.True(t, isHit)
			assert.InDelta(t, tt.expectedT, hit.T, 1e-9)
			assert.Equal(t, tt.expectedFront, hit.FrontFace)
			assert.InDelta(t, 0, hit.Normal.Subtract(tt.expectedNormal).Length(), 1e-9)
		})
	}
}

func TestSphere_Hit_NegativeRadiusHollowShell(t *testing.T) {
	inner := NewSphere(core.NewVec3(0, 0, 0), -0.5, nil)

	// From outside, the inverted sphere reports the hit as a back face
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))
	hit, isHit := inner.Hit(ray, 0.001, math.Inf(1))
	require.True(t, isHit)
	assert.InDelta(t, 1.5, hit.T, 1e-12)
	assert.False(t, hit.FrontFace)
	// The stored normal still opposes the ray
	assert.Less(t, hit.Normal.Dot(ray.Direction), 0.0)

	// From inside the shell's cavity the ray meets a front face
	ray = core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	hit, isHit = inner.Hit(ray, 0.001, math.Inf(1))
	require.True(t, isHit)
	assert.InDelta(t, 0.5, hit.T, 1e-12)
	assert.True(t, hit.FrontFace)
	assert.Less(t, hit.Normal.Dot(ray.Direction), 0.0)
}

func TestSphere_Hit_RespectsOpenInterval(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, -2), 1.0, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	// Near root at 1, far root at 3
	_, isHit := sphere.Hit(ray, 0.001, 1.0)
	assert.False(t, isHit, "t == tMax is outside the open interval")

	hit, isHit := sphere.Hit(ray, 1.0, 10)
	require.True(t, isHit)
	assert.InDelta(t, 3.0, hit.T, 1e-12, "t == tMin falls through to the far root")

	_, isHit = sphere.Hit(ray, 3.0, 10)
	assert.False(t, isHit)
}

func TestSphere_Hit_CarriesMaterial(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	sphere := NewSphere(core.NewVec3(0, 0, -1), 0.5, mat)
	hit, isHit := sphere.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), 0, 10)
	require.True(t, isHit)
	assert.Same(t, mat, hit.Material)
}
