package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// CameraConfig contains all parameters needed to create a camera
type CameraConfig struct {
	Center        core.Point // Camera position (look-from)
	LookAt        core.Point // Point the camera is looking at
	Up            core.Vec3  // Up direction (usually (0,1,0))
	VFov          float64    // Vertical field of view in degrees
	AspectRatio   float64    // Width / height
	Aperture      float64    // Lens diameter; 0 disables depth of field
	FocusDistance float64    // Distance to the focal plane; 0 = |Center - LookAt|
}

// DefaultCameraConfig matches the fixed 16:9 camera looking down -Z with a
// viewport height of 2 and focal length 1
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90.0,
		AspectRatio: 16.0 / 9.0,
	}
}

// CameraOverride lists camera settings to replace. A nil field keeps the
// base value, so zero values such as Aperture 0 can still be set.
type CameraOverride struct {
	Center        *core.Point
	LookAt        *core.Point
	Up            *core.Vec3
	VFov          *float64
	AspectRatio   *float64
	Aperture      *float64
	FocusDistance *float64
}

// MergeCameraConfig returns base with every set field of override applied
func MergeCameraConfig(base CameraConfig, override CameraOverride) CameraConfig {
	result := base
	if override.Center != nil {
		result.Center = *override.Center
	}
	if override.LookAt != nil {
		result.LookAt = *override.LookAt
	}
	if override.Up != nil {
		result.Up = *override.Up
	}
	if override.VFov != nil {
		result.VFov = *override.VFov
	}
	if override.AspectRatio != nil {
		result.AspectRatio = *override.AspectRatio
	}
	if override.Aperture != nil {
		result.Aperture = *override.Aperture
	}
	if override.FocusDistance != nil {
		result.FocusDistance = *override.FocusDistance
	}
	return result
}

// Camera generates primary rays. It is immutable after construction and safe
// to share between workers.
type Camera struct {
	origin          core.Point
	lowerLeftCorner core.Point
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3 // Orthonormal basis
	lensRadius      float64
	config          CameraConfig
}

// NewCamera creates a camera from the configuration
func NewCamera(config CameraConfig) *Camera {
	theta := mgl64.DegToRad(config.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2.0 * h
	viewportWidth := config.AspectRatio * viewportHeight

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	// Without a lens the image plane sits one unit in front of the origin
	focusDistance := 1.0
	lensRadius := 0.0
	if config.Aperture > 0 {
		focusDistance = config.FocusDistance
		if focusDistance <= 0 {
			focusDistance = config.Center.Subtract(config.LookAt).Length()
		}
		lensRadius = config.Aperture / 2
	}

	origin := config.Center
	horizontal := u.Multiply(focusDistance * viewportWidth)
	vertical := v.Multiply(focusDistance * viewportHeight)
	lowerLeftCorner := origin.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		origin:          origin,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      lensRadius,
		config:          config,
	}
}

// NewDefaultCamera creates the fixed 16:9 camera at the origin
func NewDefaultCamera() *Camera {
	return NewCamera(DefaultCameraConfig())
}

// GetRay generates a ray for viewport coordinates (s, t) where 0 <= s,t <= 1
// and t = 0 is the bottom edge. The sampler is only consulted when the lens
// has a non-zero radius.
func (c *Camera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	target := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t))

	if c.lensRadius <= 0 {
		return core.NewRay(c.origin, target.Subtract(c.origin))
	}

	rd := core.RandomInUnitDisk(sampler).Multiply(c.lensRadius)
	offset := c.u.Multiply(rd.X).Add(c.v.Multiply(rd.Y))
	origin := c.origin.Add(offset)
	return core.NewRay(origin, target.Subtract(origin))
}

// LensRadius returns the thin-lens radius (0 for a pinhole camera)
func (c *Camera) LensRadius() float64 {
	return c.lensRadius
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// Forward returns the unit viewing direction
func (c *Camera) Forward() core.Vec3 {
	return c.w.Negate()
}
