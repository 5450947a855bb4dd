package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float64
}

// Point is a position in world space
type Point = Vec3

// Color is a linear RGB triple
type Color = Vec3

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// FromMgl converts an mgl64 vector
func FromMgl(m mgl64.Vec3) Vec3 {
	return Vec3{X: m[0], Y: m[1], Z: m[2]}
}

// Mgl returns the vector as an mgl64.Vec3
func (v Vec3) Mgl() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float64) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Divide returns the vector divided by a scalar
func (v Vec3) Divide(scalar float64) Vec3 {
	return v.Multiply(1.0 / scalar)
}

// MultiplyVec returns component-wise multiplication of two vectors
func (v Vec3) MultiplyVec(other Vec3) Vec3 {
	return Vec3{
		X: v.X * other.X,
		Y: v.Y * other.Y,
		Z: v.Z * other.Z,
	}
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float64 {
	return v.Mgl().Len()
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product of two vectors
func (v Vec3) Cross(other Vec3) Vec3 {
	return FromMgl(v.Mgl().Cross(other.Mgl()))
}

// Normalize returns a unit vector in the same direction.
// The result for a zero-length vector is NaN; callers keep directions non-degenerate.
func (v Vec3) Normalize() Vec3 {
	return FromMgl(v.Mgl().Normalize())
}

// Negate returns the negative of the vector
func (v Vec3) Negate() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Lerp linearly interpolates from v (t=0) to other (t=1)
func (v Vec3) Lerp(other Vec3, t float64) Vec3 {
	return v.Multiply(1.0 - t).Add(other.Multiply(t))
}

// Clamp returns a vector with components clamped to [min, max]
func (v Vec3) Clamp(minVal, maxVal float64) Vec3 {
	return Vec3{
		X: mgl64.Clamp(v.X, minVal, maxVal),
		Y: mgl64.Clamp(v.Y, minVal, maxVal),
		Z: mgl64.Clamp(v.Z, minVal, maxVal),
	}
}

// Equals checks exact component equality
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// NearZero reports whether every component is within 1e-8 of zero
func (v Vec3) NearZero() bool {
	const s = 1e-8
	return math.Abs(v.X) < s && math.Abs(v.Y) < s && math.Abs(v.Z) < s
}

// IsFinite reports whether no component is NaN or infinite
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ToRGBScaled averages an accumulated color over samples and maps it to bytes
// without gamma correction.
func (v Vec3) ToRGBScaled(samples int) [3]uint8 {
	c := v.Multiply(1.0 / float64(samples))
	return [3]uint8{channelToByte(c.X), channelToByte(c.Y), channelToByte(c.Z)}
}

// ToRGBGamma2 averages an accumulated color over samples, applies a gamma 2
// curve and maps each channel to floor(256 * clamp(x, 0, 0.999)).
func (v Vec3) ToRGBGamma2(samples int) [3]uint8 {
	scale := 1.0 / float64(samples)
	return [3]uint8{
		channelToByte(math.Sqrt(v.X * scale)),
		channelToByte(math.Sqrt(v.Y * scale)),
		channelToByte(math.Sqrt(v.Z * scale)),
	}
}

func channelToByte(c float64) uint8 {
	// NaN fails every comparison inside Clamp, pin it to black
	if math.IsNaN(c) {
		return 0
	}
	return uint8(256 * mgl64.Clamp(c, 0, 0.999))
}
