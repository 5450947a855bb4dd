package material

import "github.com/df07/go-weekend-raytracer/pkg/core"

// fixedSampler returns the same value for every draw
type fixedSampler struct {
	value float64
}

func (f fixedSampler) Get1D() float64 { return f.value }

func (f fixedSampler) Get2D() core.Vec2 { return core.NewVec2(f.value, f.value) }
