package scene

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// NewDiffuseScene creates a grey sphere resting on a large grey ground
// sphere, seen through the default camera
func NewDiffuseScene() *Scene {
	grey := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, grey),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, grey),
	)
	return newScene("diffuse", geometry.DefaultCameraConfig(), world)
}

// threeSphereWorld places a hollow glass bubble, a diffuse sphere and a gold
// metal sphere in a row on a yellow ground
func threeSphereWorld(metalFuzz float64) *geometry.HittableList {
	blue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	ground := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	gold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), metalFuzz)
	glass := material.NewDielectric(1.5)

	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, blue),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, ground),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, gold),
		// The inner sphere's negative radius makes the glass a thin shell
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.45, glass),
	)
}

// NewMaterialsScene shows all three materials through the default pinhole camera
func NewMaterialsScene() *Scene {
	return newScene("materials", geometry.DefaultCameraConfig(), threeSphereWorld(0.3))
}

// NewDepthOfFieldScene views the three-sphere row from above with a wide
// aperture focused on the middle sphere
func NewDepthOfFieldScene() *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(3, 3, 2),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   16.0 / 9.0,
		Aperture:      2.0,
		FocusDistance: 0, // Auto: distance to LookAt
	}
	return newScene("depth-of-field", cameraConfig, threeSphereWorld(0.5))
}

// NewFinalScene creates the random field of small spheres around three large
// ones. The layout is fully determined by seed.
func NewFinalScene(seed int64) *Scene {
	sampler := core.NewSeededSampler(seed)
	world := geometry.NewHittableList()

	ground := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	world.Add(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, ground))

	clearing := core.NewVec3(4, 0.2, 0)
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := sampler.Get1D()
			center := core.NewVec3(float64(a)+0.9*sampler.Get1D(), 0.2, float64(b)+0.9*sampler.Get1D())
			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			var sphereMaterial material.Material
			switch {
			case chooseMat < 0.8:
				albedo := core.RandomVec3(sampler).MultiplyVec(core.RandomVec3(sampler))
				sphereMaterial = material.NewLambertian(albedo)
			case chooseMat < 0.95:
				albedo := core.RandomVec3Range(sampler, 0.5, 1)
				fuzz := core.RandomRange(sampler, 0, 0.5)
				sphereMaterial = material.NewMetal(albedo, fuzz)
			default:
				sphereMaterial = material.NewDielectric(1.5)
			}
			world.Add(geometry.NewSphere(center, 0.2, sphereMaterial))
		}
	}

	world.Add(
		geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))),
		geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)),
	)

	cameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   16.0 / 9.0,
		Aperture:      0.1,
		FocusDistance: 10,
	}
	return newScene("final", cameraConfig, world)
}
