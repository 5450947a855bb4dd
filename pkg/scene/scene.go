package scene

import (
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	Camera         *geometry.Camera
	CameraConfig   geometry.CameraConfig
	World          *geometry.HittableList // Objects in the scene
	SamplingConfig SamplingConfig
	Background     integrator.Background
}

// SamplingConfig contains the scene's preferred render settings
type SamplingConfig struct {
	Width           int // Image width; height follows from the camera aspect ratio
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns the settings every built-in scene starts from
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           384,
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}
}

// newScene builds the camera from config and wraps the world
func newScene(name string, cameraConfig geometry.CameraConfig, world *geometry.HittableList) *Scene {
	return &Scene{
		Name:           name,
		Camera:         geometry.NewCamera(cameraConfig),
		CameraConfig:   cameraConfig,
		World:          world,
		SamplingConfig: DefaultSamplingConfig(),
		Background:     integrator.DefaultBackground(),
	}
}

// Height returns the image height implied by Width and the camera aspect ratio
func (s *Scene) Height() int {
	// Truncate like the integer image sizes of the reference renders, tolerating rounding error
	return int(math.Floor(float64(s.SamplingConfig.Width)/s.CameraConfig.AspectRatio + 1e-9))
}

// ApplyCameraOverride merges override into the camera configuration and
// rebuilds the camera
func (s *Scene) ApplyCameraOverride(override geometry.CameraOverride) {
	s.CameraConfig = geometry.MergeCameraConfig(s.CameraConfig, override)
	s.Camera = geometry.NewCamera(s.CameraConfig)
}

// RenderConfig returns renderer settings for this scene
func (s *Scene) RenderConfig(seed int64) renderer.Config {
	config := renderer.DefaultConfig()
	config.Width = s.SamplingConfig.Width
	config.Height = s.Height()
	config.SamplesPerPixel = s.SamplingConfig.SamplesPerPixel
	config.MaxDepth = s.SamplingConfig.MaxDepth
	config.Seed = seed
	background := s.Background
	config.Background = &background
	return config
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}
