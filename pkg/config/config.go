// Package config reads render settings from YAML files. File values are
// merged over a scene's defaults; command-line flags are applied afterwards.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// ErrInvalidFile is wrapped by every validation failure
var ErrInvalidFile = errors.New("invalid config file")

// Vec3 is written in YAML as a three element sequence
type Vec3 [3]float64

func (v *Vec3) toCore() core.Vec3 {
	if v == nil {
		return core.Vec3{}
	}
	return core.NewVec3(v[0], v[1], v[2])
}

// toCorePtr keeps a missing key distinguishable from [0, 0, 0]
func (v *Vec3) toCorePtr() *core.Vec3 {
	if v == nil {
		return nil
	}
	c := v.toCore()
	return &c
}

// File is the top level of a render config file. Zero or missing values
// leave the scene defaults untouched.
type File struct {
	Scene      string      `yaml:"scene"`
	GLTF       string      `yaml:"gltf"`
	Seed       *int64      `yaml:"seed"`
	Output     string      `yaml:"output"`
	Preview    bool        `yaml:"preview"`
	Render     Render      `yaml:"render"`
	Camera     Camera      `yaml:"camera"`
	Background *Background `yaml:"background"`
}

// Render holds sampling and scheduling settings
type Render struct {
	Width      int  `yaml:"width"`
	Samples    int  `yaml:"samples"`
	MaxDepth   int  `yaml:"depth"`
	Workers    int  `yaml:"workers"`
	ChunkSize  int  `yaml:"chunk"`
	Sequential bool `yaml:"sequential"`
	Linear     bool `yaml:"linear"` // write linear values without gamma
}

// Camera mirrors geometry.CameraConfig
type Camera struct {
	LookFrom      *Vec3    `yaml:"lookFrom"`
	LookAt        *Vec3    `yaml:"lookAt"`
	Up            *Vec3    `yaml:"up"`
	VFov          *float64 `yaml:"vfov"`
	AspectRatio   *float64 `yaml:"aspect"`
	Aperture      *float64 `yaml:"aperture"`
	FocusDistance *float64 `yaml:"focusDistance"`
}

// Background is the sky gradient
type Background struct {
	Top    Vec3 `yaml:"top"`
	Bottom Vec3 `yaml:"bottom"`
}

// Load reads and validates a config file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse decodes YAML, rejecting unknown keys
func Parse(data []byte) (*File, error) {
	file := &File{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// Validate checks values that could never produce a render
func (f *File) Validate() error {
	switch {
	case f.Scene != "" && f.GLTF != "":
		return fmt.Errorf("%w: scene and gltf are mutually exclusive", ErrInvalidFile)
	case f.Render.Width < 0:
		return fmt.Errorf("%w: render.width must not be negative", ErrInvalidFile)
	case f.Render.Samples < 0:
		return fmt.Errorf("%w: render.samples must not be negative", ErrInvalidFile)
	case f.Render.MaxDepth < 0:
		return fmt.Errorf("%w: render.depth must not be negative", ErrInvalidFile)
	case f.Render.Workers < 0:
		return fmt.Errorf("%w: render.workers must not be negative", ErrInvalidFile)
	case f.Render.ChunkSize < 0:
		return fmt.Errorf("%w: render.chunk must not be negative", ErrInvalidFile)
	case f.Camera.VFov != nil && (*f.Camera.VFov <= 0 || *f.Camera.VFov >= 180):
		return fmt.Errorf("%w: camera.vfov must be in (0, 180)", ErrInvalidFile)
	case f.Camera.AspectRatio != nil && *f.Camera.AspectRatio <= 0:
		return fmt.Errorf("%w: camera.aspect must be positive", ErrInvalidFile)
	case f.Camera.Aperture != nil && *f.Camera.Aperture < 0:
		return fmt.Errorf("%w: camera.aperture must not be negative", ErrInvalidFile)
	case f.Camera.FocusDistance != nil && *f.Camera.FocusDistance < 0:
		return fmt.Errorf("%w: camera.focusDistance must not be negative", ErrInvalidFile)
	}
	return nil
}

// CameraOverride returns the camera keys present in the file, zeros
// included, for geometry.MergeCameraConfig
func (f *File) CameraOverride() geometry.CameraOverride {
	return geometry.CameraOverride{
		Center:        f.Camera.LookFrom.toCorePtr(),
		LookAt:        f.Camera.LookAt.toCorePtr(),
		Up:            f.Camera.Up.toCorePtr(),
		VFov:          f.Camera.VFov,
		AspectRatio:   f.Camera.AspectRatio,
		Aperture:      f.Camera.Aperture,
		FocusDistance: f.Camera.FocusDistance,
	}
}

// ApplyToScene merges the file over the scene's own settings
func (f *File) ApplyToScene(s *scene.Scene) {
	if f.Render.Width != 0 {
		s.SamplingConfig.Width = f.Render.Width
	}
	if f.Render.Samples != 0 {
		s.SamplingConfig.SamplesPerPixel = f.Render.Samples
	}
	if f.Render.MaxDepth != 0 {
		s.SamplingConfig.MaxDepth = f.Render.MaxDepth
	}
	s.ApplyCameraOverride(f.CameraOverride())
	if f.Background != nil {
		s.Background = integrator.Background{
			TopColor:    f.Background.Top.toCore(),
			BottomColor: f.Background.Bottom.toCore(),
		}
	}
}

// RenderOverride returns the scheduling settings for renderer.MergeConfig
func (f *File) RenderOverride() renderer.Config {
	override := renderer.Config{
		NumWorkers: f.Render.Workers,
		ChunkSize:  f.Render.ChunkSize,
		Linear:     f.Render.Linear,
	}
	if f.Seed != nil {
		override.Seed = *f.Seed
	}
	return override
}

// Example returns a commented config file with every key
func Example() string {
	return `# Built-in scene name, or a glTF file via "gltf"
scene: final
seed: 42
output: final.png
preview: false

render:
  width: 384
  samples: 100
  depth: 50
  workers: 0      # 0 = one per CPU
  chunk: 256      # pixels per work item
  sequential: false
  linear: false   # true skips gamma correction

camera:
  lookFrom: [13, 2, 3]
  lookAt: [0, 0, 0]
  up: [0, 1, 0]
  vfov: 20
  aspect: 1.7777777777777777
  aperture: 0.1
  focusDistance: 10

background:
  top: [0.5, 0.7, 1.0]
  bottom: [1.0, 1.0, 1.0]
`
}
