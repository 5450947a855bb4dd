package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/loaders"
)

// NewGLTFScene loads a sphere scene from a glTF file. Documents without a
// camera get the default camera.
func NewGLTFScene(path string) (*Scene, error) {
	loaded, err := loaders.LoadGLTF(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load glTF scene: %w", err)
	}

	cameraConfig := geometry.DefaultCameraConfig()
	if loaded.Camera != nil {
		cameraConfig = *loaded.Camera
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return newScene(name, cameraConfig, loaded.World), nil
}

// Export writes the scene's spheres and camera to a glTF file. Built-in
// scenes carry their description along.
func (s *Scene) Export(path string) error {
	meta := loaders.GLTFMetadata{Name: s.Name}
	if builtin, ok := builtins[s.Name]; ok {
		meta.Description = builtin.info.Description
	}
	return loaders.ExportGLTF(path, s.World, s.CameraConfig, meta)
}
