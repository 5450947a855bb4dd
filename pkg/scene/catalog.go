package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownScene is returned by Create for names outside the catalogue
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a built-in or discovered scene
type SceneInfo struct {
	ID          string `json:"id"`          // Name passed to Create or Resolve
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"`
	Seeded      bool   `json:"seeded"`             // Whether the layout depends on the seed
	Group       string `json:"group"`              // Grouping category
	Type        string `json:"type"`               // TypeBuiltin or TypeGLTF
	FilePath    string `json:"filePath,omitempty"` // Source file (glTF only)
}

type builtinScene struct {
	info  SceneInfo
	build func(seed int64) *Scene
}

var builtins = map[string]builtinScene{
	"diffuse": {
		info:  SceneInfo{Description: "Grey Lambertian sphere on a grey ground"},
		build: func(int64) *Scene { return NewDiffuseScene() },
	},
	"materials": {
		info:  SceneInfo{Description: "Hollow glass, diffuse and metal spheres through a pinhole camera"},
		build: func(int64) *Scene { return NewMaterialsScene() },
	},
	"depth-of-field": {
		info:  SceneInfo{Description: "The material spheres with a wide thin-lens aperture"},
		build: func(int64) *Scene { return NewDepthOfFieldScene() },
	},
	"final": {
		info:  SceneInfo{Description: "Random field of small spheres around three large ones", Seeded: true},
		build: NewFinalScene,
	},
}

// Create builds the named scene. Seeded scenes derive their layout from seed.
func Create(name string, seed int64) (*Scene, error) {
	builtin, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
	return builtin.build(seed), nil
}

// Names returns the catalogue names in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListScenes returns metadata for every built-in scene, sorted by display name
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtins))
	for name, builtin := range builtins {
		info := builtin.info
		info.ID = name
		info.DisplayName = titleCase(name)
		info.Group = GroupBuiltin
		info.Type = TypeBuiltin
		scenes = append(scenes, info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes
}

// titleCase converts "depth-of-field" or "depth_of_field" to "Depth Of Field"
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
