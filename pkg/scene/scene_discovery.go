package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/loaders"
)

// Scene groups and types reported in SceneInfo
const (
	GroupBuiltin = "Built-in Scenes"
	GroupGLTF    = "glTF Scenes"

	TypeBuiltin = "builtin"
	TypeGLTF    = "gltf"
)

// gltfPrefix marks scene IDs that refer to discovered files
const gltfPrefix = "gltf:"

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete scene listing
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// ListGLTFScenes scans dir for .gltf and .glb files. A missing directory
// yields an empty list; unreadable files are logged and skipped.
func ListGLTFScenes(dir string, logger core.Logger) ([]SceneInfo, error) {
	if logger == nil {
		logger = core.NopLogger()
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.gltf", "*.glb"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		info, err := ParseGLTFMetadata(filePath)
		if err != nil {
			logger.Printf("Warning: failed to parse metadata for %s: %v", filePath, err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		if scenes[i].DisplayName != scenes[j].DisplayName {
			return scenes[i].DisplayName < scenes[j].DisplayName
		}
		return scenes[i].ID < scenes[j].ID
	})
	return scenes, nil
}

// ParseGLTFMetadata builds the SceneInfo of one glTF file. The file name
// provides the ID and the fallback display name.
func ParseGLTFMetadata(filePath string) (SceneInfo, error) {
	base := filepath.Base(filePath)
	info := SceneInfo{
		ID:          gltfPrefix + base,
		DisplayName: titleCase(strings.TrimSuffix(base, filepath.Ext(base))),
		Group:       GroupGLTF,
		Type:        TypeGLTF,
		FilePath:    filePath,
	}

	meta, err := loaders.ReadGLTFMetadata(filePath)
	if err != nil {
		return info, err
	}
	// Unnamed scenes and the exporter's placeholder keep the file name
	if meta.Name != "" && meta.Name != "world" {
		info.DisplayName = titleCase(meta.Name)
	}
	info.Description = meta.Description
	if meta.Group != "" {
		info.Group = meta.Group
	}
	return info, nil
}

// ListAllScenes returns the built-in scenes and those discovered in dir,
// built-in group first and the rest alphabetical
func ListAllScenes(dir string, logger core.Logger) (ScenesResponse, error) {
	var response ScenesResponse

	discovered, err := ListGLTFScenes(dir, logger)
	if err != nil {
		return response, fmt.Errorf("failed to list glTF scenes: %w", err)
	}

	groupMap := make(map[string][]SceneInfo)
	for _, info := range append(ListScenes(), discovered...) {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	var groupNames []string
	for groupName := range groupMap {
		if groupName != GroupBuiltin {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{Name: GroupBuiltin, Scenes: groupMap[GroupBuiltin]})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: groupMap[groupName]})
	}
	return response, nil
}

// Resolve builds a scene by ID: a built-in name, or "gltf:<file>" for a
// file discovered in dir. Only discovered files can be opened this way.
func Resolve(id string, seed int64, dir string) (*Scene, error) {
	if !strings.HasPrefix(id, gltfPrefix) {
		return Create(id, seed)
	}

	discovered, err := ListGLTFScenes(dir, nil)
	if err != nil {
		return nil, err
	}
	for _, info := range discovered {
		if info.ID == id {
			return NewGLTFScene(info.FilePath)
		}
	}
	return nil, fmt.Errorf("%w: %q not found in %s", ErrUnknownScene, id, dir)
}
