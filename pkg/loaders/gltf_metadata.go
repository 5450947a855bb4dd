package loaders

import (
	"fmt"

	"github.com/qmuntal/gltf"
)

// GLTFMetadata is the descriptive part of a glTF scene file. Description and
// group come from the asset's extras, the name from the default scene.
type GLTFMetadata struct {
	Name        string `json:"-"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

// ReadGLTFMetadata opens a .gltf or .glb file and returns its metadata
func ReadGLTFMetadata(path string) (GLTFMetadata, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return GLTFMetadata{}, fmt.Errorf("open gltf: %w", err)
	}
	return documentMetadata(doc), nil
}

func documentMetadata(doc *gltf.Document) GLTFMetadata {
	var meta GLTFMetadata
	if doc.Asset.Extras != nil {
		// Unrecognised extras are not an error
		_ = remarshal(doc.Asset.Extras, &meta)
	}
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		meta.Name = doc.Scenes[*doc.Scene].Name
	} else if len(doc.Scenes) > 0 {
		meta.Name = doc.Scenes[0].Name
	}
	return meta
}
