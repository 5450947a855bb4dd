package loaders

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"

	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// ExportGLTF writes the spheres of world and the camera to a .gltf or .glb
// file that LoadGLTF reads back into the same scene. Shapes other than
// spheres are skipped.
func ExportGLTF(path string, world *geometry.HittableList, camera geometry.CameraConfig, meta GLTFMetadata) error {
	doc, err := NewGLTFDocument(world, camera, meta)
	if err != nil {
		return err
	}
	if err := gltf.Save(doc, path); err != nil {
		return fmt.Errorf("save gltf: %w", err)
	}
	return nil
}

// NewGLTFDocument builds a document with one mesh node per sphere
func NewGLTFDocument(world *geometry.HittableList, camera geometry.CameraConfig, meta GLTFMetadata) (*gltf.Document, error) {
	doc := &gltf.Document{
		Asset: gltf.Asset{Version: "2.0", Generator: "go-weekend-raytracer"},
	}
	if meta.Description != "" || meta.Group != "" {
		doc.Asset.Extras = meta
	}
	root := &gltf.Scene{Name: meta.Name}
	if root.Name == "" {
		root.Name = "world"
	}

	// Materials are shared by pointer; emit each once
	materialIndex := make(map[material.Material]int)
	for _, shape := range world.Shapes() {
		sphere, ok := shape.(*geometry.Sphere)
		if !ok {
			continue
		}

		mesh := &gltf.Mesh{Name: fmt.Sprintf("sphere-%d", len(doc.Meshes))}
		prim := &gltf.Primitive{Attributes: gltf.PrimitiveAttributes{}}
		if sphere.Material != nil {
			index, seen := materialIndex[sphere.Material]
			if !seen {
				m, err := exportMaterial(sphere.Material)
				if err != nil {
					return nil, err
				}
				index = len(doc.Materials)
				doc.Materials = append(doc.Materials, m)
				materialIndex[sphere.Material] = index
			}
			prim.Material = gltf.Index(index)
		}
		mesh.Primitives = append(mesh.Primitives, prim)
		doc.Meshes = append(doc.Meshes, mesh)

		c, r := sphere.Center, sphere.Radius
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        mesh.Name,
			Mesh:        gltf.Index(len(doc.Meshes) - 1),
			Translation: [3]float64{c.X, c.Y, c.Z},
			Scale:       [3]float64{r, r, r},
		})
		root.Nodes = append(root.Nodes, len(doc.Nodes)-1)
	}

	doc.Cameras = append(doc.Cameras, &gltf.Camera{
		Name: "camera",
		Perspective: &gltf.Perspective{
			AspectRatio: &camera.AspectRatio,
			Yfov:        mgl64.DegToRad(camera.VFov),
			Znear:       0.001,
		},
	})
	doc.Nodes = append(doc.Nodes, cameraNode(camera, len(doc.Cameras)-1))
	root.Nodes = append(root.Nodes, len(doc.Nodes)-1)

	for _, m := range doc.Materials {
		if m.Extensions != nil {
			doc.ExtensionsUsed = []string{extensionIOR, extensionTransmission}
			break
		}
	}

	doc.Scenes = append(doc.Scenes, root)
	doc.Scene = gltf.Index(0)
	return doc, nil
}

func cameraNode(camera geometry.CameraConfig, index int) *gltf.Node {
	// Columns u, v, w map the glTF camera axes onto the look-at basis
	w := camera.Center.Subtract(camera.LookAt).Normalize()
	u := camera.Up.Cross(w).Normalize()
	v := w.Cross(u)
	basis := mgl64.Mat4FromCols(u.Mgl().Vec4(0), v.Mgl().Vec4(0), w.Mgl().Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	q := mgl64.Mat4ToQuat(basis).Normalize()

	focus := camera.FocusDistance
	if focus <= 0 {
		focus = camera.Center.Subtract(camera.LookAt).Length()
	}

	c := camera.Center
	return &gltf.Node{
		Name:        "camera",
		Camera:      gltf.Index(index),
		Translation: [3]float64{c.X, c.Y, c.Z},
		Rotation:    [4]float64{q.V[0], q.V[1], q.V[2], q.W},
		Extras:      cameraExtras{Aperture: camera.Aperture, FocusDistance: focus},
	}
}

func exportMaterial(m material.Material) (*gltf.Material, error) {
	switch mat := m.(type) {
	case *material.Lambertian:
		return &gltf.Material{
			Name:                 "lambertian",
			PBRMetallicRoughness: pbr(mat.Albedo.X, mat.Albedo.Y, mat.Albedo.Z, 0, 1),
		}, nil
	case *material.Metal:
		return &gltf.Material{
			Name:                 "metal",
			PBRMetallicRoughness: pbr(mat.Albedo.X, mat.Albedo.Y, mat.Albedo.Z, 1, mat.Fuzz),
		}, nil
	case *material.Dielectric:
		return &gltf.Material{
			Name:                 "dielectric",
			PBRMetallicRoughness: pbr(1, 1, 1, 0, 0),
			Extensions: gltf.Extensions{
				extensionIOR:          map[string]any{"ior": mat.RefractiveIndex},
				extensionTransmission: map[string]any{"transmissionFactor": 1.0},
			},
		}, nil
	default:
		return nil, fmt.Errorf("cannot export material %T", m)
	}
}

func pbr(r, g, b, metallic, roughness float64) *gltf.PBRMetallicRoughness {
	return &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{r, g, b, 1},
		MetallicFactor:  &metallic,
		RoughnessFactor: &roughness,
	}
}
