package loaders

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// glTF extension names read by the sphere loader
const (
	extensionIOR          = "KHR_materials_ior"
	extensionTransmission = "KHR_materials_transmission"
)

// DefaultIOR is used for transmissive materials without KHR_materials_ior
const DefaultIOR = 1.5

// ErrEmptyGLTF is returned when a document has no mesh nodes
var ErrEmptyGLTF = errors.New("gltf document contains no mesh nodes")

// GLTFScene is the sphere world described by a glTF document
type GLTFScene struct {
	World  *geometry.HittableList
	Camera *geometry.CameraConfig // nil when the document has no perspective camera
}

// cameraExtras carries thin-lens settings glTF has no field for
type cameraExtras struct {
	Aperture      float64 `json:"aperture"`
	FocusDistance float64 `json:"focusDistance"`
}

type iorExtension struct {
	IOR *float64 `json:"ior"`
}

type transmissionExtension struct {
	TransmissionFactor float64 `json:"transmissionFactor"`
}

// LoadGLTF reads a .gltf or .glb file. Every node with a mesh becomes a
// sphere centred on its world translation with radius equal to its world
// x scale; the first perspective camera node supplies the camera.
func LoadGLTF(path string) (*GLTFScene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return BuildGLTFScene(doc)
}

// BuildGLTFScene converts an already decoded document
func BuildGLTFScene(doc *gltf.Document) (*GLTFScene, error) {
	materials := make([]material.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		mat, err := convertMaterial(m)
		if err != nil {
			return nil, fmt.Errorf("material %d %q: %w", i, m.Name, err)
		}
		materials[i] = mat
	}

	result := &GLTFScene{World: geometry.NewHittableList()}
	var walk func(index int, parent mgl64.Mat4, parentScale float64) error
	walk = func(index int, parent mgl64.Mat4, parentScale float64) error {
		if index < 0 || index >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", index)
		}
		node := doc.Nodes[index]
		world := parent.Mul4(localTransform(node))
		scale := parentScale * node.ScaleOrDefault()[0]

		if node.Mesh != nil {
			sphere, err := convertSphere(doc, node, world, scale, materials)
			if err != nil {
				return fmt.Errorf("node %d %q: %w", index, node.Name, err)
			}
			result.World.Add(sphere)
		}
		if node.Camera != nil && result.Camera == nil {
			camera, err := convertCamera(doc, node, world)
			if err != nil {
				return fmt.Errorf("node %d %q: %w", index, node.Name, err)
			}
			result.Camera = camera
		}

		for _, child := range node.Children {
			if err := walk(child, world, scale); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range rootNodes(doc) {
		if err := walk(root, mgl64.Ident4(), 1); err != nil {
			return nil, err
		}
	}

	if result.World.Len() == 0 {
		return nil, ErrEmptyGLTF
	}
	return result, nil
}

// rootNodes returns the nodes of the default scene, or every node that is
// nobody's child when the document declares no scene
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		sceneIndex := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			sceneIndex = *doc.Scene
		}
		return doc.Scenes[sceneIndex].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, node := range doc.Nodes {
		for _, child := range node.Children {
			if child >= 0 && child < len(isChild) {
				isChild[child] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodeRotation(node *gltf.Node) mgl64.Quat {
	r := node.RotationOrDefault()
	// glTF stores quaternions as x, y, z, w
	return mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
}

func localTransform(node *gltf.Node) mgl64.Mat4 {
	t := node.TranslationOrDefault()
	s := node.ScaleOrDefault()
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(nodeRotation(node).Normalize().Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

func transformPoint(m mgl64.Mat4, p mgl64.Vec3) core.Vec3 {
	return core.FromMgl(m.Mul4x1(p.Vec4(1)).Vec3())
}

func transformDirection(m mgl64.Mat4, d mgl64.Vec3) core.Vec3 {
	return core.FromMgl(m.Mul4x1(d.Vec4(0)).Vec3())
}

func convertSphere(doc *gltf.Document, node *gltf.Node, world mgl64.Mat4, radius float64, materials []material.Material) (*geometry.Sphere, error) {
	if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", *node.Mesh)
	}
	mesh := doc.Meshes[*node.Mesh]

	var mat material.Material = defaultMaterial()
	for _, prim := range mesh.Primitives {
		if prim.Material == nil {
			continue
		}
		if *prim.Material < 0 || *prim.Material >= len(materials) {
			return nil, fmt.Errorf("material index %d out of range", *prim.Material)
		}
		mat = materials[*prim.Material]
		break
	}

	center := transformPoint(world, mgl64.Vec3{})
	return geometry.NewSphere(center, radius, mat), nil
}

func defaultMaterial() material.Material {
	return material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
}

// convertMaterial maps a PBR material onto the nearest of the three models
func convertMaterial(m *gltf.Material) (material.Material, error) {
	var ior iorExtension
	hasIOR, err := decodeExtension(m.Extensions, extensionIOR, &ior)
	if err != nil {
		return nil, err
	}
	var transmission transmissionExtension
	hasTransmission, err := decodeExtension(m.Extensions, extensionTransmission, &transmission)
	if err != nil {
		return nil, err
	}

	if hasIOR || (hasTransmission && transmission.TransmissionFactor > 0) || m.AlphaMode == gltf.AlphaBlend {
		eta := DefaultIOR
		if ior.IOR != nil && *ior.IOR > 0 {
			eta = *ior.IOR
		}
		return material.NewDielectric(eta), nil
	}

	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return defaultMaterial(), nil
	}

	base := pbr.BaseColorFactorOrDefault()
	albedo := core.NewVec3(base[0], base[1], base[2])
	if pbr.MetallicFactorOrDefault() >= 0.5 {
		return material.NewMetal(albedo, pbr.RoughnessFactorOrDefault()), nil
	}
	return material.NewLambertian(albedo), nil
}

// decodeExtension re-encodes an extension value into target. Unregistered
// extensions arrive as raw JSON, registered ones as typed values.
func decodeExtension(extensions gltf.Extensions, name string, target any) (bool, error) {
	value, ok := extensions[name]
	if !ok {
		return false, nil
	}
	if err := remarshal(value, target); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func remarshal(value, target any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func convertCamera(doc *gltf.Document, node *gltf.Node, world mgl64.Mat4) (*geometry.CameraConfig, error) {
	if *node.Camera < 0 || *node.Camera >= len(doc.Cameras) {
		return nil, fmt.Errorf("camera index %d out of range", *node.Camera)
	}
	cam := doc.Cameras[*node.Camera]
	if cam.Perspective == nil {
		return nil, nil
	}

	// glTF cameras look down local -Z with +Y up
	center := transformPoint(world, mgl64.Vec3{})
	forward := transformDirection(world, mgl64.Vec3{0, 0, -1}).Normalize()
	up := transformDirection(world, mgl64.Vec3{0, 1, 0}).Normalize()

	config := geometry.DefaultCameraConfig()
	config.Center = center
	config.LookAt = center.Add(forward)
	config.Up = up
	config.VFov = mgl64.RadToDeg(cam.Perspective.Yfov)
	if cam.Perspective.AspectRatio != nil && *cam.Perspective.AspectRatio > 0 {
		config.AspectRatio = *cam.Perspective.AspectRatio
	}

	if node.Extras != nil {
		var extras cameraExtras
		if err := remarshal(node.Extras, &extras); err == nil {
			config.Aperture = extras.Aperture
			config.FocusDistance = extras.FocusDistance
		}
	}
	return &config, nil
}
