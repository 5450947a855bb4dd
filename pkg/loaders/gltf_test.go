package loaders

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

func assertVecNear(t *testing.T, expected, actual core.Vec3) {
	t.Helper()
	assert.InDelta(t, 0, actual.Subtract(expected).Length(), 1e-9, "expected %v, got %v", expected, actual)
}

func createTestWorld() (*geometry.HittableList, geometry.CameraConfig) {
	glass := material.NewDielectric(1.5)
	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0))),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.25)),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.45, glass),
	)
	camera := geometry.CameraConfig{
		Center:      core.NewVec3(3, 3, 2),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        20,
		AspectRatio: 16.0 / 9.0,
		Aperture:    2.0,
	}
	return world, camera
}

func TestGLTFRoundTrip(t *testing.T) {
	world, camera := createTestWorld()

	for _, name := range []string{"scene.gltf", "scene.glb"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, ExportGLTF(path, world, camera, GLTFMetadata{}))

			loaded, err := LoadGLTF(path)
			require.NoError(t, err)
			require.Equal(t, world.Len(), loaded.World.Len())

			for i, shape := range world.Shapes() {
				want := shape.(*geometry.Sphere)
				got := loaded.World.Shapes()[i].(*geometry.Sphere)
				assertVecNear(t, want.Center, got.Center)
				assert.InDelta(t, want.Radius, got.Radius, 1e-12)
				assert.IsType(t, want.Material, got.Material)
				assert.Equal(t, want.Material, got.Material)
			}

			// The hollow shell still shares one material after the round trip
			shapes := loaded.World.Shapes()
			assert.Same(t, shapes[3].(*geometry.Sphere).Material, shapes[4].(*geometry.Sphere).Material)

			require.NotNil(t, loaded.Camera)
			assertVecNear(t, camera.Center, loaded.Camera.Center)
			wantForward := camera.LookAt.Subtract(camera.Center).Normalize()
			gotForward := loaded.Camera.LookAt.Subtract(loaded.Camera.Center).Normalize()
			assertVecNear(t, wantForward, gotForward)
			assert.Greater(t, loaded.Camera.Up.Dot(camera.Up), 0.0)
			assert.InDelta(t, 20, loaded.Camera.VFov, 1e-9)
			assert.InDelta(t, 16.0/9.0, loaded.Camera.AspectRatio, 1e-12)
			assert.Equal(t, 2.0, loaded.Camera.Aperture)
			assert.InDelta(t, camera.Center.Subtract(camera.LookAt).Length(), loaded.Camera.FocusDistance, 1e-9)

			// Both cameras produce the same centre ray
			original := geometry.NewCamera(camera)
			restored := geometry.NewCamera(*loaded.Camera)
			assertVecNear(t, original.Forward(), restored.Forward())
		})
	}
}

func TestGLTFMaterialMapping(t *testing.T) {
	factor := func(v float64) *float64 { return &v }
	tests := []struct {
		name     string
		material *gltf.Material
		expected material.Material
	}{
		{
			name: "rough dielectric base is lambertian",
			material: &gltf.Material{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float64{0.2, 0.4, 0.6, 1},
				MetallicFactor:  factor(0.1),
			}},
			expected: material.NewLambertian(core.NewVec3(0.2, 0.4, 0.6)),
		},
		{
			name: "metallic becomes metal with roughness as fuzz",
			material: &gltf.Material{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float64{0.9, 0.9, 0.9, 1},
				MetallicFactor:  factor(0.5),
				RoughnessFactor: factor(0.2),
			}},
			expected: material.NewMetal(core.NewVec3(0.9, 0.9, 0.9), 0.2),
		},
		{
			name:     "glTF default factors are a fully rough metal",
			material: &gltf.Material{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{}},
			expected: material.NewMetal(core.NewVec3(1, 1, 1), 1),
		},
		{
			name:     "alpha blend is glass",
			material: &gltf.Material{AlphaMode: gltf.AlphaBlend},
			expected: material.NewDielectric(DefaultIOR),
		},
		{
			name: "ior extension",
			material: &gltf.Material{Extensions: gltf.Extensions{
				extensionIOR: map[string]any{"ior": 1.33},
			}},
			expected: material.NewDielectric(1.33),
		},
		{
			name: "raw transmission extension",
			material: &gltf.Material{Extensions: gltf.Extensions{
				extensionTransmission: json.RawMessage(`{"transmissionFactor": 0.8}`),
			}},
			expected: material.NewDielectric(DefaultIOR),
		},
		{
			name:     "no pbr block",
			material: &gltf.Material{},
			expected: defaultMaterial(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertMaterial(tt.material)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGLTFNodeHierarchy(t *testing.T) {
	// A parent translated and scaled by 2, rotated 90 degrees about Y
	q := mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 1, 0})
	doc := &gltf.Document{
		Meshes: []*gltf.Mesh{{Primitives: []*gltf.Primitive{{Attributes: gltf.PrimitiveAttributes{}}}}},
		Nodes: []*gltf.Node{
			{
				Translation: [3]float64{10, 0, 0},
				Rotation:    [4]float64{q.V[0], q.V[1], q.V[2], q.W},
				Scale:       [3]float64{2, 2, 2},
				Children:    []int{1},
			},
			{Mesh: gltf.Index(0), Translation: [3]float64{1, 0, 0}, Scale: [3]float64{-0.5, 1, 1}},
		},
	}

	scene, err := BuildGLTFScene(doc)
	require.NoError(t, err)
	require.Equal(t, 1, scene.World.Len())
	assert.Nil(t, scene.Camera)

	sphere := scene.World.Shapes()[0].(*geometry.Sphere)
	assertVecNear(t, core.NewVec3(10, 0, -2), sphere.Center)
	assert.InDelta(t, -1.0, sphere.Radius, 1e-12)
	assert.Equal(t, defaultMaterial(), sphere.Material)
}

func TestGLTFErrors(t *testing.T) {
	_, err := BuildGLTFScene(&gltf.Document{})
	assert.ErrorIs(t, err, ErrEmptyGLTF)

	_, err = BuildGLTFScene(&gltf.Document{Nodes: []*gltf.Node{{Mesh: gltf.Index(3)}}})
	assert.ErrorContains(t, err, "mesh index 3 out of range")

	_, err = LoadGLTF(filepath.Join(t.TempDir(), "missing.gltf"))
	assert.ErrorContains(t, err, "open gltf")
}

func TestGLTFMetadata(t *testing.T) {
	world, camera := createTestWorld()
	dir := t.TempDir()

	described := filepath.Join(dir, "described.glb")
	meta := GLTFMetadata{Name: "Three Spheres", Description: "glass, matte and metal", Group: "Samples"}
	require.NoError(t, ExportGLTF(described, world, camera, meta))

	got, err := ReadGLTFMetadata(described)
	require.NoError(t, err)
	assert.Equal(t, meta, got)

	plain := filepath.Join(dir, "plain.gltf")
	require.NoError(t, ExportGLTF(plain, world, camera, GLTFMetadata{}))

	got, err = ReadGLTFMetadata(plain)
	require.NoError(t, err)
	assert.Equal(t, GLTFMetadata{Name: "world"}, got)

	_, err = ReadGLTFMetadata(filepath.Join(dir, "missing.gltf"))
	assert.ErrorContains(t, err, "open gltf")
}
