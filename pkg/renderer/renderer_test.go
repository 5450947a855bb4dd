package renderer

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// panicShape fails every intersection query
type panicShape struct{}

func (panicShape) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	panic("intersection exploded")
}

func createTestWorld() *geometry.HittableList {
	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.45, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.1)),
	)
}

func createTestConfig() Config {
	config := DefaultConfig()
	config.Width = 32
	config.Height = 18
	config.SamplesPerPixel = 4
	config.MaxDepth = 10
	config.ChunkSize = 7
	config.NumWorkers = 4
	return config
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"minimum image size", func(c *Config) { c.Width, c.Height = 2, 2 }, ""},
		{"zero depth allowed", func(c *Config) { c.MaxDepth = 0 }, ""},
		{"zero width", func(c *Config) { c.Width = 0 }, "width"},
		{"single column", func(c *Config) { c.Width = 1 }, "width"},
		{"negative height", func(c *Config) { c.Height = -5 }, "height"},
		{"single row", func(c *Config) { c.Height = 1 }, "height"},
		{"zero samples", func(c *Config) { c.SamplesPerPixel = 0 }, "samples"},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, "depth"},
		{"negative workers", func(c *Config) { c.NumWorkers = -2 }, "worker"},
		{"negative chunk", func(c *Config) { c.ChunkSize = -1 }, "chunk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)
			err := config.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestRendererRejectsInvalidConfigBeforeWork(t *testing.T) {
	config := createTestConfig()
	config.SamplesPerPixel = 0
	for _, r := range []Renderer{NewSequentialRenderer(config, nil), NewParallelRenderer(config, nil)} {
		// panicShape proves no pixel was attempted
		buffer, _, err := r.Render(context.Background(), panicShape{}, geometry.NewDefaultCamera())
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Nil(t, buffer)
	}
}

func TestMergeConfig(t *testing.T) {
	sky := integrator.Background{TopColor: core.NewVec3(1, 0, 0)}
	merged := MergeConfig(DefaultConfig(), Config{Width: 64, Seed: 7, Background: &sky})

	assert.Equal(t, 64, merged.Width)
	assert.Equal(t, int64(7), merged.Seed)
	assert.Equal(t, DefaultConfig().Height, merged.Height)
	assert.Equal(t, DefaultConfig().SamplesPerPixel, merged.SamplesPerPixel)
	assert.Same(t, &sky, merged.Background)
}

func TestLinearOutputSkipsGamma(t *testing.T) {
	config := createTestConfig()
	gamma, _, err := NewSequentialRenderer(config, nil).Render(context.Background(), geometry.NewHittableList(), geometry.NewDefaultCamera())
	require.NoError(t, err)

	config.Linear = true
	linear, _, err := NewSequentialRenderer(config, nil).Render(context.Background(), geometry.NewHittableList(), geometry.NewDefaultCamera())
	require.NoError(t, err)

	// sqrt(c) >= c on [0, 1], so the sky is never brighter without gamma
	darker := 0
	for i := range linear.Pix {
		assert.LessOrEqual(t, linear.Pix[i], gamma.Pix[i])
		if linear.Pix[i] < gamma.Pix[i] {
			darker++
		}
	}
	assert.Positive(t, darker)
}

func TestSequentialMatchesParallel(t *testing.T) {
	world := createTestWorld()
	camera := geometry.NewCamera(geometry.CameraConfig{
		Center:      core.NewVec3(-2, 2, 1),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40,
		AspectRatio: 16.0 / 9.0,
		Aperture:    0.2,
	})

	config := createTestConfig()
	sequential, seqStats, err := NewSequentialRenderer(config, nil).Render(context.Background(), world, camera)
	require.NoError(t, err)

	for _, workers := range []int{1, 3, 8} {
		config.NumWorkers = workers
		parallel, parStats, err := NewParallelRenderer(config, nil).Render(context.Background(), world, camera)
		require.NoError(t, err)
		assert.True(t, sequential.Equal(parallel), "parallel render with %d workers differs from sequential", workers)
		assert.Equal(t, workers, parStats.Workers)
		assert.Equal(t, seqStats.TotalSamples, parStats.TotalSamples)
		assert.NotEqual(t, seqStats.RenderID, parStats.RenderID)
	}
}

func TestChunkLargerThanImage(t *testing.T) {
	config := createTestConfig()
	sequential, _, err := NewSequentialRenderer(config, nil).Render(context.Background(), createTestWorld(), geometry.NewDefaultCamera())
	require.NoError(t, err)

	for _, chunk := range []int{config.TotalPixels() + 1, 1 << 40} {
		config.ChunkSize = chunk
		require.NoError(t, config.Validate())
		parallel, _, err := NewParallelRenderer(config, nil).Render(context.Background(), createTestWorld(), geometry.NewDefaultCamera())
		require.NoError(t, err)
		assert.True(t, sequential.Equal(parallel), "chunk size %d", chunk)
	}
}

func TestParallelIsDeterministic(t *testing.T) {
	world := createTestWorld()
	camera := geometry.NewDefaultCamera()
	config := createTestConfig()

	first, _, err := NewParallelRenderer(config, nil).Render(context.Background(), world, camera)
	require.NoError(t, err)
	second, _, err := NewParallelRenderer(config, nil).Render(context.Background(), world, camera)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestDifferentSeedsAreStatisticallyEquivalent(t *testing.T) {
	world := createTestWorld()
	camera := geometry.NewDefaultCamera()
	config := createTestConfig()
	config.SamplesPerPixel = 16

	config.Seed = 1
	a, _, err := NewParallelRenderer(config, nil).Render(context.Background(), world, camera)
	require.NoError(t, err)
	config.Seed = 2
	b, _, err := NewSequentialRenderer(config, nil).Render(context.Background(), world, camera)
	require.NoError(t, err)

	assert.False(t, a.Equal(b), "different seeds should not give identical noise")

	lumA := CalculateAverageLuminance(a)
	lumB := CalculateAverageLuminance(b)
	assert.InDelta(t, lumA, lumB, 0.02)

	var diff float64
	for i := range a.Pix {
		diff += math.Abs(float64(a.Pix[i]) - float64(b.Pix[i]))
	}
	assert.Less(t, diff/float64(len(a.Pix)), 25.0, "mean per-channel difference too large")
}

func TestRenderOrientation(t *testing.T) {
	// Empty world: the top row sees the blue end of the sky, the bottom row the white end
	config := createTestConfig()
	camera := geometry.NewDefaultCamera()

	for _, r := range []Renderer{NewSequentialRenderer(config, nil), NewParallelRenderer(config, nil)} {
		buffer, _, err := r.Render(context.Background(), geometry.NewHittableList(), camera)
		require.NoError(t, err)
		top := buffer.RGB(config.Width/2, 0)
		bottom := buffer.RGB(config.Width/2, config.Height-1)
		assert.Less(t, top[0], bottom[0])
		assert.Equal(t, uint8(255), top[2])
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	config := createTestConfig()
	for _, sequential := range []bool{true, false} {
		var calls []int
		config.Progress = func(completed, total int) {
			assert.Equal(t, config.TotalPixels(), total)
			calls = append(calls, completed)
		}
		_, _, err := New(config, sequential, nil).Render(context.Background(), createTestWorld(), geometry.NewDefaultCamera())
		require.NoError(t, err)

		require.NotEmpty(t, calls)
		for i := 1; i < len(calls); i++ {
			assert.Greater(t, calls[i], calls[i-1])
		}
		assert.Equal(t, config.TotalPixels(), calls[len(calls)-1])
		assert.Len(t, calls, config.Height)
	}
}

func TestWorkerPanicFailsRender(t *testing.T) {
	config := createTestConfig()
	buffer, _, err := NewParallelRenderer(config, nil).Render(context.Background(), panicShape{}, geometry.NewDefaultCamera())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorkerFailed))
	assert.Contains(t, err.Error(), "intersection exploded")
	assert.Nil(t, buffer)
}

func TestRenderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := createTestConfig()
	for _, r := range []Renderer{NewSequentialRenderer(config, nil), NewParallelRenderer(config, nil)} {
		buffer, _, err := r.Render(ctx, createTestWorld(), geometry.NewDefaultCamera())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, buffer)
	}
}

func TestRenderLogsRenderID(t *testing.T) {
	var out bytes.Buffer
	logger := core.NewWriterLogger(&out, "test")
	_, stats, err := NewParallelRenderer(createTestConfig(), logger).Render(context.Background(), createTestWorld(), geometry.NewDefaultCamera())
	require.NoError(t, err)

	log := out.String()
	assert.Contains(t, log, stats.RenderID.String())
	assert.Contains(t, log, "[test]")
	assert.Equal(t, 2, strings.Count(log, "render "+stats.RenderID.String()))
	assert.Equal(t, StrategyParallel, stats.Strategy)
	assert.Greater(t, int64(stats.Elapsed), int64(0))
}
