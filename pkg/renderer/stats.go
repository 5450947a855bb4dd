package renderer

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// Strategy names the scheduling strategy of a render
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	RenderID     uuid.UUID     // Unique ID, also used as the log tag
	Strategy     Strategy      // How pixels were scheduled
	TotalPixels  int           // Total number of pixels rendered
	TotalSamples int           // Total number of camera rays traced
	Workers      int           // Goroutines computing pixels
	Elapsed      time.Duration // Wall time of the render
}

func newRenderStats(id uuid.UUID, strategy Strategy, config Config, workers int) RenderStats {
	return RenderStats{
		RenderID:     id,
		Strategy:     strategy,
		TotalPixels:  config.TotalPixels(),
		TotalSamples: config.TotalPixels() * config.SamplesPerPixel,
		Workers:      workers,
	}
}

// SamplesPerSecond returns the camera-ray throughput of the render
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Elapsed.Seconds()
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img in [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += 0.2126*float64(r)/0xffff + 0.7152*float64(g)/0xffff + 0.0722*float64(b)/0xffff
		}
	}
	return sum / float64(bounds.Dx()*bounds.Dy())
}
