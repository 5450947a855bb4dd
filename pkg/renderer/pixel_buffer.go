package renderer

import (
	"bytes"
	"image"
	"image/color"
)

// PixelBuffer is a row-major 8-bit RGB image. Row 0 is the top of the picture.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8 // 3 bytes per pixel
}

// NewPixelBuffer allocates a black buffer
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

func (b *PixelBuffer) offset(x, y int) int {
	return (y*b.Width + x) * 3
}

// Set stores the color of pixel (x, y)
func (b *PixelBuffer) Set(x, y int, rgb [3]uint8) {
	copy(b.Pix[b.offset(x, y):], rgb[:])
}

// RGB returns the color of pixel (x, y)
func (b *PixelBuffer) RGB(x, y int) [3]uint8 {
	o := b.offset(x, y)
	return [3]uint8{b.Pix[o], b.Pix[o+1], b.Pix[o+2]}
}

// Equal reports whether both buffers hold identical pixels
func (b *PixelBuffer) Equal(other *PixelBuffer) bool {
	return b.Width == other.Width && b.Height == other.Height && bytes.Equal(b.Pix, other.Pix)
}

// ColorModel implements image.Image
func (b *PixelBuffer) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// At implements image.Image
func (b *PixelBuffer) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(b.Bounds())) {
		return color.RGBA{}
	}
	rgb := b.RGB(x, y)
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

// ToRGBA copies the buffer into an *image.RGBA
func (b *PixelBuffer) ToRGBA() *image.RGBA {
	img := image.NewRGBA(b.Bounds())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.SetRGBA(x, y, b.At(x, y).(color.RGBA))
		}
	}
	return img
}
