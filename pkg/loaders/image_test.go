package loaders

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(60 * x), G: uint8(100 * y), B: 128, A: 255})
		}
	}
	return img
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected ImageFormat
		wantErr  bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.PNG", FormatPNG, false},
		{"render/out.jpg", FormatJPEG, false},
		{"out.jpeg", FormatJPEG, false},
		{"out.bmp", FormatBMP, false},
		{"out.tif", FormatTIFF, false},
		{"out.tiff", FormatTIFF, false},
		{"out.gif", "", true},
		{"out", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestSaveImageFormats(t *testing.T) {
	img := createTestImage()
	dir := t.TempDir()

	tests := []struct {
		file     string
		decoded  string
		lossless bool
	}{
		{"out.png", "png", true},
		{"nested/out.jpg", "jpeg", false},
		{"out.bmp", "bmp", true},
		{"out.tiff", "tiff", true},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, SaveImage(path, img))

			loaded, format, err := LoadImage(path)
			require.NoError(t, err)
			assert.Equal(t, tt.decoded, format)
			assert.Equal(t, img.Bounds(), loaded.Bounds())

			if tt.lossless {
				for y := 0; y < 3; y++ {
					for x := 0; x < 4; x++ {
						r1, g1, b1, _ := img.At(x, y).RGBA()
						r2, g2, b2, _ := loaded.At(x, y).RGBA()
						assert.Equal(t, []uint32{r1, g1, b1}, []uint32{r2, g2, b2}, "pixel (%d,%d)", x, y)
					}
				}
			}
		})
	}
}

func TestSaveImageUnsupported(t *testing.T) {
	err := SaveImage(filepath.Join(t.TempDir(), "out.webp"), createTestImage())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEncodeImageSignatures(t *testing.T) {
	signatures := map[ImageFormat][]byte{
		FormatPNG:  []byte("\x89PNG"),
		FormatJPEG: {0xFF, 0xD8},
		FormatBMP:  []byte("BM"),
		FormatTIFF: []byte("II*\x00"),
	}

	for format, signature := range signatures {
		var buf bytes.Buffer
		require.NoError(t, EncodeImage(&buf, createTestImage(), format))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), signature), "%s output starts with %x", format, buf.Bytes()[:4])
	}

	assert.ErrorIs(t, EncodeImage(&bytes.Buffer{}, createTestImage(), "gif"), ErrUnsupportedFormat)
}

func TestLoadImageMissing(t *testing.T) {
	_, _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
