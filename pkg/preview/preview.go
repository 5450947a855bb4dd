// Package preview shows rendered images in a true-color terminal using
// half-block characters, two image rows per terminal row.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// halfBlock is drawn with fg = upper pixel and bg = lower pixel
const halfBlock = "▀"

// CellSetter is the part of uv.Screen that Draw needs
type CellSetter interface {
	SetCell(x, y int, c *uv.Cell)
}

// FitSize returns the largest cell grid that shows an imgW x imgH image
// inside cols x rows terminal cells without distorting it. Each cell covers
// one pixel column and two pixel rows.
func FitSize(imgW, imgH, cols, rows int) (int, int) {
	if imgW <= 0 || imgH <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}
	w, h := cols, cols*imgH/imgW/2
	if h > rows {
		w, h = rows*2*imgW/imgH, rows
	}
	return max(w, 1), max(h, 1)
}

// Downsample box-filters img to width x height pixels
func Downsample(img image.Image, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	b := img.Bounds()
	if b.Empty() || width <= 0 || height <= 0 {
		return out
	}

	for y := 0; y < height; y++ {
		y0 := b.Min.Y + y*b.Dy()/height
		y1 := max(b.Min.Y+(y+1)*b.Dy()/height, y0+1)
		for x := 0; x < width; x++ {
			x0 := b.Min.X + x*b.Dx()/width
			x1 := max(b.Min.X+(x+1)*b.Dx()/width, x0+1)

			var r, g, bl, n uint64
			for sy := y0; sy < y1; sy++ {
				for sx := x0; sx < x1; sx++ {
					cr, cg, cb, _ := img.At(sx, sy).RGBA()
					r, g, bl, n = r+uint64(cr), g+uint64(cg), bl+uint64(cb), n+1
				}
			}
			out.SetRGBA(x, y, color.RGBA{
				R: uint8(r / n >> 8),
				G: uint8(g / n >> 8),
				B: uint8(bl / n >> 8),
				A: 255,
			})
		}
	}
	return out
}

// Draw paints img, already sized to area.Dx() x 2*area.Dy() pixels, into area
func Draw(scr CellSetter, area uv.Rectangle, img *image.RGBA) {
	b := img.Bounds()
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row-area.Min.Y)*2 + b.Min.Y
		botY := topY + 1
		if topY >= b.Max.Y {
			break
		}

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X + b.Min.X
			if x >= b.Max.X {
				break
			}

			cell := &uv.Cell{
				Content: halfBlock,
				Width:   1,
				Style: uv.Style{
					Fg: img.RGBAAt(x, topY),
				},
			}
			if botY < b.Max.Y {
				cell.Style.Bg = img.RGBAAt(x, botY)
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// Show displays img full screen until q, escape or ctrl+c is pressed or ctx
// is done. The picture is refitted when the terminal is resized.
func Show(ctx context.Context, img image.Image) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)
	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	draw := func() error {
		cols, rows := FitSize(img.Bounds().Dx(), img.Bounds().Dy(), width, height)
		term.Erase()
		Draw(term, uv.Rect(0, 0, cols, rows), Downsample(img, cols, rows*2))
		return term.Display()
	}
	if err := draw(); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-term.Events():
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Resize(width, height)
				if err := draw(); err != nil {
					return fmt.Errorf("display: %w", err)
				}
			case uv.KeyPressEvent:
				if ev.MatchString("q") || ev.MatchString("escape") || ev.MatchString("ctrl+c") {
					return nil
				}
			}
		}
	}
}
