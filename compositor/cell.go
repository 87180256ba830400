package compositor

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"badc0de.net/pkg/go-spritesheet/sprite"
)

// DrawError is returned when a sprite cannot be drawn because its image
// handle is no longer valid. Renders skip such cells and carry on.
type DrawError struct {
	SpriteID string
	Err      error
}

func (e *DrawError) Error() string {
	return fmt.Sprintf("compositor: cannot draw sprite %s: %v", e.SpriteID, e.Err)
}

func (e *DrawError) Cause() error { return e.Err }

func (e *DrawError) Unwrap() error { return e.Err }

// Fitting is the uniform scale-to-fit placement of a sprite inside a cell.
// All values are in (fractional) pixels, relative to the cell origin.
type Fitting struct {
	Scale            float64
	Width, Height    float64
	OffsetX, OffsetY float64
}

// Fit scales a spriteW×spriteH image by the single factor that makes it fit
// a cellW×cellH cell, and centers it. The aspect ratio is preserved and the
// result never exceeds the cell. Smaller sprites are scaled up.
func Fit(spriteW, spriteH, cellW, cellH int) Fitting {
	if spriteW <= 0 || spriteH <= 0 {
		return Fitting{}
	}
	scale := math.Min(float64(cellW)/float64(spriteW), float64(cellH)/float64(spriteH))
	w, h := float64(spriteW)*scale, float64(spriteH)*scale
	return Fitting{
		Scale:   scale,
		Width:   w,
		Height:  h,
		OffsetX: (float64(cellW) - w) / 2,
		OffsetY: (float64(cellH) - h) / 2,
	}
}

// Rect snaps the fitting to whole pixels inside cell. The rectangle is at
// least 1×1 and never larger than the cell.
func (f Fitting) Rect(cell image.Rectangle) image.Rectangle {
	w := clamp(int(math.Round(f.Width)), 1, cell.Dx())
	h := clamp(int(math.Round(f.Height)), 1, cell.Dy())
	x := cell.Min.X + (cell.Dx()-w)/2
	y := cell.Min.Y + (cell.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// DrawCell draws s scaled to fit cell, centered, over whatever dst already
// holds there. Only pixels inside cell are touched.
func DrawCell(dst draw.Image, s *sprite.Sprite, cell image.Rectangle, interp draw.Interpolator) error {
	src, err := s.Handle().Image()
	if err != nil {
		return &DrawError{SpriteID: s.ID, Err: err}
	}
	if interp == nil {
		interp = draw.CatmullRom
	}
	r := Fit(s.Width, s.Height, cell.Dx(), cell.Dy()).Rect(cell)
	interp.Scale(dst, r, src, src.Bounds(), draw.Over, nil)
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
