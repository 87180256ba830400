package compositor

import (
	"image"
	"math"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"badc0de.net/pkg/go-spritesheet/sprite"
)

// DefaultPreviewBox is the edge of the square a single animation frame is
// fitted into.
const DefaultPreviewBox = 300

// RenderFrame draws s alone, scaled to fit a box×box square with the same
// uniform scale as a sheet cell. The canvas is the size of the scaled sprite,
// not of the box.
func RenderFrame(s *sprite.Sprite, box int) (*image.RGBA, error) {
	src, err := s.Handle().Image()
	if err != nil {
		return nil, &DrawError{SpriteID: s.ID, Err: err}
	}
	if box <= 0 {
		box = DefaultPreviewBox
	}

	f := Fit(s.Width, s.Height, box, box)
	w := clamp(int(math.Round(f.Width)), 1, box)
	h := clamp(int(math.Round(f.Height)), 1, box)

	scaled := resize.Resize(uint(w), uint(h), src, resize.Lanczos3)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	return img, nil
}

// RenderBoxed draws s fitted and centered into a transparent box×box canvas.
// Frames rendered this way all share one size, which animated output needs.
func RenderBoxed(s *sprite.Sprite, box int, interp draw.Interpolator) (*image.RGBA, error) {
	if box <= 0 {
		box = DefaultPreviewBox
	}
	img := image.NewRGBA(image.Rect(0, 0, box, box))
	if err := DrawCell(img, s, img.Bounds(), interp); err != nil {
		return nil, err
	}
	return img, nil
}
