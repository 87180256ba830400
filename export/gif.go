package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/andybons/gogif"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/golang/glog"

	"badc0de.net/pkg/go-spritesheet/compositor"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

// encodeGIF writes a single-frame GIF. Index 0 of the palette is reserved
// for transparency.
func encodeGIF(w io.Writer, img image.Image) error {
	b := img.Bounds()
	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make(color.Palette, 0, 255), img)

	pm := image.NewPaletted(b, append(color.Palette{color.Transparent}, pal...))
	draw.Draw(pm, b, img, b.Min, draw.Over)
	return gif.Encode(w, pm, nil)
}

// GIFDelay is the per-frame delay of an animated GIF at fps, in the
// hundredths of a second the format counts in.
func GIFDelay(fps int) int {
	if fps <= 0 {
		return 100
	}
	d := int(math.Round(100 / float64(fps)))
	if d < 1 {
		return 1
	}
	return d
}

// AnimatedGIF encodes the flipbook: one box×box frame per sprite, in order,
// looping forever. Sprites that cannot be drawn are left out.
func AnimatedGIF(ctx context.Context, sprites []*sprite.Sprite, box, fps int, stem string) (*Blob, error) {
	if len(sprites) == 0 {
		return nil, &Error{Op: "animate", Err: ErrNoSprites}
	}

	g := gif.GIF{}
	quantizer := gogif.MedianCutQuantizer{NumColor: 255} // plus one entry for transparency
	delay := GIFDelay(fps)

	for i, s := range sprites {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Op: "animate", Err: err}
		}
		img, err := compositor.RenderBoxed(s, box, nil)
		if err != nil {
			glog.Errorf("animation frame %d: %v", i, err)
			continue
		}

		pal := image.NewPaletted(img.Bounds(), nil)
		quantizer.Quantize(pal, img.Bounds(), img, image.Point{})

		// gogif only hands out its palette through a quantized copy, so
		// the frame is drawn a second time onto the palette extended with
		// transparency at index 0, which blank pixels default to.
		frame := image.NewPaletted(img.Bounds(), append(color.Palette{color.Transparent}, pal.Palette...))
		draw.Draw(frame, img.Bounds(), img, image.Point{}, draw.Over)

		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	if len(g.Image) == 0 {
		return nil, &Error{Op: "animate", Err: ErrNoSprites}
	}
	g.BackgroundIndex = 0

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, &g); err != nil {
		return nil, &Error{Op: "encode", Err: err}
	}
	if buf.Len() == 0 {
		return nil, &Error{Op: "encode", Err: ErrEmptyOutput}
	}

	cfg := Config{Format: GIF, Filename: stem}
	return &Blob{
		Name: cfg.FileName(),
		MIME: GIF.MIME(),
		Data: buf.Bytes(),
	}, nil
}
