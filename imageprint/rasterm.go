//go:build go1.13 && !windows
// +build go1.13,!windows

package imageprint

import (
	"image"
	"io"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
	"github.com/pkg/errors"
)

var errNoGraphics = errors.New("imageprint: terminal supports neither kitty, iterm nor sixel graphics")

// DefaultSixelColors is the palette size used for sixel output when the
// Printer does not set one.
const DefaultSixelColors = 64

func (p *Printer) printRasTerm(img image.Image) error {
	var err error
	switch {
	case rasterm.IsTermKitty():
		err = rasterm.Settings{}.KittyWriteImage(p.W, img)
	case rasterm.IsTermItermWez():
		err = rasterm.Settings{}.ItermWriteImage(p.W, img)
	default:
		capable, serr := rasterm.IsSixelCapable()
		if serr != nil || !capable {
			return errNoGraphics
		}
		err = rasterm.Settings{}.SixelWriteImage(p.W, p.paletted(img))
	}
	if err != nil {
		return errors.Wrap(err, "imageprint: writing graphics")
	}
	_, err = io.WriteString(p.W, "\n")
	return err
}

// paletted reduces img to at most SixelColors colors.
func (p *Printer) paletted(img image.Image) *image.Paletted {
	n := p.SixelColors
	if n <= 0 || n > 256 {
		n = DefaultSixelColors
	}
	b := img.Bounds()
	out := image.NewPaletted(b, nil)
	q := gogif.MedianCutQuantizer{NumColor: n}
	q.Quantize(out, b, img, b.Min)
	return out
}
