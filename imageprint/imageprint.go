// Package imageprint prints images on a terminal, either as colored
// character cells or, where the terminal supports it, as inline graphics.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/png"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/nfnt/resize"
)

// Mode selects how pixels reach the terminal.
type Mode int

const (
	// TrueColor sets 24bit background colors with escape sequences.
	TrueColor Mode = iota
	// Color256 uses gookit/color, which degrades to what the terminal
	// supports.
	Color256
	// NoColor prints characters only. Only makes sense without Blanks.
	NoColor
	// ITerm embeds a PNG using iTerm2's escape sequence.
	//
	// https://www.iterm2.com/documentation-images.html
	ITerm
	// RasTerm picks Kitty, iTerm or sixel graphics, whichever the
	// terminal speaks.
	RasTerm
)

var modeNames = map[string]Mode{
	"24bit":   TrueColor,
	"256":     Color256,
	"nocolor": NoColor,
	"iterm":   ITerm,
	"rasterm": RasTerm,
}

func ParseMode(s string) (Mode, error) {
	if m, ok := modeNames[strings.ToLower(s)]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("imageprint: unknown mode %q", s)
}

func (m Mode) String() string {
	for k, v := range modeNames {
		if v == m {
			return k
		}
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Graphic reports whether the mode draws real pixels rather than character
// cells.
func (m Mode) Graphic() bool {
	return m == ITerm || m == RasTerm
}

// Printer draws images onto W.
type Printer struct {
	W    io.Writer
	Mode Mode
	// Blanks paints cells with spaces instead of shading characters.
	Blanks bool
	// SixelColors caps the palette of sixel output. Zero means
	// DefaultSixelColors.
	SixelColors int
}

// Print draws img. name is only used by terminals that show a file name.
func (p *Printer) Print(img image.Image, name string) error {
	switch p.Mode {
	case ITerm:
		return p.printITerm(img, name)
	case RasTerm:
		return p.printRasTerm(img)
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, err := io.WriteString(p.W, p.shade(img.At(x, y))); err != nil {
				return err
			}
		}
		end := "\x1b[0m\n"
		if p.Mode == NoColor {
			end = "\n"
		}
		if _, err := io.WriteString(p.W, end); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) shade(col ic.Color) string {
	cR, cG, cB, cA := col.RGBA()
	if cA == 0 {
		if p.Mode == NoColor {
			return "  "
		}
		return "\x1b[0m  "
	}

	cell := "  "
	if !p.Blanks {
		switch a := ((cR + cG + cB) / 3) >> 8; {
		case a < 32:
			cell = ".."
		case a < 64:
			cell = "--"
		case a < 128:
			cell = "=="
		default:
			cell = "##"
		}
	}

	r, g, b := uint8(cR>>8), uint8(cG>>8), uint8(cB>>8)
	switch p.Mode {
	case NoColor:
		return cell
	case Color256:
		return color.RGB(r, g, b, true).Sprintf("%s", cell)
	default:
		return fmt.Sprintf("\x1b[48;2;%d;%d;%dm%s\x1b[0m", r, g, b, cell)
	}
}

func (p *Printer) printITerm(img image.Image, name string) error {
	b := &bytes.Buffer{}
	enc := base64.NewEncoder(base64.StdEncoding, b)
	if err := png.Encode(enc, img); err != nil {
		return err
	}
	enc.Close()
	sz := img.Bounds().Size()
	_, err := fmt.Fprintf(p.W, "\n\033]1337;File=name=%s;inline=1;size=%d,width=%dpx;height=%dpx:%s\a\n",
		base64.StdEncoding.EncodeToString([]byte(name)), b.Len(), sz.X, sz.Y, b.String())
	return err
}

// Fit shrinks img so that it fits the terminal. Graphic modes are fitted to
// half the window's pixel size when the terminal reports one; character
// modes to the cell grid, two columns per pixel. Images are never enlarged.
func Fit(img image.Image, ts TermSize, m Mode) image.Image {
	if m.Graphic() && ts.WSXPixel != 0 && ts.WSYPixel != 0 {
		return resize.Thumbnail(ts.WSXPixel/2, ts.WSYPixel/2, img, resize.Lanczos3)
	}
	if ts.WSCol == 0 || ts.WSRow == 0 {
		return img
	}
	return resize.Thumbnail(ts.WSCol/2, ts.WSRow, img, resize.Lanczos3)
}
