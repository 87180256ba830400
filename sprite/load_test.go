package sprite

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"badc0de.net/pkg/go-spritesheet/ttesting"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodeWith(t *testing.T, img image.Image, enc func(io.Writer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		t.Fatalf("encoding: %v", err)
	}
	return buf.Bytes()
}

func TestLoadFormats(t *testing.T) {
	c := color.NRGBA{0x30, 0x90, 0xd0, 0xff}
	img := solid(5, 3, c)

	for _, tc := range []struct {
		format string
		enc    func(io.Writer, image.Image) error
		delta  uint32
	}{
		{"png", png.Encode, 0},
		{"jpeg", func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, &jpeg.Options{Quality: 100}) }, 0x0800},
		{"gif", func(w io.Writer, m image.Image) error {
			p := image.NewPaletted(m.Bounds(), color.Palette{c})
			return gif.Encode(w, p, nil)
		}, 0},
		{"bmp", bmp.Encode, 0},
		{"tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }, 0},
		{"webp", func(w io.Writer, m image.Image) error { return nativewebp.Encode(w, m, nil) }, 0},
		{"tga", tga.Encode, 0},
	} {
		t.Run(tc.format, func(t *testing.T) {
			s, err := Load("sprite."+tc.format, encodeWith(t, img, tc.enc))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if s.Format != tc.format {
				t.Errorf("format = %q; want %q", s.Format, tc.format)
			}
			ttesting.AssertEqualPoint(t, "size", s.Size(), image.Pt(5, 3))

			decoded, err := s.Handle().Image()
			if err != nil {
				t.Fatalf("Image: %v", err)
			}
			r, g, b, _ := decoded.At(2, 1).RGBA()
			wr, wg, wb, _ := c.RGBA()
			for _, ch := range [][2]uint32{{r, wr}, {g, wg}, {b, wb}} {
				d := int64(ch[0]) - int64(ch[1])
				if d < 0 {
					d = -d
				}
				if d > int64(tc.delta) {
					t.Errorf("pixel = %v; want %v", decoded.At(2, 1), c)
					break
				}
			}
		})
	}
}

func TestLoadGIFFirstFrame(t *testing.T) {
	pal := color.Palette{color.RGBA{0xff, 0, 0, 0xff}, color.RGBA{0, 0, 0xff, 0xff}}
	first := image.NewPaletted(image.Rect(0, 0, 4, 2), pal)
	second := image.NewPaletted(image.Rect(0, 0, 4, 2), pal)
	for i := range second.Pix {
		second.Pix[i] = 1
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, &gif.GIF{Image: []*image.Paletted{first, second}, Delay: []int{10, 10}}); err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	s, err := Load("walk.gif", buf.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	img, _ := s.Handle().Image()
	ttesting.AssertColorAt(t, "first frame", img, 1, 1, color.RGBA{0xff, 0, 0, 0xff})
}

func TestLoadRejectsEmptyAndCorrupt(t *testing.T) {
	empty := encodeWith(t, image.NewNRGBA(image.Rect(0, 0, 0, 0)), tga.Encode)
	_, err := Load("empty.tga", empty)
	if _, ok := err.(*DecodeError); !ok {
		t.Fatalf("empty image: got %v; want *DecodeError", err)
	}
	if errors.Cause(err) != errEmptyImage {
		t.Errorf("empty image: cause %v; want %v", errors.Cause(err), errEmptyImage)
	}

	corrupt := append([]byte("\x89PNG\r\n\x1a\n"), []byte("truncated header")...)
	_, err = Load("broken.png", corrupt)
	if _, ok := err.(*DecodeError); !ok {
		t.Fatalf("corrupt png: got %v; want *DecodeError", err)
	}
	if errors.Cause(err) == ErrFormat {
		t.Errorf("corrupt png reported as unknown format; want the png decoder's error")
	}

	_, err = Load("notes.txt", []byte("definitely not an image"))
	if errors.Cause(err) != ErrFormat {
		t.Errorf("garbage: cause %v; want ErrFormat", errors.Cause(err))
	}
}
