// Package export encodes a composed sprite sheet into a downloadable image
// and hands it to a Deliverer.
package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-spritesheet/compositor"
	"badc0de.net/pkg/go-spritesheet/grid"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

var (
	// ErrNoSprites is the cause of an export with nothing to draw.
	ErrNoSprites = errors.New("no sprites to export")
	// ErrEmptyOutput is the cause of an encoder producing no bytes.
	ErrEmptyOutput = errors.New("encoder produced no output")
)

// Error is a failed export attempt. No partial output is produced.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "export: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// Blob is an encoded image ready to be delivered.
type Blob struct {
	Name string
	MIME string
	Data []byte
}

// RendererOptions is how exported sheets are drawn: sprites on a transparent
// canvas, with no preview background and no separators.
func RendererOptions() compositor.Options {
	return compositor.Options{}
}

// Export renders sprites onto g with r and encodes the sheet as cfg asks.
// It fails before rendering if there is nothing to draw.
func Export(ctx context.Context, r *compositor.Renderer, sprites []*sprite.Sprite, g grid.Config, cfg Config) (*Blob, error) {
	if len(sprites) == 0 {
		return nil, &Error{Op: "render", Err: ErrNoSprites}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Op: "configure", Err: err}
	}

	img, err := r.Render(ctx, sprites, g)
	if err != nil {
		return nil, &Error{Op: "render", Err: err}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, cfg); err != nil {
		return nil, &Error{Op: "encode", Err: err}
	}
	if buf.Len() == 0 {
		return nil, &Error{Op: "encode", Err: ErrEmptyOutput}
	}

	glog.V(1).Infof("exported %d sprites as %s (%d bytes)", len(sprites), cfg.FileName(), buf.Len())
	return &Blob{
		Name: cfg.FileName(),
		MIME: cfg.Format.MIME(),
		Data: buf.Bytes(),
	}, nil
}

// Encode writes img to w in cfg's format.
func Encode(w io.Writer, img image.Image, cfg Config) error {
	switch cfg.Format {
	case PNG:
		return errors.Wrap(png.Encode(w, img), "png")
	case JPEG:
		// JPEG has no alpha; transparent areas become white rather than black.
		return errors.Wrap(jpeg.Encode(w, flatten(img, color.White), &jpeg.Options{Quality: cfg.JPEGQuality()}), "jpeg")
	case WebP:
		return errors.Wrap(nativewebp.Encode(w, img, nil), "webp")
	case GIF:
		return errors.Wrap(encodeGIF(w, img), "gif")
	}
	return &ConfigError{Field: "format", Value: string(cfg.Format)}
}

func flatten(img image.Image, matte color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.NewUniform(matte), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
