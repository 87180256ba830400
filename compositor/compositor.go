// Package compositor paints sprite sheets: an ordered list of sprites laid
// out on a grid, each scaled to fit and centered in its cell.
//
// The same Renderer produces the live preview and the exported sheet. A
// render draws every cell concurrently (cells never overlap) and returns only
// once all of them have been drawn, so the canvas it returns is complete.
// Sprites past the grid's capacity are not drawn.
package compositor

import (
	"context"
	"image"
	"image/color"
	"runtime"

	"github.com/bradfitz/iter"
	"github.com/golang/glog"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-spritesheet/grid"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

var (
	DefaultBackground = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	DefaultLineColor  = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
)

type Options struct {
	// Background fills the whole canvas before anything is drawn. A nil
	// Background leaves the canvas transparent.
	Background color.Color
	// GridLines draws 1px separators between cells in LineColor.
	GridLines bool
	LineColor color.Color
	// Interpolator scales sprites into their cells. Defaults to CatmullRom.
	Interpolator draw.Interpolator
	// Parallelism caps concurrent cell draws. Defaults to GOMAXPROCS.
	Parallelism int
}

// DefaultOptions is the look of the interactive preview.
func DefaultOptions() Options {
	return Options{
		Background:   DefaultBackground,
		GridLines:    true,
		LineColor:    DefaultLineColor,
		Interpolator: draw.CatmullRom,
	}
}

// Renderer is safe for concurrent use; every Render works on its own canvas.
type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	if opts.LineColor == nil {
		opts.LineColor = DefaultLineColor
	}
	if opts.Interpolator == nil {
		opts.Interpolator = draw.CatmullRom
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Renderer{opts: opts}
}

func (r *Renderer) Options() Options {
	return r.opts
}

// Render composes sprites onto a new canvas laid out by cfg.
//
// A sprite that cannot be drawn is logged and its cell left empty. The only
// errors returned are an invalid cfg and cancellation of ctx.
func (r *Renderer) Render(ctx context.Context, sprites []*sprite.Sprite, cfg grid.Config) (*image.RGBA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(cfg.Bounds())
	if r.opts.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(r.opts.Background), image.Point{}, draw.Src)
	}
	if r.opts.GridLines {
		r.drawSeparators(img, cfg)
	}

	n := len(sprites)
	if c := cfg.Capacity(); n > c {
		glog.V(1).Infof("grid holds %d sprites; not drawing the last %d", c, n-c)
		n = c
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallelism)
	for i := 0; i < n; i++ {
		i, s := i, sprites[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := DrawCell(img, s, cfg.CellRect(i), r.opts.Interpolator); err != nil {
				glog.Errorf("cell %d: %v", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

// RenderSnapshot renders the resolved order of snap.
func (r *Renderer) RenderSnapshot(ctx context.Context, snap sprite.Snapshot, cfg grid.Config) (*image.RGBA, error) {
	return r.Render(ctx, snap.Ordered(), cfg)
}

func (r *Renderer) drawSeparators(img *image.RGBA, cfg grid.Config) {
	line := image.NewUniform(r.opts.LineColor)
	b := img.Bounds()
	xs, ys := cfg.Separators()
	for i := range iter.N(len(xs)) {
		draw.Draw(img, image.Rect(xs[i], b.Min.Y, xs[i]+1, b.Max.Y), line, image.Point{}, draw.Src)
	}
	for i := range iter.N(len(ys)) {
		draw.Draw(img, image.Rect(b.Min.X, ys[i], b.Max.X, ys[i]+1), line, image.Point{}, draw.Src)
	}
}
