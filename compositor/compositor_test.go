package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"

	"badc0de.net/pkg/go-spritesheet/grid"
	"badc0de.net/pkg/go-spritesheet/sprite"
	"badc0de.net/pkg/go-spritesheet/ttesting"
)

var palette = []color.RGBA{
	{0xff, 0x00, 0x00, 0xff},
	{0x00, 0xff, 0x00, 0xff},
	{0x00, 0x00, 0xff, 0xff},
	{0xff, 0xff, 0x00, 0xff},
	{0xff, 0x00, 0xff, 0xff},
}

func solidSprite(t *testing.T, w, h int, c color.Color) *sprite.Sprite {
	t.Helper()
	s, err := sprite.Load(fmt.Sprintf("%dx%d.png", w, h), ttesting.SolidPNG(t, w, h, c))
	if err != nil {
		t.Fatalf("loading test sprite: %v", err)
	}
	return s
}

func containsColor(img *image.RGBA, c color.RGBA) bool {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] == c.R && img.Pix[i+1] == c.G && img.Pix[i+2] == c.B && img.Pix[i+3] == c.A {
			return true
		}
	}
	return false
}

func TestFitNeverExceedsCellAndKeepsAspect(t *testing.T) {
	sizes := []int{1, 3, 16, 33, 64, 100, 257}
	for _, sw := range sizes {
		for _, sh := range sizes {
			for _, cw := range []int{1, 10, 64} {
				for _, ch := range []int{1, 7, 64} {
					f := Fit(sw, sh, cw, ch)
					if f.Width > float64(cw)+1e-9 || f.Height > float64(ch)+1e-9 {
						t.Errorf("Fit(%d,%d,%d,%d) = %vx%v exceeds cell", sw, sh, cw, ch, f.Width, f.Height)
					}
					if f.OffsetX < -1e-9 || f.OffsetY < -1e-9 {
						t.Errorf("Fit(%d,%d,%d,%d) has negative offset %v,%v", sw, sh, cw, ch, f.OffsetX, f.OffsetY)
					}
					got := f.Width / f.Height
					want := float64(sw) / float64(sh)
					if d := got - want; d > 1e-9*want || d < -1e-9*want {
						t.Errorf("Fit(%d,%d,%d,%d) aspect %v; want %v", sw, sh, cw, ch, got, want)
					}

					cell := image.Rect(5, 5, 5+cw, 5+ch)
					if r := f.Rect(cell); !r.In(cell) {
						t.Errorf("Fit(%d,%d,%d,%d).Rect = %v outside %v", sw, sh, cw, ch, r, cell)
					}
				}
			}
		}
	}
}

func TestFitCenters(t *testing.T) {
	f := Fit(20, 10, 10, 10)
	ttesting.AssertInDelta(t, "scale", f.Scale, 0.5, 1e-9)
	ttesting.AssertInDelta(t, "width", f.Width, 10, 1e-9)
	ttesting.AssertInDelta(t, "height", f.Height, 5, 1e-9)
	ttesting.AssertInDelta(t, "offset x", f.OffsetX, 0, 1e-9)
	ttesting.AssertInDelta(t, "offset y", f.OffsetY, 2.5, 1e-9)

	up := Fit(4, 8, 64, 64)
	ttesting.AssertInDelta(t, "upscale", up.Scale, 8, 1e-9)
	ttesting.AssertInDelta(t, "upscale offset x", up.OffsetX, 16, 1e-9)
}

func TestRenderSkipsSpritesPastCapacity(t *testing.T) {
	var sprites []*sprite.Sprite
	for _, c := range palette {
		sprites = append(sprites, solidSprite(t, 8, 8, c))
	}
	cfg := grid.Config{Columns: 2, Rows: 2, CellWidth: 10, CellHeight: 10}

	img, err := New(DefaultOptions()).Render(context.Background(), sprites, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	ttesting.AssertEqualPoint(t, "canvas size", img.Bounds().Size(), image.Pt(20, 20))

	centers := []image.Point{{5, 5}, {15, 5}, {5, 15}, {15, 15}}
	for i, p := range centers {
		ttesting.AssertColorAt(t, fmt.Sprintf("cell %d", i), img, p.X, p.Y, palette[i])
	}
	if containsColor(img, palette[4]) {
		t.Errorf("sprite past capacity was drawn")
	}
}

func TestRenderCentersWideSprite(t *testing.T) {
	s := solidSprite(t, 20, 10, palette[0])
	cfg := grid.Config{Columns: 1, Rows: 1, CellWidth: 10, CellHeight: 10}

	img, err := New(DefaultOptions()).Render(context.Background(), []*sprite.Sprite{s}, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	ttesting.AssertColorAt(t, "above sprite", img, 5, 0, DefaultBackground)
	ttesting.AssertColorAt(t, "sprite", img, 5, 4, palette[0])
	ttesting.AssertColorAt(t, "below sprite", img, 5, 9, DefaultBackground)
}

func TestRenderGridLines(t *testing.T) {
	cfg := grid.Config{Columns: 2, Rows: 2, CellWidth: 10, CellHeight: 10, Gap: 2}

	img, err := New(DefaultOptions()).Render(context.Background(), nil, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	ttesting.AssertColorAt(t, "vertical separator", img, 11, 3, DefaultLineColor)
	ttesting.AssertColorAt(t, "horizontal separator", img, 3, 11, DefaultLineColor)
	ttesting.AssertColorAt(t, "gap beside separator", img, 10, 3, DefaultBackground)

	bare, err := New(Options{}).Render(context.Background(), nil, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	ttesting.AssertColorAt(t, "transparent without options", bare, 11, 3, color.RGBA{})
}

func TestRenderIsIdempotent(t *testing.T) {
	sprites := []*sprite.Sprite{
		solidSprite(t, 13, 7, palette[0]),
		solidSprite(t, 5, 17, palette[1]),
		solidSprite(t, 32, 32, palette[2]),
	}
	cfg := grid.Config{Columns: 2, Rows: 2, CellWidth: 24, CellHeight: 16, Gap: 3}
	r := New(DefaultOptions())

	a, err := r.Render(context.Background(), sprites, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := r.Render(context.Background(), sprites, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Errorf("two renders of the same input differ")
	}
}

func TestRenderSkipsReleasedSprite(t *testing.T) {
	live, gone := solidSprite(t, 8, 8, palette[0]), solidSprite(t, 8, 8, palette[1])
	gone.Release()
	cfg := grid.Config{Columns: 2, Rows: 1, CellWidth: 8, CellHeight: 8}

	img, err := New(DefaultOptions()).Render(context.Background(), []*sprite.Sprite{live, gone}, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	ttesting.AssertColorAt(t, "live cell", img, 4, 4, palette[0])
	ttesting.AssertColorAt(t, "released cell", img, 12, 4, DefaultBackground)

	if err := DrawCell(img, gone, img.Bounds(), nil); err == nil {
		t.Errorf("DrawCell of released sprite succeeded")
	} else if derr, ok := err.(*DrawError); !ok || derr.SpriteID != gone.ID {
		t.Errorf("got %v; want DrawError for %s", err, gone.ID)
	}
}

func TestRenderRejectsBadGridAndCancellation(t *testing.T) {
	r := New(DefaultOptions())
	if _, err := r.Render(context.Background(), nil, grid.Config{}); err == nil {
		t.Errorf("zero grid accepted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := solidSprite(t, 4, 4, palette[0])
	if _, err := r.Render(ctx, []*sprite.Sprite{s}, grid.Default); err == nil {
		t.Errorf("cancelled render succeeded")
	}
}

func TestRenderFrame(t *testing.T) {
	s := solidSprite(t, 40, 20, palette[2])
	img, err := RenderFrame(s, 300)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	ttesting.AssertEqualPoint(t, "frame size", img.Bounds().Size(), image.Pt(300, 150))

	boxed, err := RenderBoxed(s, 50, nil)
	if err != nil {
		t.Fatalf("RenderBoxed: %v", err)
	}
	ttesting.AssertEqualPoint(t, "boxed size", boxed.Bounds().Size(), image.Pt(50, 50))
	ttesting.AssertColorAt(t, "boxed margin", boxed, 25, 2, color.RGBA{})
	ttesting.AssertColorAt(t, "boxed sprite", boxed, 25, 25, palette[2])

	s.Release()
	if _, err := RenderFrame(s, 300); err == nil {
		t.Errorf("RenderFrame of released sprite succeeded")
	}
}

func TestPreviewerCoalesces(t *testing.T) {
	sched := &ttesting.FakeScheduler{}
	var (
		mu    sync.Mutex
		sizes []image.Point
	)
	p := NewPreviewer(New(DefaultOptions()), 0, sched, func(pv Preview) {
		if pv.Err != nil {
			t.Errorf("preview: %v", pv.Err)
			return
		}
		mu.Lock()
		sizes = append(sizes, pv.Image.Bounds().Size())
		mu.Unlock()
	})
	defer p.Close()

	cfg := grid.Config{Columns: 1, Rows: 1, CellWidth: 8, CellHeight: 8}
	p.Trigger(nil, cfg)
	if d := sched.Pending(); len(d) != 1 || d[0] != 0 {
		t.Fatalf("first trigger scheduled %v; want one immediate render", d)
	}
	sched.Fire()

	for cols := 2; cols <= 5; cols++ {
		cfg.Columns = cols
		p.Trigger(nil, cfg)
	}
	if d := sched.Pending(); len(d) != 1 || d[0] != DefaultDebounce {
		t.Fatalf("burst left %v pending; want one debounced render", d)
	}
	sched.Fire()
	if sched.Fire() {
		t.Errorf("extra render scheduled")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sizes) != 2 {
		t.Fatalf("rendered %d times; want 2", len(sizes))
	}
	ttesting.AssertEqualPoint(t, "newest input wins", sizes[1], image.Pt(40, 8))
}

func TestPreviewerClose(t *testing.T) {
	sched := &ttesting.FakeScheduler{}
	calls := 0
	p := NewPreviewer(New(DefaultOptions()), 0, sched, func(Preview) { calls++ })

	p.Trigger(nil, grid.Default)
	p.Close()
	sched.Fire()
	p.Trigger(nil, grid.Default)

	if calls != 0 {
		t.Errorf("rendered %d times after Close", calls)
	}
	if len(sched.Pending()) != 0 {
		t.Errorf("Close left timers pending")
	}
}
