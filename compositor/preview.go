package compositor

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/golang/glog"

	"badc0de.net/pkg/go-spritesheet/grid"
	"badc0de.net/pkg/go-spritesheet/schedule"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

// DefaultDebounce is how long the previewer waits for further changes
// before rendering.
const DefaultDebounce = 100 * time.Millisecond

// Previewer keeps a live preview up to date. Every Trigger supersedes the
// previous one; a render happens once no new Trigger has arrived for the
// debounce window, using the newest input. The very first Trigger renders
// without waiting.
type Previewer struct {
	renderer *Renderer
	window   time.Duration
	sched    schedule.Scheduler
	onRender func(Preview)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending *previewInput
	timer   schedule.Timer
	mounted bool
	closed  bool
}

type previewInput struct {
	sprites []*sprite.Sprite
	grid    grid.Config
}

// Preview is a finished render together with the input it was drawn from.
type Preview struct {
	Image   *image.RGBA
	Err     error
	Sprites []*sprite.Sprite
	Grid    grid.Config
}

// NewPreviewer calls onRender with every finished preview. A zero window
// means DefaultDebounce; a nil sched means schedule.Real.
func NewPreviewer(r *Renderer, window time.Duration, sched schedule.Scheduler, onRender func(Preview)) *Previewer {
	if window <= 0 {
		window = DefaultDebounce
	}
	if sched == nil {
		sched = schedule.Real
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Previewer{
		renderer: r,
		window:   window,
		sched:    sched,
		onRender: onRender,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Trigger schedules a render of sprites on cfg. sprites must be a snapshot
// the caller does not modify afterwards.
func (p *Previewer) Trigger(sprites []*sprite.Sprite, cfg grid.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pending = &previewInput{sprites: sprites, grid: cfg}
	if p.timer != nil {
		p.timer.Stop()
	}
	delay := p.window
	if !p.mounted {
		p.mounted = true
		delay = 0
	}
	p.timer = p.sched.AfterFunc(delay, p.fire)
}

// Flush renders the pending input now, if there is one.
func (p *Previewer) Flush() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	p.fire()
}

// Close drops pending input and aborts a render in progress. No callback
// is made after Close returns, except one already running.
func (p *Previewer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.pending = nil
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.cancel()
}

func (p *Previewer) fire() {
	p.mu.Lock()
	in := p.pending
	p.pending = nil
	closed := p.closed
	p.mu.Unlock()

	if in == nil || closed {
		return
	}

	img, err := p.renderer.Render(p.ctx, in.sprites, in.grid)
	if err != nil {
		glog.Errorf("preview render failed: %v", err)
	}
	if p.onRender != nil {
		p.onRender(Preview{Image: img, Err: err, Sprites: in.sprites, Grid: in.grid})
	}
}
