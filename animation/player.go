package animation

import (
	"image"
	"sync"

	"github.com/golang/glog"

	"badc0de.net/pkg/go-spritesheet/compositor"
	"badc0de.net/pkg/go-spritesheet/schedule"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Source returns the current ordered sprites. It is called on every tick so
// that sprites added, removed or reordered during playback are picked up.
type Source func() []*sprite.Sprite

type Options struct {
	// Scheduler runs ticks. Defaults to schedule.Real.
	Scheduler schedule.Scheduler
	// Box is the edge of the square frames are fitted into.
	Box int
	// OnFrame receives every drawn frame with its index. It is called with
	// the player locked and must not call back into the Player.
	OnFrame func(frame int, img *image.RGBA)
	// OnCommit receives the frame index when playback stops. It is called
	// once per stop, without the player locked.
	OnCommit func(frame int)
}

// Player is the playback state machine. While playing, the frame counter is
// only kept locally; it is handed to OnCommit when playback stops.
type Player struct {
	source Source
	sched  schedule.Scheduler
	box    int

	onFrame  func(int, *image.RGBA)
	onCommit func(int)

	mu        sync.Mutex
	state     State
	frameRate int
	committed int
	frame     int
	timer     schedule.Timer
	gen       uint64
	closed    bool
}

// NewPlayer returns a stopped player positioned at cfg.CurrentFrame. The
// Playing flag of cfg is ignored; call Play.
func NewPlayer(cfg Config, source Source, opts Options) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Real
	}
	if opts.Box <= 0 {
		opts.Box = compositor.DefaultPreviewBox
	}
	return &Player{
		source:    source,
		sched:     opts.Scheduler,
		box:       opts.Box,
		onFrame:   opts.OnFrame,
		onCommit:  opts.OnCommit,
		frameRate: cfg.FrameRate,
		committed: cfg.CurrentFrame,
		frame:     cfg.CurrentFrame,
	}, nil
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Frame returns the frame currently displayed.
func (p *Player) Frame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// Committed returns the frame index last handed to OnCommit or set with
// SetFrame.
func (p *Player) Committed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.committed
}

func (p *Player) FrameRate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameRate
}

// Play starts playback from the committed frame. The committed frame is
// shown at once and the first tick is one frame period later.
func (p *Player) Play() {
	sprites := p.source()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.playLocked(sprites)
}

func (p *Player) playLocked(sprites []*sprite.Sprite) {
	if p.closed || p.state == Playing {
		return
	}
	p.state = Playing
	p.gen++
	p.frame = p.committed
	glog.V(1).Infof("animation: playing from frame %d at %d fps", p.frame, p.frameRate)
	p.drawLocked(sprites)
	p.scheduleLocked()
}

// Stop halts playback, cancels the pending tick and commits the displayed
// frame. Stopping a stopped player does nothing.
func (p *Player) Stop() {
	p.stop(false)
}

// Toggle switches between playing and stopped and returns the new state.
// The check and the switch happen atomically, so concurrent toggles
// alternate.
func (p *Player) Toggle() State {
	sprites := p.source()

	p.mu.Lock()
	if p.state != Playing {
		p.playLocked(sprites)
		state := p.state
		p.mu.Unlock()
		return state
	}
	frame, _ := p.stopLocked()
	p.mu.Unlock()

	p.commit(frame)
	return Stopped
}

// Close stops playback for good. Later calls to Play are ignored.
func (p *Player) Close() {
	p.stop(true)
}

func (p *Player) stop(closing bool) {
	p.mu.Lock()
	if closing {
		p.closed = true
	}
	frame, stopped := p.stopLocked()
	p.mu.Unlock()

	if stopped {
		p.commit(frame)
	}
}

// stopLocked stops a playing player and reports the frame to commit.
func (p *Player) stopLocked() (frame int, stopped bool) {
	if p.state != Playing {
		return 0, false
	}
	p.state = Stopped
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.committed = p.frame
	return p.frame, true
}

// commit runs OnCommit. It must be called without p.mu held.
func (p *Player) commit(frame int) {
	glog.V(1).Infof("animation: stopped at frame %d", frame)
	if p.onCommit != nil {
		p.onCommit(frame)
	}
}

// SetFrameRate changes the rate. A tick already scheduled keeps its delay;
// the one after it uses the new rate.
func (p *Player) SetFrameRate(fps int) error {
	if !validFrameRate(fps) {
		return &ConfigError{Field: "frameRate", Value: fps}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameRate = fps
	return nil
}

// SetFrame is an external change of the committed frame. While stopped the
// new frame is drawn immediately; while playing, playback continues from it.
func (p *Player) SetFrame(frame int) error {
	if frame < 0 {
		return &ConfigError{Field: "currentFrame", Value: frame}
	}
	sprites := p.source()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.committed = frame
	p.frame = frame
	if p.state == Stopped && !p.closed {
		p.drawLocked(sprites)
	}
	return nil
}

func (p *Player) scheduleLocked() {
	gen := p.gen
	p.timer = p.sched.AfterFunc(frameDelay(p.frameRate), func() { p.tick(gen) })
}

func (p *Player) tick(gen uint64) {
	sprites := p.source()

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.state != Playing {
		return
	}

	if n := len(sprites); n > 0 {
		if p.frame >= n {
			p.frame = n - 1
		}
		p.frame = (p.frame + 1) % n
	} else {
		p.frame = 0
	}
	p.drawLocked(sprites)
	p.scheduleLocked()
}

func (p *Player) drawLocked(sprites []*sprite.Sprite) {
	if len(sprites) == 0 || p.onFrame == nil {
		return
	}
	i := p.frame % len(sprites)
	img, err := compositor.RenderFrame(sprites[i], p.box)
	if err != nil {
		glog.Errorf("animation: frame %d: %v", i, err)
		return
	}
	p.onFrame(i, img)
}
