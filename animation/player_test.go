package animation

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"badc0de.net/pkg/go-spritesheet/sprite"
	"badc0de.net/pkg/go-spritesheet/ttesting"
)

type recorder struct {
	mu      sync.Mutex
	frames  []int
	commits []int
}

func (r *recorder) onFrame(i int, _ *image.RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, i)
}

func (r *recorder) onCommit(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, i)
}

func sprites(t *testing.T, n int) []*sprite.Sprite {
	t.Helper()
	var out []*sprite.Sprite
	for i := 0; i < n; i++ {
		s, err := sprite.Load(fmt.Sprintf("%d.png", i), ttesting.SolidPNG(t, 4, 4, color.RGBA{uint8(i * 40), 0, 0, 0xff}))
		if err != nil {
			t.Fatalf("loading sprite: %v", err)
		}
		out = append(out, s)
	}
	return out
}

func newTestPlayer(t *testing.T, cfg Config, src Source) (*Player, *ttesting.FakeScheduler, *recorder) {
	t.Helper()
	sched := &ttesting.FakeScheduler{}
	rec := &recorder{}
	p, err := NewPlayer(cfg, src, Options{
		Scheduler: sched,
		Box:       16,
		OnFrame:   rec.onFrame,
		OnCommit:  rec.onCommit,
	})
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	return p, sched, rec
}

func TestPlayerWrapsAround(t *testing.T) {
	ss := sprites(t, 3)
	p, sched, rec := newTestPlayer(t, Default, func() []*sprite.Sprite { return ss })

	p.Play()
	if p.State() != Playing {
		t.Fatalf("state %v after Play; want playing", p.State())
	}
	if d := sched.Pending(); len(d) != 1 || d[0] != time.Second/12 {
		t.Fatalf("pending %v; want one tick of %v", d, time.Second/12)
	}

	for i := 0; i < 3; i++ {
		sched.Fire()
	}
	ttesting.AssertEqualInt(t, "frame after a full cycle", p.Frame(), 0)

	want := []int{0, 1, 2, 0}
	rec.mu.Lock()
	got := append([]int(nil), rec.frames...)
	rec.mu.Unlock()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("frames %v; want %v", got, want)
	}
}

func TestPlayerRateChangeAppliesToNextTick(t *testing.T) {
	ss := sprites(t, 2)
	p, sched, _ := newTestPlayer(t, Default, func() []*sprite.Sprite { return ss })

	p.Play()
	if err := p.SetFrameRate(24); err != nil {
		t.Fatalf("SetFrameRate: %v", err)
	}
	if d := sched.Pending(); len(d) != 1 || d[0] != time.Second/12 {
		t.Fatalf("pending %v; the scheduled tick should keep its delay", d)
	}
	sched.Fire()
	if d := sched.Pending(); len(d) != 1 || d[0] != time.Second/24 {
		t.Errorf("pending %v; want the new rate", d)
	}

	if err := p.SetFrameRate(0); err == nil {
		t.Errorf("frame rate 0 accepted")
	}
	if err := p.SetFrameRate(MaxFrameRate + 1); err == nil {
		t.Errorf("frame rate %d accepted", MaxFrameRate+1)
	}
	ttesting.AssertEqualInt(t, "rate after rejected changes", p.FrameRate(), 24)
}

func TestPlayerStopCommitsOnce(t *testing.T) {
	ss := sprites(t, 4)
	p, sched, rec := newTestPlayer(t, Default, func() []*sprite.Sprite { return ss })

	p.Play()
	sched.Fire()
	sched.Fire()
	p.Stop()
	p.Stop()

	if len(sched.Pending()) != 0 {
		t.Errorf("Stop left a tick pending")
	}
	if sched.Fire() {
		t.Errorf("a cancelled tick still fired")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.commits) != 1 || rec.commits[0] != 2 {
		t.Errorf("commits %v; want exactly [2]", rec.commits)
	}
	ttesting.AssertEqualInt(t, "committed", p.Committed(), 2)
}

func TestPlayerResumesFromCommittedFrame(t *testing.T) {
	ss := sprites(t, 4)
	p, sched, rec := newTestPlayer(t, Default, func() []*sprite.Sprite { return ss })

	p.Play()
	sched.Fire()
	if s := p.Toggle(); s != Stopped {
		t.Fatalf("Toggle returned %v; want stopped", s)
	}
	if s := p.Toggle(); s != Playing {
		t.Fatalf("Toggle returned %v; want playing", s)
	}
	sched.Fire()
	ttesting.AssertEqualInt(t, "frame", p.Frame(), 2)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if fmt.Sprint(rec.frames) != fmt.Sprint([]int{0, 1, 1, 2}) {
		t.Errorf("frames %v", rec.frames)
	}
}

func TestPlayerClampsWhenSpritesShrink(t *testing.T) {
	ss := sprites(t, 5)
	var mu sync.Mutex
	current := ss
	src := func() []*sprite.Sprite {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	p, sched, _ := newTestPlayer(t, Config{FrameRate: 10, CurrentFrame: 4}, src)

	p.Play()
	mu.Lock()
	current = ss[:2]
	mu.Unlock()
	sched.Fire()
	ttesting.AssertEqualInt(t, "frame after shrinking to 2", p.Frame(), 0)

	mu.Lock()
	current = nil
	mu.Unlock()
	sched.Fire()
	ttesting.AssertEqualInt(t, "frame with no sprites", p.Frame(), 0)
	if len(sched.Pending()) != 1 {
		t.Errorf("playback with no sprites stopped ticking")
	}
}

func TestPlayerSetFrameWhileStopped(t *testing.T) {
	ss := sprites(t, 3)
	p, sched, rec := newTestPlayer(t, Default, func() []*sprite.Sprite { return ss })

	if err := p.SetFrame(5); err != nil {
		t.Fatalf("SetFrame: %v", err)
	}
	if err := p.SetFrame(-1); err == nil {
		t.Errorf("negative frame accepted")
	}
	if len(sched.Pending()) != 0 {
		t.Errorf("SetFrame while stopped scheduled a tick")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.frames) != 1 || rec.frames[0] != 2 {
		t.Errorf("frames %v; want [2]", rec.frames)
	}
	if len(rec.commits) != 0 {
		t.Errorf("SetFrame committed %v", rec.commits)
	}
}

func TestPlayerClose(t *testing.T) {
	ss := sprites(t, 2)
	p, sched, rec := newTestPlayer(t, Default, func() []*sprite.Sprite { return ss })

	p.Play()
	p.Close()
	p.Play()

	if p.State() != Stopped {
		t.Errorf("Play after Close started playback")
	}
	if len(sched.Pending()) != 0 {
		t.Errorf("Close left a tick pending")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.commits) != 1 {
		t.Errorf("commits %v; want one", rec.commits)
	}
}

func TestPlayerConcurrentTogglesAlternate(t *testing.T) {
	ss := sprites(t, 3)
	p, _, rec := newTestPlayer(t, Default, func() []*sprite.Sprite { return ss })

	const n = 50
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = map[State]int{}
	)
	for i := 0; i < 2*n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := p.Toggle()
			mu.Lock()
			counts[st]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	ttesting.AssertEqualInt(t, "toggles that started playback", counts[Playing], n)
	ttesting.AssertEqualInt(t, "toggles that stopped playback", counts[Stopped], n)
	if p.State() != Stopped {
		t.Errorf("state %v after an even number of toggles; want stopped", p.State())
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	ttesting.AssertEqualInt(t, "commits", len(rec.commits), n)
}

func TestConfigApply(t *testing.T) {
	fps := 30
	c, err := Default.Apply(Patch{FrameRate: &fps})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	ttesting.AssertEqualInt(t, "frame rate", c.FrameRate, 30)
	if c.Delay() != time.Second/30 {
		t.Errorf("delay %v", c.Delay())
	}

	bad := 61
	c2, err := c.Apply(Patch{FrameRate: &bad})
	if err == nil {
		t.Fatalf("frame rate 61 accepted")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("error %T; want *ConfigError", err)
	}
	ttesting.AssertEqualInt(t, "unchanged on error", c2.FrameRate, 30)

	if _, err := NewPlayer(Config{}, nil, Options{}); err == nil {
		t.Errorf("NewPlayer accepted zero frame rate")
	}
}
