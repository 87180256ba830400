// Package session holds everything a user is working on: the sprite
// collection with its order and the grid, animation and export
// configurations. Configuration updates are partial and validated here, so
// an invalid configuration never reaches a renderer.
package session

import (
	"fmt"
	"hash/adler32"
	"sync"

	"github.com/golang/glog"

	"badc0de.net/pkg/go-spritesheet/animation"
	"badc0de.net/pkg/go-spritesheet/export"
	"badc0de.net/pkg/go-spritesheet/grid"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

// Change says what part of a session an Event is about.
type Change int

const (
	SpritesChanged Change = iota
	OrderChanged
	GridChanged
	AnimationChanged
	ExportChanged
	Reset
)

func (c Change) String() string {
	switch c {
	case SpritesChanged:
		return "sprites"
	case OrderChanged:
		return "order"
	case GridChanged:
		return "grid"
	case AnimationChanged:
		return "animation"
	case ExportChanged:
		return "export"
	case Reset:
		return "reset"
	}
	return fmt.Sprintf("Change(%d)", int(c))
}

// Affects reports whether the change can alter the rendered sheet.
func (c Change) Affects() bool {
	switch c {
	case SpritesChanged, OrderChanged, GridChanged, Reset:
		return true
	}
	return false
}

type Event struct {
	Change  Change
	Version uint64
}

type Session struct {
	sprites *sprite.Collection

	mu        sync.RWMutex
	grid      grid.Config
	animation animation.Config
	export    export.Config
	version   uint64

	lmu       sync.Mutex
	listeners map[int]func(Event)
	nextID    int
}

// New returns an empty session with default configurations.
func New() *Session {
	return NewFrom(State{
		Grid:      grid.Default,
		Animation: animation.Default,
		Export:    export.Default,
	})
}

// State is the configuration part of a session, plus its sprites in order.
type State struct {
	Sprites   []*sprite.Sprite
	Order     []string
	Grid      grid.Config
	Animation animation.Config
	Export    export.Config
}

// NewFrom builds a session from saved state. Invalid configurations are
// replaced by their defaults. If Order is nil the sprites are ordered as
// given.
func NewFrom(st State) *Session {
	s := &Session{
		sprites:   sprite.NewCollection(),
		grid:      st.Grid,
		animation: st.Animation,
		export:    st.Export,
		listeners: make(map[int]func(Event)),
	}
	if err := s.grid.Validate(); err != nil {
		glog.Warningf("session: %v; using default grid", err)
		s.grid = grid.Default
	}
	if err := s.animation.Validate(); err != nil {
		glog.Warningf("session: %v; using default animation", err)
		s.animation = animation.Default
	}
	if err := s.export.Validate(); err != nil {
		glog.Warningf("session: %v; using default export", err)
		s.export = export.Default
	}
	// Playback never survives a reload.
	s.animation.Playing = false

	for _, sp := range st.Sprites {
		if err := s.sprites.Add(sp); err != nil {
			glog.Warningf("session: %v", err)
		}
	}
	if st.Order != nil {
		s.sprites.Reorder(st.Order)
	}
	return s
}

// Subscribe registers f to be called after every change. f runs on the
// goroutine that made the change, with no session lock held. The returned
// function unregisters f.
func (s *Session) Subscribe(f func(Event)) (cancel func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = f
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) changed(c Change) {
	s.mu.Lock()
	s.version++
	ev := Event{Change: c, Version: s.version}
	s.mu.Unlock()

	s.lmu.Lock()
	ls := make([]func(Event), 0, len(s.listeners))
	for _, f := range s.listeners {
		ls = append(ls, f)
	}
	s.lmu.Unlock()

	glog.V(2).Infof("session: %v changed (version %d)", c, ev.Version)
	for _, f := range ls {
		f(ev)
	}
}

func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// AddSprite appends sp to the collection and to the end of the order.
func (s *Session) AddSprite(sp *sprite.Sprite) error {
	if err := s.sprites.Add(sp); err != nil {
		return err
	}
	s.changed(SpritesChanged)
	return nil
}

// RemoveSprite removes the sprite and its order entry and releases its
// image. It reports whether the sprite existed.
func (s *Session) RemoveSprite(id string) bool {
	if !s.sprites.Remove(id) {
		return false
	}
	s.changed(SpritesChanged)
	return true
}

// ClearSprites removes every sprite. Configurations are kept.
func (s *Session) ClearSprites() {
	s.sprites.Clear()
	s.changed(SpritesChanged)
}

// Reorder replaces the order. Unknown ids are kept and ignored when the
// order is resolved.
func (s *Session) Reorder(order []string) {
	s.sprites.Reorder(order)
	s.changed(OrderChanged)
}

// MoveSprite moves id to the position target holds.
func (s *Session) MoveSprite(id, target string) bool {
	if !s.sprites.MoveBefore(id, target) {
		return false
	}
	s.changed(OrderChanged)
	return true
}

func (s *Session) Sprite(id string) (*sprite.Sprite, bool) {
	return s.sprites.Get(id)
}

// Sprites returns the sprites in resolved order.
func (s *Session) Sprites() []*sprite.Sprite {
	return s.sprites.Ordered()
}

func (s *Session) Order() []string {
	return s.sprites.Order()
}

func (s *Session) Grid() grid.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

func (s *Session) Animation() animation.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.animation
}

func (s *Session) Export() export.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.export
}

// UpdateGrid merges p into the grid configuration. On error the
// configuration is unchanged.
func (s *Session) UpdateGrid(p grid.Patch) (grid.Config, error) {
	s.mu.Lock()
	n, err := s.grid.Apply(p)
	if err != nil {
		s.mu.Unlock()
		return n, err
	}
	s.grid = n
	s.mu.Unlock()

	s.changed(GridChanged)
	return n, nil
}

func (s *Session) UpdateAnimation(p animation.Patch) (animation.Config, error) {
	s.mu.Lock()
	n, err := s.animation.Apply(p)
	if err != nil {
		s.mu.Unlock()
		return n, err
	}
	s.animation = n
	s.mu.Unlock()

	s.changed(AnimationChanged)
	return n, nil
}

func (s *Session) UpdateExport(p export.Patch) (export.Config, error) {
	s.mu.Lock()
	n, err := s.export.Apply(p)
	if err != nil {
		s.mu.Unlock()
		return n, err
	}
	s.export = n
	s.mu.Unlock()

	s.changed(ExportChanged)
	return n, nil
}

// Reset clears the sprites and restores every configuration to its
// default.
func (s *Session) Reset() {
	s.sprites.Clear()
	s.mu.Lock()
	s.grid = grid.Default
	s.animation = animation.Default
	s.export = export.Default
	s.mu.Unlock()
	s.changed(Reset)
}

// Snapshot is a consistent copy of a session for rendering or saving.
type Snapshot struct {
	Sprites   sprite.Snapshot
	Grid      grid.Config
	Animation animation.Config
	Export    export.Config
	Version   uint64
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Sprites:   s.sprites.Snapshot(),
		Grid:      s.grid,
		Animation: s.animation,
		Export:    s.export,
		Version:   s.version,
	}
}

// Ordered returns the sprites of the snapshot in resolved order.
func (sn Snapshot) Ordered() []*sprite.Sprite {
	return sn.Sprites.Ordered()
}

// Signature identifies what the sheet of this snapshot looks like: the
// resolved sprite ids in order and the grid. Two snapshots with the same
// signature render the same sheet.
func (sn Snapshot) Signature() uint32 {
	return Signature(sn.Ordered(), sn.Grid)
}

// Signature of an already resolved sprite list on g.
func Signature(sprites []*sprite.Sprite, g grid.Config) uint32 {
	h := adler32.New()
	fmt.Fprintf(h, "%s;", g)
	for _, sp := range sprites {
		fmt.Fprintf(h, "%s,", sp.ID)
	}
	return h.Sum32()
}
