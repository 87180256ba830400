package sprite

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Collection is the set of loaded sprites plus the order they are displayed
// and exported in. The order may hold ids of sprites that no longer exist;
// consumers resolve it with Resolve, which drops them.
type Collection struct {
	mu      sync.RWMutex
	sprites map[string]*Sprite
	order   []string
}

func NewCollection() *Collection {
	return &Collection{
		sprites: make(map[string]*Sprite),
	}
}

// Add appends s to the collection and to the end of the order.
func (c *Collection) Add(s *Sprite) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sprites[s.ID]; ok {
		return fmt.Errorf("sprite: duplicate id %s", s.ID)
	}
	c.sprites[s.ID] = s
	c.order = append(c.order, s.ID)
	return nil
}

// Remove deletes the sprite from the collection and the order, and releases
// its image handle. It reports whether the sprite existed.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	s, ok := c.sprites[id]
	delete(c.sprites, id)
	c.order = without(c.order, id)
	c.mu.Unlock()

	if !ok {
		return false
	}
	if err := s.Release(); err != nil {
		glog.Warningf("sprite %s: %v", id, err)
	}
	return true
}

// Clear removes and releases every sprite.
func (c *Collection) Clear() {
	c.mu.Lock()
	old := c.sprites
	c.sprites = make(map[string]*Sprite)
	c.order = nil
	c.mu.Unlock()

	for id, s := range old {
		if err := s.Release(); err != nil {
			glog.Warningf("sprite %s: %v", id, err)
		}
	}
}

// Reorder replaces the order. Ids are not checked against the collection.
func (c *Collection) Reorder(order []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = append([]string(nil), order...)
}

// MoveBefore moves id to the index target currently occupies, the way
// dropping a dragged list entry onto another one does.
func (c *Collection) MoveBefore(id, target string) bool {
	if id == target {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	from, to := indexOf(c.order, id), indexOf(c.order, target)
	if from < 0 || to < 0 {
		return false
	}
	order := append(c.order[:from:from], c.order[from+1:]...)
	order = append(order[:to], append([]string{id}, order[to:]...)...)
	c.order = order
	return true
}

func (c *Collection) Get(id string) (*Sprite, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sprites[id]
	return s, ok
}

// Len returns the number of sprites, regardless of the order.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sprites)
}

// Order returns a copy of the current order.
func (c *Collection) Order() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Snapshot returns a copy of the collection that later mutations do not
// affect. The sprites themselves are shared.
func (c *Collection) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := make(map[string]*Sprite, len(c.sprites))
	for id, s := range c.sprites {
		m[id] = s
	}
	return Snapshot{
		Sprites: m,
		Order:   append([]string(nil), c.order...),
	}
}

// Ordered resolves the current order.
func (c *Collection) Ordered() []*Sprite {
	return c.Snapshot().Ordered()
}

// Snapshot is a point-in-time copy of a Collection.
type Snapshot struct {
	Sprites map[string]*Sprite
	Order   []string
}

func (s Snapshot) Ordered() []*Sprite {
	return Resolve(s.Sprites, s.Order)
}

// Resolve maps each id in order to its sprite, dropping ids with no sprite.
// The result follows order exactly and is never longer than it.
func Resolve(sprites map[string]*Sprite, order []string) []*Sprite {
	out := make([]*Sprite, 0, len(order))
	for _, id := range order {
		if s, ok := sprites[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
