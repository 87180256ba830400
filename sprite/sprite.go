// Package sprite decodes source images into sprites and keeps the ordered
// collection that a sheet is composed from.
//
// A Sprite's natural width and height are taken from the decoded image once,
// when it is loaded, and never recomputed. The decoded pixels live behind a
// Handle which is owned by exactly one Sprite and released exactly once, when
// the Sprite is removed from its Collection.
package sprite

import (
	"image"
	"sync"

	"github.com/pkg/errors"
)

// ErrReleased is returned when a released handle is used.
var ErrReleased = errors.New("sprite: image handle released")

type Sprite struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// Format is the decoder name reported by Decode ("png", "jpeg", "tga"...).
	Format string `json:"format"`
	// Source holds the original encoded bytes, if kept.
	Source []byte `json:"-"`

	handle *Handle
}

// Handle returns the decoded image handle.
func (s *Sprite) Handle() *Handle {
	return s.handle
}

// Size returns the natural size of the sprite.
func (s *Sprite) Size() image.Point {
	return image.Pt(s.Width, s.Height)
}

// Release frees the decoded image. Only the first call succeeds.
func (s *Sprite) Release() error {
	return s.handle.Release()
}

// Handle is a drawable decoded image.
type Handle struct {
	mu  sync.RWMutex
	img image.Image
}

// NewHandle wraps an already decoded image.
func NewHandle(img image.Image) *Handle {
	return &Handle{img: img}
}

// Image returns the decoded image, or ErrReleased.
func (h *Handle) Image() (image.Image, error) {
	if h == nil {
		return nil, ErrReleased
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.img == nil {
		return nil, ErrReleased
	}
	return h.img, nil
}

// Release drops the decoded image. Subsequent calls return ErrReleased.
func (h *Handle) Release() error {
	if h == nil {
		return ErrReleased
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.img == nil {
		return ErrReleased
	}
	h.img = nil
	return nil
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	_, err := h.Image()
	return err != nil
}
