// Package animation plays the ordered sprites back as a flipbook, one frame
// at a time, at a configurable frame rate.
package animation

import (
	"fmt"
	"time"
)

// MaxFrameRate is the fastest rate the player accepts.
const MaxFrameRate = 60

type Config struct {
	FrameRate    int  `json:"frameRate"`
	Playing      bool `json:"isPlaying"`
	CurrentFrame int  `json:"currentFrame"`
}

var Default = Config{
	FrameRate: 12,
}

type ConfigError struct {
	Field string
	Value int
}

func (e *ConfigError) Error() string {
	switch e.Field {
	case "frameRate":
		return fmt.Sprintf("animation: frame rate must be between 1 and %d, got %d", MaxFrameRate, e.Value)
	default:
		return fmt.Sprintf("animation: %s must not be negative, got %d", e.Field, e.Value)
	}
}

func validFrameRate(fps int) bool {
	return fps >= 1 && fps <= MaxFrameRate
}

func (c Config) Validate() error {
	if !validFrameRate(c.FrameRate) {
		return &ConfigError{Field: "frameRate", Value: c.FrameRate}
	}
	if c.CurrentFrame < 0 {
		return &ConfigError{Field: "currentFrame", Value: c.CurrentFrame}
	}
	return nil
}

// Delay is the time between two frames.
func (c Config) Delay() time.Duration {
	return frameDelay(c.FrameRate)
}

func frameDelay(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	FrameRate    *int  `json:"frameRate,omitempty"`
	Playing      *bool `json:"isPlaying,omitempty"`
	CurrentFrame *int  `json:"currentFrame,omitempty"`
}

// Apply merges p into a copy of c and validates it. On error c is returned
// unchanged.
func (c Config) Apply(p Patch) (Config, error) {
	n := c
	if p.FrameRate != nil {
		n.FrameRate = *p.FrameRate
	}
	if p.Playing != nil {
		n.Playing = *p.Playing
	}
	if p.CurrentFrame != nil {
		n.CurrentFrame = *p.CurrentFrame
	}
	if err := n.Validate(); err != nil {
		return c, err
	}
	return n, nil
}
