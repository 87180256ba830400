// Package schedule abstracts delayed callbacks so that timer driven code
// (debounced previews, animation playback) can be driven by hand in tests.
package schedule

import "time"

// Timer is a pending callback. Stop reports whether it prevented the call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Real is backed by time.AfterFunc.
var Real Scheduler = realScheduler{}
