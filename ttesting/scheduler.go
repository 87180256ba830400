package ttesting

import (
	"sync"
	"time"

	"badc0de.net/pkg/go-spritesheet/schedule"
)

// FakeScheduler records requested delays and only runs callbacks when Fire
// is called.
type FakeScheduler struct {
	mu      sync.Mutex
	pending []*FakeTimer
	delays  []time.Duration
}

type FakeTimer struct {
	s       *FakeScheduler
	Delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) schedule.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &FakeTimer{s: s, Delay: d, f: f}
	s.pending = append(s.pending, t)
	s.delays = append(s.delays, d)
	return t
}

func (t *FakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Fire runs the oldest live timer. It reports false if there was none.
func (s *FakeScheduler) Fire() bool {
	s.mu.Lock()
	var next *FakeTimer
	for len(s.pending) > 0 {
		t := s.pending[0]
		s.pending = s.pending[1:]
		if !t.stopped {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}

// Pending returns the delays of timers that have neither fired nor been
// stopped, oldest first.
func (s *FakeScheduler) Pending() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, t := range s.pending {
		if !t.stopped {
			out = append(out, t.Delay)
		}
	}
	return out
}

// Delays returns every delay ever requested, in order.
func (s *FakeScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}
