package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/liveclass/polling/internal/dependencies/clock"
)

// MockClock is a manual Clock for tests. Scheduled callbacks run only when
// the clock is advanced past their deadline.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	timers  []*MockTimer
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// MockTimer is a callback registered with AfterFunc.
type MockTimer struct {
	clock   *MockClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewMockClock creates a MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run once the clock reaches now+d.
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTimer{clock: c, at: c.current.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and synchronously runs every due, unstopped callback
// in deadline order.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	due := c.dueLocked()
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

// Set sets the clock to the given time without firing timers.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (c *MockClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Timers returns every timer registered so far, including stopped ones.
func (c *MockClock) Timers() []*MockTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MockTimer(nil), c.timers...)
}

func (c *MockClock) dueLocked() []*MockTimer {
	var due []*MockTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.current) {
			t.fired = true
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	return due
}

// Stop prevents the timer from firing. Returns false if it already fired or was stopped.
func (t *MockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Fire runs the callback regardless of deadline or stop state. Used to simulate a
// timer that was already in flight when it was stopped.
func (t *MockTimer) Fire() {
	t.clock.mu.Lock()
	t.fired = true
	t.clock.mu.Unlock()
	t.fn()
}
