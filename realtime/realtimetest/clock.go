package realtimetest

import (
	"context"
	"sync"
	"testing"
	"time"
)

// AfterCall is one call to FakeClock.After.
type AfterCall struct {
	D   time.Duration
	Ctx context.Context

	mtx   sync.Mutex
	ch    chan time.Time
	fired bool
	done  bool
	taken bool
	now   time.Time
}

// Fire makes the timer go off. It reports false if the timer was already
// fired or cancelled.
func (a *AfterCall) Fire() bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.fired || a.done {
		return false
	}
	a.fired = true
	a.ch <- a.now.Add(a.D)
	return true
}

func (a *AfterCall) cancel() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.fired || a.done {
		return
	}
	a.done = true
	close(a.ch)
}

func (a *AfterCall) pending() bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return !a.fired && !a.done && a.Ctx.Err() == nil
}

// FakeClock is a TimerFunc whose timers only go off when a test fires them.
type FakeClock struct {
	mtx   sync.Mutex
	now   time.Time
	calls []*AfterCall
}

func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)}
}

// After has the signature of rtutil.After. The returned channel is closed
// when ctx is done before the call is fired.
func (c *FakeClock) After(ctx context.Context, d time.Duration) <-chan time.Time {
	c.mtx.Lock()
	call := &AfterCall{D: d, Ctx: ctx, ch: make(chan time.Time, 1), now: c.now}
	c.calls = append(c.calls, call)
	c.mtx.Unlock()

	go func() {
		<-ctx.Done()
		call.cancel()
	}()
	return call.ch
}

func (c *FakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

// Advance moves Now forward. It does not fire timers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}

// Pending returns the timers that are neither fired nor cancelled.
func (c *FakeClock) Pending() []*AfterCall {
	c.mtx.Lock()
	calls := append([]*AfterCall(nil), c.calls...)
	c.mtx.Unlock()

	var pending []*AfterCall
	for _, call := range calls {
		if call.pending() {
			pending = append(pending, call)
		}
	}
	return pending
}

// PendingFor returns how many pending timers wait for d.
func (c *FakeClock) PendingFor(d time.Duration) int {
	n := 0
	for _, call := range c.Pending() {
		if call.D == d {
			n++
		}
	}
	return n
}

// Next waits for a pending timer for d that no earlier Next returned.
func (c *FakeClock) Next(t *testing.T, d time.Duration) *AfterCall {
	t.Helper()
	var found *AfterCall
	ok := Soon.IsTrue(func() bool {
		for _, call := range c.Pending() {
			call.mtx.Lock()
			if call.D == d && !call.taken {
				call.taken = true
				call.mtx.Unlock()
				found = call
				return true
			}
			call.mtx.Unlock()
		}
		return false
	})
	if !ok {
		t.Fatalf("timed out waiting for a %v timer", d)
	}
	return found
}

// Fire waits for the next pending timer for d and fires it.
func (c *FakeClock) Fire(t *testing.T, d time.Duration) {
	t.Helper()
	if !c.Next(t, d).Fire() {
		t.Fatalf("%v timer was cancelled before it could fire", d)
	}
}
