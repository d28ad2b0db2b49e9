// Package clock provides the shared animation clock. A Clock re-arms itself on every host frame
// and fans each tick out to its subscribers, then fires the one-shot frame requests made
// during the previous tick.
package clock

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/engine/host"
)

// Tick is the payload delivered to subscribers once per frame.
type Tick struct {
	// Seq counts ticks since the clock was created, starting at 1.
	Seq uint64
	// Time is the timestamp supplied by the host frame timer.
	Time time.Time
	// Delta is the time since the previous tick, zero on the first tick after Start.
	Delta time.Duration
}

// Handler receives ticks.
type Handler func(Tick)

// SubscriptionID identifies a subscriber for Unsubscribe.
type SubscriptionID uint64

// Stats is a snapshot of clock counters.
type Stats struct {
	Ticks       uint64
	Subscribers int
	Failures    uint64
}

type subscription struct {
	id      SubscriptionID
	handler Handler
}

type oneShot struct {
	handle host.FrameHandle
	cb     host.FrameCallback
}

// clockImpl is the implementation of the Clock interface.
type clockImpl struct {
	mu *sync.Mutex

	timer host.FrameTimer

	running bool
	pending host.FrameHandle

	seq      uint64
	lastTime time.Time
	maxDelta time.Duration

	nextID SubscriptionID
	subs   []subscription
	live   map[SubscriptionID]struct{}

	nextHandle host.FrameHandle
	oneShots   []oneShot
	firing     map[host.FrameHandle]struct{}

	failures atomic.Uint64
}

// Clock is a self-rescheduling per-frame tick source.
//
// Clock also implements host.FrameTimer: a RequestFrame made during tick N fires during tick N+1,
// after the subscribers of that tick. This lets frame consumers share the clock's single host request.
type Clock interface {
	host.FrameTimer

	// Start begins the tick sequence. Calling Start on a running clock does nothing.
	//
	// Returns:
	//   - bool: true if the clock transitioned from stopped to running
	Start() bool

	// Stop cancels the pending host frame request. Subscribers stay registered.
	Stop()

	// Running reports whether the clock is ticking.
	Running() bool

	// Subscribe registers a handler for every subsequent tick. Handlers run in subscription order.
	// A panicking handler is logged and skipped; the remaining handlers and the clock keep running.
	//
	// Parameters:
	//   - handler: the tick handler
	//
	// Returns:
	//   - SubscriptionID: identifier for Unsubscribe
	Subscribe(handler Handler) SubscriptionID

	// Unsubscribe removes a handler. It will not be called again, including for the tick in progress.
	//
	// Parameters:
	//   - id: the identifier returned by Subscribe
	//
	// Returns:
	//   - bool: true if the subscription existed
	Unsubscribe(id SubscriptionID) bool

	// Stats returns the current counters.
	Stats() Stats
}

var _ Clock = &clockImpl{}

// NewClock creates a stopped Clock driven by the given host frame timer.
//
// Parameters:
//   - timer: the host frame timer that paces ticks
//   - options: functional options to configure the clock
//
// Returns:
//   - Clock: the newly created clock
func NewClock(timer host.FrameTimer, options ...ClockBuilderOption) Clock {
	c := &clockImpl{
		mu:     &sync.Mutex{},
		timer:  timer,
		live:   make(map[SubscriptionID]struct{}),
		firing: make(map[host.FrameHandle]struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *clockImpl) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return false
	}
	c.running = true
	c.lastTime = time.Time{}
	c.pending = c.timer.RequestFrame(c.tick)
	return true
}

func (c *clockImpl) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	if c.pending != 0 {
		c.timer.CancelFrame(c.pending)
		c.pending = 0
	}
}

func (c *clockImpl) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *clockImpl) Subscribe(handler Handler) SubscriptionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.subs = append(c.subs, subscription{id: c.nextID, handler: handler})
	c.live[c.nextID] = struct{}{}
	return c.nextID
}

func (c *clockImpl) Unsubscribe(id SubscriptionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live[id]; !ok {
		return false
	}
	delete(c.live, id)
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	return true
}

func (c *clockImpl) RequestFrame(cb host.FrameCallback) host.FrameHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextHandle++
	c.oneShots = append(c.oneShots, oneShot{handle: c.nextHandle, cb: cb})
	return c.nextHandle
}

func (c *clockImpl) CancelFrame(handle host.FrameHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.firing[handle]; ok {
		delete(c.firing, handle)
		return
	}
	for i, o := range c.oneShots {
		if o.handle == handle {
			c.oneShots = append(c.oneShots[:i], c.oneShots[i+1:]...)
			return
		}
	}
}

func (c *clockImpl) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Ticks:       c.seq,
		Subscribers: len(c.subs),
		Failures:    c.failures.Load(),
	}
}

// tick is the host frame callback. The next host frame is requested before any
// subscriber runs so a failing subscriber can never stall the clock.
func (c *clockImpl) tick(now time.Time) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.pending = c.timer.RequestFrame(c.tick)

	c.seq++
	var delta time.Duration
	if !c.lastTime.IsZero() {
		delta = now.Sub(c.lastTime)
		if c.maxDelta > 0 && delta > c.maxDelta {
			delta = c.maxDelta
		}
	}
	c.lastTime = now
	t := Tick{Seq: c.seq, Time: now, Delta: delta}

	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	shots := c.oneShots
	c.oneShots = nil
	for _, o := range shots {
		c.firing[o.handle] = struct{}{}
	}
	c.mu.Unlock()

	for _, s := range subs {
		if !c.subscribed(s.id) {
			continue
		}
		c.deliver(func() { s.handler(t) })
	}
	for _, o := range shots {
		if !c.takeFiring(o.handle) {
			continue
		}
		c.deliver(func() { o.cb(now) })
	}
}

// subscribed reports whether id is still registered.
func (c *clockImpl) subscribed(id SubscriptionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live[id]
	return ok
}

// takeFiring removes handle from the firing set and reports whether it had not been cancelled.
func (c *clockImpl) takeFiring(handle host.FrameHandle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.firing[handle]; !ok {
		return false
	}
	delete(c.firing, handle)
	return true
}

// deliver runs fn, containing and logging any panic.
func (c *clockImpl) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.failures.Add(1)
			log.Printf("[Clock] tick handler recovered from panic: %v", r)
		}
	}()
	fn()
}
