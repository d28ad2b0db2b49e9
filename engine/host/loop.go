package host

import (
	"sync"
	"time"
)

type pendingFrame struct {
	handle FrameHandle
	cb     FrameCallback
}

// loopImpl is the implementation of the Loop interface.
type loopImpl struct {
	mu *sync.Mutex

	next    FrameHandle
	pending []pendingFrame

	// firing holds the handles of the batch currently being run so a callback
	// can cancel a later callback of the same batch.
	firing map[FrameHandle]struct{}

	now func() time.Time
}

// Loop is a cooperative FrameTimer driven by the host's event loop.
// Each RunFrame call fires every callback requested before it started; callbacks requested
// while a frame runs are deferred to the next RunFrame.
type Loop interface {
	FrameTimer

	// RunFrame fires all pending callbacks in request order.
	//
	// Returns:
	//   - int: the number of callbacks fired
	RunFrame() int

	// Pending returns the number of outstanding requests.
	//
	// Returns:
	//   - int: requests waiting for the next RunFrame
	Pending() int
}

var _ Loop = &loopImpl{}

// NewLoop creates a new Loop with no pending requests.
//
// Parameters:
//   - options: functional options to configure the loop
//
// Returns:
//   - Loop: the newly created loop
func NewLoop(options ...LoopBuilderOption) Loop {
	l := &loopImpl{
		mu:     &sync.Mutex{},
		firing: make(map[FrameHandle]struct{}),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loopImpl) RequestFrame(cb FrameCallback) FrameHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.pending = append(l.pending, pendingFrame{handle: l.next, cb: cb})
	return l.next
}

func (l *loopImpl) CancelFrame(handle FrameHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.firing[handle]; ok {
		delete(l.firing, handle)
		return
	}
	for i, p := range l.pending {
		if p.handle == handle {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			return
		}
	}
}

func (l *loopImpl) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *loopImpl) RunFrame() int {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	for _, p := range batch {
		l.firing[p.handle] = struct{}{}
	}
	now := l.now()
	l.mu.Unlock()

	fired := 0
	for _, p := range batch {
		if !l.take(p.handle) {
			continue
		}
		p.cb(now)
		fired++
	}
	return fired
}

// take removes handle from the firing set and reports whether it was still present.
func (l *loopImpl) take(handle FrameHandle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.firing[handle]; !ok {
		return false
	}
	delete(l.firing, handle)
	return true
}
