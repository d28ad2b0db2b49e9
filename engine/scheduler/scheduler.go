// Package scheduler drives the multi-scene render loop. A Scheduler owns one outstanding frame
// request at a time; each frame it resizes the shared renderer when the canvas changed, pins the
// canvas to the scroll offset and draws every active scene unit into the viewport of its page
// element.
package scheduler

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pano/engine/scene"
	"github.com/Carmen-Shannon/oxy-pano/engine/viewport"
)

// ErrNotScheduled is returned by Render when no frame is pending.
var ErrNotScheduled = errors.New("render called while no frame is scheduled")

// State is the scheduler's position in its frame cycle.
type State int

const (
	// StateIdle means no frame is requested.
	StateIdle State = iota
	// StateScheduled means exactly one frame request is outstanding.
	StateScheduled
	// StateRendering means a frame is being drawn.
	StateRendering
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateRendering:
		return "rendering"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats holds cumulative frame counters.
type Stats struct {
	// Frames counts frames that reached the renderer.
	Frames uint64
	// Rendered counts unit draws.
	Rendered uint64
	// Culled counts active units skipped because their element was off-screen or missing.
	Culled uint64
	// Skipped counts inactive units passed over.
	Skipped uint64
	// Failures counts units whose update or draw returned an error or panicked.
	Failures uint64
}

// Renderer is the drawing surface the scheduler drives. Sizes and rectangles are in page pixels.
type Renderer interface {
	// Size returns the size the renderer was last resized to.
	Size() common.Size

	// Resize reconfigures the drawing surface.
	//
	// Parameters:
	//   - width, height: the new size in page pixels
	Resize(width, height int)

	// SetClearColor sets the color the frame is cleared to.
	SetClearColor(c color.RGBA)

	// SetScissorTest enables or disables clipping draws to the scissor rectangle.
	SetScissorTest(enabled bool)

	// BeginFrame acquires the next frame and clears it.
	//
	// Returns:
	//   - error: an error if no frame could be acquired
	BeginFrame() error

	// SetViewport sets the rectangle subsequent draws map clip space into.
	SetViewport(v common.Viewport)

	// SetScissor sets the rectangle subsequent draws are clipped to.
	SetScissor(v common.Viewport)

	// Render draws d into the current viewport.
	//
	// Returns:
	//   - error: an error if the draw could not be encoded
	Render(d model.Drawable) error

	// EndFrame submits the frame's commands.
	EndFrame()

	// Present displays the finished frame.
	Present()
}

// schedulerImpl is the implementation of the Scheduler interface.
type schedulerImpl struct {
	mu *sync.Mutex

	timer    host.FrameTimer
	renderer Renderer
	doc      host.Document
	canvas   host.Canvas

	units []scene.Unit

	state         State
	handle        host.FrameHandle
	stopRequested bool

	clearColor  color.RGBA
	scissorTest bool
	maxDelta    time.Duration
	lastFrame   time.Time
	profiler    *profiler.Profiler

	stats Stats
}

// Scheduler runs the render loop over a set of scene units.
//
// All frame work runs inside the frame timer's callback. Start and Stop may be called from
// within a frame; the loop honours the last call.
type Scheduler interface {
	// Start requests the next frame. Does nothing while a frame is already scheduled. While a frame
	// is rendering it cancels a pending Stop so the loop continues.
	//
	// Returns:
	//   - bool: true if a new frame request was issued
	Start() bool

	// Stop cancels the pending frame request. While a frame is rendering, that frame completes
	// and no further frame is requested.
	Stop()

	// Render draws the scheduled frame immediately and cancels the pending request. The loop is
	// re-armed afterwards as if the frame had fired.
	//
	// Parameters:
	//   - now: the frame timestamp
	//
	// Returns:
	//   - error: ErrNotScheduled unless a frame is scheduled
	Render(now time.Time) error

	// State returns the current state.
	State() State

	// Add appends a unit to the render order.
	//
	// Parameters:
	//   - unit: the unit to draw when active
	Add(unit scene.Unit)

	// Units returns the units in render order.
	Units() []scene.Unit

	// SetClearColor sets the color each frame is cleared to.
	//
	// Parameters:
	//   - c: the clear color
	SetClearColor(c color.RGBA)

	// SetProfiler attaches a profiler fed once per frame. Pass nil to detach.
	//
	// Parameters:
	//   - p: the profiler, or nil
	SetProfiler(p *profiler.Profiler)

	// Stats returns the cumulative frame counters.
	Stats() Stats
}

var _ Scheduler = &schedulerImpl{}

// NewScheduler creates an idle Scheduler.
//
// Parameters:
//   - timer: the frame timer issuing frame callbacks, usually the shared clock
//   - renderer: the renderer all units draw through
//   - doc: the document supplying the scroll offset
//   - canvas: the canvas whose client size is the visible viewport
//   - options: functional options to configure the scheduler
//
// Returns:
//   - Scheduler: the newly created scheduler
func NewScheduler(timer host.FrameTimer, renderer Renderer, doc host.Document, canvas host.Canvas, options ...SchedulerBuilderOption) Scheduler {
	s := &schedulerImpl{
		mu:          &sync.Mutex{},
		timer:       timer,
		renderer:    renderer,
		doc:         doc,
		canvas:      canvas,
		clearColor:  color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
		scissorTest: true,
		maxDelta:    100 * time.Millisecond,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *schedulerImpl) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateScheduled:
		return false
	case StateRendering:
		s.stopRequested = false
		return false
	}
	s.handle = s.timer.RequestFrame(s.onFrame)
	s.state = StateScheduled
	return true
}

func (s *schedulerImpl) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateScheduled:
		s.timer.CancelFrame(s.handle)
		s.handle = 0
		s.state = StateIdle
		s.lastFrame = time.Time{}
	case StateRendering:
		s.stopRequested = true
	}
}

func (s *schedulerImpl) Render(now time.Time) error {
	s.mu.Lock()
	if s.state != StateScheduled {
		s.mu.Unlock()
		return ErrNotScheduled
	}
	s.timer.CancelFrame(s.handle)
	s.mu.Unlock()

	s.onFrame(now)
	return nil
}

func (s *schedulerImpl) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *schedulerImpl) Add(unit scene.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = append(s.units, unit)
}

func (s *schedulerImpl) Units() []scene.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.units)
}

func (s *schedulerImpl) SetClearColor(c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearColor = c
}

func (s *schedulerImpl) SetProfiler(p *profiler.Profiler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiler = p
}

func (s *schedulerImpl) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// onFrame is the frame callback. It ignores callbacks that no longer match a scheduled request.
func (s *schedulerImpl) onFrame(now time.Time) {
	s.mu.Lock()
	if s.state != StateScheduled {
		s.mu.Unlock()
		return
	}
	s.state = StateRendering
	s.handle = 0
	s.stopRequested = false

	var dt time.Duration
	if !s.lastFrame.IsZero() {
		dt = min(max(now.Sub(s.lastFrame), 0), s.maxDelta)
	}
	s.lastFrame = now
	units := slices.Clone(s.units)
	bg := s.clearColor
	scissor := s.scissorTest
	s.mu.Unlock()

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Scheduler] recovered panic in frame: %v", r)
			}
		}()
		s.drawFrame(float32(dt.Seconds()), units, bg, scissor)
	}()

	s.mu.Lock()
	stop := s.stopRequested
	s.stopRequested = false
	s.state = StateIdle
	if stop {
		s.lastFrame = time.Time{}
	}
	s.mu.Unlock()

	if !stop {
		s.Start()
	}
}

// drawFrame renders one frame of every active unit.
func (s *schedulerImpl) drawFrame(dt float32, units []scene.Unit, bg color.RGBA, scissor bool) {
	s.updateSize()
	s.canvas.SetTranslateY(s.doc.ScrollY())

	s.renderer.SetClearColor(bg)
	s.renderer.SetScissorTest(scissor)
	if err := s.renderer.BeginFrame(); err != nil {
		log.Printf("[Scheduler] skipping frame: %v", err)
		return
	}

	var rendered, culled, inactive, failed int
	for _, u := range units {
		if !u.Active() {
			inactive++
			continue
		}
		drawn, err := s.drawUnit(u, dt)
		switch {
		case err != nil:
			failed++
			log.Printf("[Scheduler] unit %s: %v", u.ID(), err)
		case drawn:
			rendered++
		default:
			culled++
		}
	}

	s.renderer.EndFrame()
	s.renderer.Present()

	s.mu.Lock()
	s.stats.Frames++
	s.stats.Rendered += uint64(rendered)
	s.stats.Culled += uint64(culled)
	s.stats.Skipped += uint64(inactive)
	s.stats.Failures += uint64(failed)
	p := s.profiler
	s.mu.Unlock()

	if p != nil {
		p.RecordFrame(rendered, culled, inactive)
		p.Tick()
	}
}

// drawUnit advances one unit and draws it when its element is on screen. Panics are returned
// as errors so one unit cannot take down the frame.
func (s *schedulerImpl) drawUnit(u scene.Unit, dt float32) (drawn bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			drawn = false
			err = fmt.Errorf("recovered panic: %v", r)
		}
	}()

	u.Update(dt)
	u.Compositor().CompositeFrame()

	el, elErr := u.Element()
	if elErr != nil {
		return false, nil
	}
	vp, ok := viewport.Compute(el, s.canvas)
	if !ok {
		return false, nil
	}

	s.renderer.SetViewport(vp)
	s.renderer.SetScissor(vp)
	if err := s.renderer.Render(u); err != nil {
		return false, err
	}
	return true, nil
}

// updateSize resizes the renderer when the canvas client size no longer matches it.
func (s *schedulerImpl) updateSize() {
	size := s.canvas.ClientSize()
	if size != s.renderer.Size() {
		s.renderer.Resize(size.Width, size.Height)
	}
}
