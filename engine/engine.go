package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/clock"
	"github.com/Carmen-Shannon/oxy-pano/engine/compositor"
	"github.com/Carmen-Shannon/oxy-pano/engine/config"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pano/engine/scene"
	"github.com/Carmen-Shannon/oxy-pano/engine/scheduler"
)

var (
	// ErrUnknownScene is returned when a scene id does not match any unit.
	ErrUnknownScene = errors.New("unknown scene")

	// ErrNoRenderer is returned by Init when no renderer was configured.
	ErrNoRenderer = errors.New("no renderer configured")

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("engine already initialized")
)

// pose is a controller's spherical position, kept so cameras can be reset.
type pose struct {
	azimuth   float32
	elevation float32
	radius    float32
}

// engine is the implementation of the Engine interface.
type engine struct {
	mu *sync.Mutex

	cfg       config.Config
	stages    []loader.Stage
	stagesSet bool
	loader    loader.Loader

	page     host.Page
	timer    host.FrameTimer
	renderer scheduler.Renderer

	opener      media.Opener
	videoOpener media.VideoOpener

	clock     clock.Clock
	scheduler scheduler.Scheduler
	pool      worker.DynamicWorkerPool
	mesh      *model.Mesh

	profiler         *profiler.Profiler
	profilingEnabled bool
	profilingSet     bool

	units     []scene.Unit
	byID      map[string]scene.Unit
	byElement map[string]scene.Unit
	home      map[string]pose

	dragging         scene.Unit
	cursorX, cursorY float32

	initialized bool
	closed      bool
}

// Engine builds one scene unit per stage, lays them out on the host page and drives them from a
// shared clock through the render scheduler.
//
// Input from an InputSurface is routed to the unit under the pointer: drags orbit its camera and
// the wheel zooms it. Over empty page space the wheel scrolls the page.
type Engine interface {
	// Init loads the stage list when none was supplied, opens every stage's videos, creates and
	// binds the units, applies the configured active set and starts the clock and scheduler.
	//
	// Parameters:
	//   - ctx: cancels outstanding video opens
	//
	// Returns:
	//   - error: ErrNoRenderer, ErrAlreadyInitialized, a stage load error or ctx.Err()
	Init(ctx context.Context) error

	// OnResize refreshes every unit's camera aspect from its element, active or not. The
	// renderer itself is resized by the scheduler on the next frame.
	OnResize()

	// SetActive includes or excludes a unit from rendering.
	//
	// Parameters:
	//   - id: the unit id
	//   - active: the new state
	//
	// Returns:
	//   - error: ErrUnknownScene if no unit has the id
	SetActive(id string, active bool) error

	// Units returns the units in stage order.
	Units() []scene.Unit

	// Unit looks up a unit by id.
	//
	// Parameters:
	//   - id: the unit id
	//
	// Returns:
	//   - scene.Unit: the unit, or nil
	//   - bool: true if found
	Unit(id string) (scene.Unit, bool)

	// Page returns the host page the units are laid out on.
	Page() host.Page

	// FrameTimer returns the host frame timer pacing the clock.
	FrameTimer() host.FrameTimer

	// Clock returns the shared animation clock, nil before Init.
	Clock() clock.Clock

	// Scheduler returns the render scheduler, nil before Init.
	Scheduler() scheduler.Scheduler

	// Profiler returns the engine profiler.
	Profiler() *profiler.Profiler

	// SetProfiling attaches or detaches the profiler from the render loop.
	//
	// Parameters:
	//   - enabled: true to collect and log frame statistics
	SetProfiling(enabled bool)

	// Profiling reports whether the profiler is attached.
	Profiling() bool

	// ResetCameras restores every unit's camera to the pose it had after Init.
	ResetCameras()

	// TogglePause stops the scheduler when it is running and restarts it otherwise.
	//
	// Returns:
	//   - bool: true if the scheduler is now running
	TogglePause() bool

	// BindInput registers the engine's handlers on an input surface.
	//
	// Parameters:
	//   - surface: the window or other event source
	BindInput(surface InputSurface)

	// HandleKey applies a key binding.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	HandleKey(keyCode uint32)

	// HandleWheel zooms the unit under the cursor, or scrolls the page when there is none.
	//
	// Parameters:
	//   - delta: wheel delta, positive when rolled away from the user
	HandleWheel(delta float32)

	// HandlePointerDown starts a drag on the active unit under x, y.
	HandlePointerDown(x, y float32)

	// HandlePointerMove feeds the current drag and records the cursor position.
	HandlePointerMove(x, y float32)

	// HandlePointerUp ends the current drag.
	HandlePointerUp(x, y float32)

	// Close stops the scheduler and clock and releases every unit's videos.
	//
	// Returns:
	//   - error: the joined unit close errors
	Close() error
}

var _ Engine = &engine{}

// NewEngine creates a new Engine. Without options it uses config.Default, a page sized from
// that config and a fresh host.Loop as frame timer. A renderer must be supplied with
// WithRenderer before Init.
//
// Parameters:
//   - options: functional options to configure the engine
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:        &sync.Mutex{},
		cfg:       config.Default(),
		byID:      make(map[string]scene.Unit),
		byElement: make(map[string]scene.Unit),
		home:      make(map[string]pose),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.page == nil {
		e.page = host.NewPage(
			host.WithViewportSize(e.cfg.Page.Width, e.cfg.Page.Height),
			host.WithItemSize(e.cfg.Page.ItemWidth, e.cfg.Page.ItemHeight),
			host.WithCaptionHeight(e.cfg.Page.CaptionHeight),
			host.WithGap(e.cfg.Page.Gap),
		)
	}
	if e.timer == nil {
		e.timer = host.NewLoop()
	}
	if e.loader == nil {
		e.loader = loader.NewLoader()
	}
	if e.opener == nil {
		opts := []media.OpenerBuilderOption{media.WithBaseDir(e.cfg.AssetDir)}
		if e.videoOpener != nil {
			opts = append(opts, media.WithVideoOpener(e.videoOpener))
		}
		e.opener = media.NewOpener(opts...)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}
	if !e.profilingSet {
		e.profilingEnabled = e.cfg.Profiling
	}
	return e
}

func (e *engine) Init(ctx context.Context) error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return ErrAlreadyInitialized
	}
	if e.renderer == nil {
		e.mu.Unlock()
		return ErrNoRenderer
	}
	e.initialized = true
	e.mu.Unlock()

	if err := e.init(ctx); err != nil {
		e.mu.Lock()
		e.initialized = false
		e.units = nil
		clear(e.byID)
		clear(e.byElement)
		clear(e.home)
		e.mu.Unlock()
		return err
	}
	return nil
}

// init builds the scenes and starts the frame loop. A failed scene tears down everything
// built so far.
func (e *engine) init(ctx context.Context) error {
	stages, err := e.loadStages()
	if err != nil {
		return err
	}

	clearColor, err := e.cfg.ClearColor()
	if err != nil {
		return fmt.Errorf("clear color: %w", err)
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = max(runtime.NumCPU()/2, 1)
	}
	e.pool = worker.NewDynamicWorkerPool(workers, 16, 1*time.Second)
	e.mesh = model.NewSphere(
		model.WithName("panorama-sphere"),
		model.WithRadius(e.cfg.Sphere.Radius),
		model.WithSegments(e.cfg.Sphere.WidthSegments, e.cfg.Sphere.HeightSegments),
	)

	e.clock = clock.NewClock(e.timer, clock.WithMaxDelta(e.cfg.MaxDelta()))
	schedulerOpts := []scheduler.SchedulerBuilderOption{
		scheduler.WithClearColor(clearColor),
		scheduler.WithMaxDelta(e.cfg.MaxDelta()),
	}
	if e.profilingEnabled {
		schedulerOpts = append(schedulerOpts, scheduler.WithProfiler(e.profiler))
	}
	e.scheduler = scheduler.NewScheduler(e.clock, e.renderer, e.page, e.page, schedulerOpts...)

	for i, stage := range stages {
		u, err := e.buildUnit(ctx, i, stage)
		if err != nil {
			return errors.Join(err, e.teardown())
		}
		e.scheduler.Add(u)
	}
	log.Printf("[Engine] initialized %d scenes", len(stages))

	e.clock.Start()
	e.scheduler.Start()
	return nil
}

// loadStages returns the stages supplied with WithStages, or loads the configured stage list.
func (e *engine) loadStages() ([]loader.Stage, error) {
	if e.stagesSet {
		for _, s := range e.stages {
			if err := s.Validate(); err != nil {
				return nil, err
			}
		}
		return e.stages, nil
	}
	stages, err := e.loader.Load(e.cfg.StagesPath)
	if err != nil {
		return nil, fmt.Errorf("load stages: %w", err)
	}
	return stages, nil
}

// buildUnit opens the stage's videos and creates, lays out and binds its unit.
func (e *engine) buildUnit(ctx context.Context, index int, stage loader.Stage) (scene.Unit, error) {
	urls := make([]string, len(stage.Videos))
	for i, v := range stage.Videos {
		urls[i] = v.URL
	}
	videos, err := media.OpenVideos(ctx, e.opener, urls, e.cfg.VideoLimit)
	if err != nil {
		return nil, fmt.Errorf("open videos for stage %d: %w", index, err)
	}

	controller := camera.NewCameraController(
		camera.WithRotateSpeed(e.cfg.Controls.RotateSpeed),
		camera.WithZoomSpeed(e.cfg.Controls.ZoomSpeed),
		camera.WithDamping(e.cfg.Controls.Damping),
		camera.WithAutoRotate(e.cfg.Controls.AutoRotate),
	)
	cam := camera.NewCamera(
		camera.WithFovDegrees(e.cfg.Camera.FovDegrees),
		camera.WithNear(e.cfg.Camera.Near),
		camera.WithFar(e.cfg.Camera.Far),
	)

	options := []scene.UnitBuilderOption{
		scene.WithCamera(cam),
		scene.WithController(controller),
		scene.WithCompositor(compositor.NewCompositor(
			compositor.WithSize(e.cfg.Canvas.Width, e.cfg.Canvas.Height),
			compositor.WithWorkerPool(e.pool),
		)),
		scene.WithMesh(e.mesh),
		scene.WithOpener(e.opener),
		scene.WithVideos(videos),
		scene.WithActive(e.cfg.IsActive(index)),
	}

	if id := e.freeID(stage.Name, index); id != stage.Name {
		options = append(options, scene.WithID(id))
	}

	u := scene.NewUnit(stage, options...)

	label := "Scene " + stage.Name
	if stage.Name == "" {
		label = fmt.Sprintf("Scene %d", index+1)
	}
	e.page.AppendSlot(u.ID(), label)
	if err := u.Bind(e.page, u.ID()); err != nil {
		log.Printf("[Engine] scene %s: %v", u.ID(), err)
	}
	u.SyncAspect(e.page.ClientSize())

	e.mu.Lock()
	e.units = append(e.units, u)
	e.byID[u.ID()] = u
	e.byElement[u.ElementID()] = u
	e.home[u.ID()] = pose{
		azimuth:   controller.Azimuth(),
		elevation: controller.Elevation(),
		radius:    controller.Radius(),
	}
	e.mu.Unlock()
	return u, nil
}

// freeID returns name when no unit uses it yet, otherwise the first free "name-N" with N
// counting up from index. Unnamed stages get a generated id from the unit.
func (e *engine) freeID(name string, index int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "" {
		return name
	}
	id := name
	for n := index; ; n++ {
		if _, taken := e.byID[id]; !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d", name, n)
	}
}

func (e *engine) OnResize() {
	size := e.page.ClientSize()
	for _, u := range e.Units() {
		u.SyncAspect(size)
	}
}

func (e *engine) SetActive(id string, active bool) error {
	u, ok := e.Unit(id)
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrUnknownScene)
	}
	u.SetActive(active)
	if !active {
		e.mu.Lock()
		if e.dragging == u {
			e.dragging = nil
		}
		e.mu.Unlock()
	}
	return nil
}

func (e *engine) Units() []scene.Unit {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]scene.Unit, len(e.units))
	copy(out, e.units)
	return out
}

func (e *engine) Unit(id string) (scene.Unit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.byID[id]
	return u, ok
}

func (e *engine) Page() host.Page {
	return e.page
}

func (e *engine) FrameTimer() host.FrameTimer {
	return e.timer
}

func (e *engine) Clock() clock.Clock {
	return e.clock
}

func (e *engine) Scheduler() scheduler.Scheduler {
	return e.scheduler
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) SetProfiling(enabled bool) {
	e.mu.Lock()
	e.profilingEnabled = enabled
	s := e.scheduler
	e.mu.Unlock()

	if s == nil {
		return
	}
	if enabled {
		s.SetProfiler(e.profiler)
	} else {
		s.SetProfiler(nil)
	}
	log.Printf("[Engine] profiling %v", enabled)
}

func (e *engine) Profiling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profilingEnabled
}

func (e *engine) ResetCameras() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range e.units {
		p, ok := e.home[u.ID()]
		if !ok {
			continue
		}
		c := u.Controller()
		c.PointerUp()
		c.SetAzimuth(p.azimuth)
		c.SetElevation(p.elevation)
		c.SetRadius(p.radius)
	}
}

func (e *engine) TogglePause() bool {
	s := e.Scheduler()
	if s == nil {
		return false
	}
	if s.State() == scheduler.StateIdle {
		s.Start()
		return true
	}
	s.Stop()
	return false
}

func (e *engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.dragging = nil
	e.mu.Unlock()

	return e.teardown()
}

// teardown stops the frame loop, closes every unit and stops the worker pool.
func (e *engine) teardown() error {
	e.mu.Lock()
	s, c, pool := e.scheduler, e.clock, e.pool
	e.pool = nil
	e.mu.Unlock()

	if s != nil {
		s.Stop()
	}
	if c != nil {
		c.Stop()
	}
	err := e.closeUnits()
	if pool != nil {
		pool.Stop()
	}
	return err
}

// closeUnits closes every unit created so far.
func (e *engine) closeUnits() error {
	var errs []error
	for _, u := range e.Units() {
		if err := u.Close(); err != nil {
			errs = append(errs, fmt.Errorf("scene %s: %w", u.ID(), err))
		}
	}
	return errors.Join(errs...)
}
