package scheduler

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/compositor"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	size      common.Size
	resizes   []common.Size
	clear     color.RGBA
	scissor   bool
	viewports []common.Viewport
	scissors  []common.Viewport
	drawn     []string
	begins    int
	ends      int
	presents  int

	beginErr  error
	renderErr map[string]error
	panicOn   string
}

func (f *fakeRenderer) Size() common.Size { return f.size }

func (f *fakeRenderer) Resize(width, height int) {
	f.size = common.Size{Width: width, Height: height}
	f.resizes = append(f.resizes, f.size)
}

func (f *fakeRenderer) SetClearColor(c color.RGBA)    { f.clear = c }
func (f *fakeRenderer) SetScissorTest(enabled bool)   { f.scissor = enabled }
func (f *fakeRenderer) SetViewport(v common.Viewport) { f.viewports = append(f.viewports, v) }
func (f *fakeRenderer) SetScissor(v common.Viewport)  { f.scissors = append(f.scissors, v) }
func (f *fakeRenderer) EndFrame()                     { f.ends++ }
func (f *fakeRenderer) Present()                      { f.presents++ }

func (f *fakeRenderer) BeginFrame() error {
	f.begins++
	return f.beginErr
}

func (f *fakeRenderer) Render(d model.Drawable) error {
	if d.ID() == f.panicOn {
		panic("boom")
	}
	if err := f.renderErr[d.ID()]; err != nil {
		return err
	}
	f.drawn = append(f.drawn, d.ID())
	return nil
}

func (f *fakeRenderer) count(id string) int {
	n := 0
	for _, d := range f.drawn {
		if d == id {
			n++
		}
	}
	return n
}

type fixture struct {
	loop     host.Loop
	page     host.Page
	renderer *fakeRenderer
	units    []scene.Unit
	sched    Scheduler
}

// newFixture lays out one slot per name on a 1280x720 page. The first unit is active.
func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := &fixture{
		loop:     host.NewLoop(),
		page:     host.NewPage(),
		renderer: &fakeRenderer{},
	}
	for i, name := range names {
		u := scene.NewUnit(loader.Stage{Name: name},
			scene.WithCompositor(compositor.NewCompositor(compositor.WithSize(4, 2), compositor.WithWorkers(1))),
			scene.WithActive(i == 0),
		)
		f.page.AppendSlot(name, "Scene "+name)
		require.NoError(t, u.Bind(f.page, name))
		f.units = append(f.units, u)
	}
	f.sched = NewScheduler(f.loop, f.renderer, f.page, f.page, WithUnits(f.units...))
	t.Cleanup(func() {
		for _, u := range f.units {
			_ = u.Close()
		}
	})
	return f
}

func TestStartIsIdempotent(t *testing.T) {
	f := newFixture(t, "a")

	assert.Equal(t, StateIdle, f.sched.State())
	assert.True(t, f.sched.Start())
	assert.False(t, f.sched.Start())
	assert.Equal(t, StateScheduled, f.sched.State())
	assert.Equal(t, 1, f.loop.Pending())

	assert.Equal(t, 1, f.loop.RunFrame())
	assert.Equal(t, 1, f.renderer.begins)
	assert.Equal(t, StateScheduled, f.sched.State())
	assert.Equal(t, 1, f.loop.Pending())
}

func TestStopCancelsPendingFrame(t *testing.T) {
	f := newFixture(t, "a")
	f.sched.Start()
	f.sched.Stop()

	assert.Equal(t, StateIdle, f.sched.State())
	assert.Equal(t, 0, f.loop.Pending())
	assert.Equal(t, 0, f.loop.RunFrame())
	assert.Equal(t, 0, f.renderer.begins)

	f.sched.Stop()
	assert.Equal(t, StateIdle, f.sched.State())
}

func TestStopDuringRenderFinishesFrame(t *testing.T) {
	f := newFixture(t, "a")
	hook := &stopOnRender{fakeRenderer: f.renderer}
	f.sched = NewScheduler(f.loop, hook, f.page, f.page, WithUnits(f.units...))
	hook.sched = f.sched

	f.sched.Start()
	f.loop.RunFrame()

	assert.Equal(t, 1, f.renderer.presents)
	assert.Equal(t, StateIdle, f.sched.State())
	assert.Equal(t, 0, f.loop.Pending())
}

func TestStartAfterStopDuringRenderContinues(t *testing.T) {
	f := newFixture(t, "a")
	hook := &stopOnRender{fakeRenderer: f.renderer, restart: true}
	f.sched = NewScheduler(f.loop, hook, f.page, f.page, WithUnits(f.units...))
	hook.sched = f.sched

	f.sched.Start()
	f.loop.RunFrame()

	assert.False(t, hook.started, "start during rendering must not request a frame")
	assert.Equal(t, StateScheduled, f.sched.State())
	assert.Equal(t, 1, f.loop.Pending())
}

// stopOnRender calls Stop, and optionally Start, from inside the frame being rendered.
type stopOnRender struct {
	*fakeRenderer
	sched   Scheduler
	restart bool
	started bool
}

func (s *stopOnRender) Render(d model.Drawable) error {
	s.sched.Stop()
	if s.restart {
		s.started = s.sched.Start()
	}
	return s.fakeRenderer.Render(d)
}

type countingCompositor struct {
	compositor.Compositor
	composites int
}

func (c *countingCompositor) CompositeFrame() int {
	c.composites++
	return c.Compositor.CompositeFrame()
}

type countingController struct {
	camera.CameraController
	updates int
}

func (c *countingController) Update(dt float32) bool {
	c.updates++
	return c.CameraController.Update(dt)
}

func TestInactiveUnitsAreSkipped(t *testing.T) {
	f := newFixture(t, "a", "b")
	comps := make([]*countingCompositor, 2)
	ctrls := make([]*countingController, 2)
	for i, name := range []string{"a", "b"} {
		comps[i] = &countingCompositor{Compositor: compositor.NewCompositor(compositor.WithSize(4, 2), compositor.WithWorkers(1))}
		ctrls[i] = &countingController{CameraController: camera.NewCameraController()}
		u := scene.NewUnit(loader.Stage{Name: name},
			scene.WithCompositor(comps[i]),
			scene.WithController(ctrls[i]),
			scene.WithActive(i == 0),
		)
		require.NoError(t, u.Bind(f.page, name))
		_ = f.units[i].Close()
		f.units[i] = u
	}
	f.sched = NewScheduler(f.loop, f.renderer, f.page, f.page, WithUnits(f.units...))
	f.sched.Start()

	for range 10 {
		f.loop.RunFrame()
	}

	assert.Equal(t, 10, f.renderer.count("a"))
	assert.Equal(t, 0, f.renderer.count("b"))
	assert.Equal(t, 10, comps[0].composites)
	assert.Equal(t, 0, comps[1].composites)
	assert.Equal(t, 10, ctrls[0].updates)
	assert.Equal(t, 0, ctrls[1].updates)
	stats := f.sched.Stats()
	assert.Equal(t, uint64(10), stats.Frames)
	assert.Equal(t, uint64(10), stats.Rendered)
	assert.Equal(t, uint64(10), stats.Skipped)
}

func TestActivationTakesEffectNextFrame(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.sched.Start()
	f.loop.RunFrame()

	f.units[1].SetActive(true)
	f.loop.RunFrame()

	assert.Equal(t, []string{"a", "a", "b"}, f.renderer.drawn)
}

func TestRenderMisuse(t *testing.T) {
	f := newFixture(t, "a")
	assert.ErrorIs(t, f.sched.Render(time.Now()), ErrNotScheduled)
	assert.Equal(t, 0, f.renderer.begins)
}

func TestRenderWhileScheduledDrawsImmediately(t *testing.T) {
	f := newFixture(t, "a")
	f.sched.Start()

	require.NoError(t, f.sched.Render(time.Now()))
	assert.Equal(t, 1, f.renderer.begins)
	assert.Equal(t, StateScheduled, f.sched.State())
	assert.Equal(t, 1, f.loop.Pending(), "only the re-armed request may be pending")

	f.loop.RunFrame()
	assert.Equal(t, 2, f.renderer.begins)
}

func TestFrameSetup(t *testing.T) {
	f := newFixture(t, "a")
	f.sched.Start()
	f.loop.RunFrame()

	assert.Equal(t, []common.Size{{Width: 1280, Height: 720}}, f.renderer.resizes)
	assert.True(t, f.renderer.scissor)
	assert.Equal(t, color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}, f.renderer.clear)

	want := common.Viewport{Left: 16, Bottom: 720 - 316, Width: 400, Height: 300}
	assert.Equal(t, []common.Viewport{want}, f.renderer.viewports)
	assert.Equal(t, []common.Viewport{want}, f.renderer.scissors)

	f.loop.RunFrame()
	assert.Len(t, f.renderer.resizes, 1, "unchanged canvas must not resize")

	f.page.Resize(800, 600)
	f.loop.RunFrame()
	assert.Equal(t, common.Size{Width: 800, Height: 600}, f.renderer.resizes[1])
}

func TestScrollPinsCanvasAndCulls(t *testing.T) {
	// Four rows of three slots overflow the 720 px viewport.
	f := newFixture(t, "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l")
	f.sched.Start()

	scrolled := f.page.ScrollBy(400)
	require.Equal(t, float32(400), scrolled)
	f.loop.RunFrame()

	assert.Equal(t, scrolled, f.page.TranslateY())
	assert.Equal(t, 0, f.renderer.count("a"))
	assert.Equal(t, uint64(1), f.sched.Stats().Culled)
}

func TestMissingElementIsCulled(t *testing.T) {
	f := newFixture(t, "a")
	f.page.Detach("a")
	f.sched.Start()
	f.loop.RunFrame()

	assert.Empty(t, f.renderer.drawn)
	assert.Equal(t, 1, f.renderer.presents)
	assert.Equal(t, uint64(1), f.sched.Stats().Culled)
}

func TestUnitFailuresAreContained(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	f.units[1].SetActive(true)
	f.units[2].SetActive(true)
	f.renderer.panicOn = "a"
	f.renderer.renderErr = map[string]error{"b": errors.New("encode failed")}

	f.sched.Start()
	f.loop.RunFrame()

	assert.Equal(t, []string{"c"}, f.renderer.drawn)
	assert.Equal(t, uint64(2), f.sched.Stats().Failures)
	assert.Equal(t, StateScheduled, f.sched.State())
}

func TestBeginFrameFailureSkipsFrame(t *testing.T) {
	f := newFixture(t, "a")
	f.renderer.beginErr = errors.New("surface lost")
	f.sched.Start()
	f.loop.RunFrame()

	assert.Empty(t, f.renderer.drawn)
	assert.Equal(t, 0, f.renderer.presents)
	assert.Equal(t, StateScheduled, f.sched.State())
}

func TestAddAppendsInOrder(t *testing.T) {
	f := newFixture(t, "a")
	extra := scene.NewUnit(loader.Stage{Name: "z"},
		scene.WithCompositor(compositor.NewCompositor(compositor.WithSize(4, 2), compositor.WithWorkers(1))),
		scene.WithActive(true),
	)
	t.Cleanup(func() { _ = extra.Close() })
	f.page.AppendSlot("z", "Scene z")
	require.NoError(t, extra.Bind(f.page, "z"))
	f.sched.Add(extra)

	f.sched.Start()
	f.loop.RunFrame()

	assert.Len(t, f.sched.Units(), 2)
	assert.Equal(t, []string{"a", "z"}, f.renderer.drawn)
}
