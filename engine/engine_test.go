package engine

import (
	"context"
	"fmt"
	"image/color"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/config"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/Carmen-Shannon/oxy-pano/engine/media/mediatest"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pano/engine/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	size  common.Size
	drawn []string
}

func (r *recordingRenderer) Size() common.Size { return r.size }
func (r *recordingRenderer) Resize(width, height int) {
	r.size = common.Size{Width: width, Height: height}
}
func (r *recordingRenderer) SetClearColor(c color.RGBA)    {}
func (r *recordingRenderer) SetScissorTest(enabled bool)   {}
func (r *recordingRenderer) BeginFrame() error             { return nil }
func (r *recordingRenderer) SetViewport(v common.Viewport) {}
func (r *recordingRenderer) SetScissor(v common.Viewport)  {}
func (r *recordingRenderer) EndFrame()                     {}
func (r *recordingRenderer) Present()                      {}
func (r *recordingRenderer) Render(d model.Drawable) error {
	r.drawn = append(r.drawn, d.ID())
	return nil
}

func (r *recordingRenderer) count(id string) int {
	n := 0
	for _, d := range r.drawn {
		if d == id {
			n++
		}
	}
	return n
}

type testEngine struct {
	Engine
	loop     host.Loop
	page     host.Page
	renderer *recordingRenderer
	opener   *mediatest.Opener
}

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Canvas = config.CanvasConfig{Width: 8, Height: 4}
	cfg.Sphere = config.SphereConfig{Radius: 5, WidthSegments: 8, HeightSegments: 6}
	cfg.Workers = 1
	return cfg
}

func newTestEngine(t *testing.T, stages []loader.Stage, options ...EngineBuilderOption) *testEngine {
	t.Helper()
	te := &testEngine{
		loop:     host.NewLoop(),
		page:     host.NewPage(),
		renderer: &recordingRenderer{},
		opener:   &mediatest.Opener{},
	}
	opts := append([]EngineBuilderOption{
		WithConfig(smallConfig()),
		WithStages(stages),
		WithFrameTimer(te.loop),
		WithPage(te.page),
		WithRenderer(te.renderer),
		WithOpener(te.opener),
		WithProfiler(profiler.NewProfiler(profiler.WithQuiet())),
	}, options...)
	te.Engine = NewEngine(opts...)
	require.NoError(t, te.Init(context.Background()))
	t.Cleanup(func() { _ = te.Close() })
	return te
}

func namedStages(n int) []loader.Stage {
	stages := make([]loader.Stage, n)
	for i := range stages {
		stages[i] = loader.Stage{Name: fmt.Sprintf("s%d", i)}
	}
	return stages
}

func center(t *testing.T, page host.Page, id string) (float32, float32) {
	t.Helper()
	el, ok := page.Element(id)
	require.True(t, ok)
	r := el.BoundingClientRect()
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

func awaitBackground(t *testing.T, te *testEngine, id string) {
	t.Helper()
	u, ok := te.Unit(id)
	require.True(t, ok)
	select {
	case err := <-u.Background():
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for background of %s", id)
	}
	u.Compositor().Upload(func([]byte, int, int) {})
}

func TestEngineRendersOnlyActiveScenes(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	video := mediatest.NewVideo("lobby.mp4", mediatest.Solid(2, 2, green))
	opener := &mediatest.Opener{
		Images: map[string]*mediatest.Image{
			"lobby.jpg":   {Name: "lobby.jpg", Img: mediatest.Solid(8, 4, red)},
			"gallery.jpg": {Name: "gallery.jpg", Img: mediatest.Solid(8, 4, red)},
		},
		Videos: map[string]*mediatest.Video{"lobby.mp4": video},
	}
	stages := []loader.Stage{
		{Name: "lobby", OuterImage: "lobby.jpg", Videos: []loader.VideoRegion{{URL: "lobby.mp4", X: 4, Y: 0, Width: 4, Height: 4}}},
		{Name: "gallery", OuterImage: "gallery.jpg"},
	}
	te := newTestEngine(t, stages, WithOpener(opener))

	assert.Equal(t, scheduler.StateScheduled, te.Scheduler().State())
	assert.True(t, te.Clock().Running())
	assert.True(t, video.Playing())

	awaitBackground(t, te, "lobby")
	awaitBackground(t, te, "gallery")
	lobby, _ := te.Unit("lobby")
	gallery, _ := te.Unit("gallery")
	require.False(t, lobby.Compositor().NeedsUpdate())

	te.loop.RunFrame()
	assert.Equal(t, 1, te.renderer.count("lobby"))
	assert.Equal(t, 0, te.renderer.count("gallery"))
	assert.Equal(t, common.Size{Width: 1280, Height: 720}, te.renderer.size)

	assert.True(t, lobby.Compositor().NeedsUpdate())
	assert.False(t, gallery.Compositor().NeedsUpdate())
	canvas := lobby.Compositor().Snapshot()
	assert.Equal(t, green, canvas.RGBAAt(5, 1))
	assert.Equal(t, red, canvas.RGBAAt(1, 1))

	te.loop.RunFrame()
	assert.Equal(t, 2, te.renderer.count("lobby"))
	assert.Equal(t, 0, te.renderer.count("gallery"))
}

func TestEngineLaysOutSlots(t *testing.T) {
	te := newTestEngine(t, []loader.Stage{{Name: "lobby"}, {}})

	units := te.Units()
	require.Len(t, units, 2)
	assert.Equal(t, "Scene lobby", te.page.Label("lobby"))
	assert.Equal(t, "Scene 2", te.page.Label(units[1].ElementID()))

	for _, u := range units {
		_, err := u.Element()
		assert.NoError(t, err)
		assert.InDelta(t, 400.0/300.0, u.Camera().Aspect(), 1e-5)
	}
}

func TestEngineDuplicateStageNames(t *testing.T) {
	te := newTestEngine(t, []loader.Stage{{Name: "dup"}, {Name: "dup"}})

	units := te.Units()
	require.Len(t, units, 2)
	assert.NotEqual(t, units[0].ID(), units[1].ID())
	_, ok := te.Unit(units[1].ID())
	assert.True(t, ok)
}

func TestEngineGeneratedIDsSkipStageNames(t *testing.T) {
	te := newTestEngine(t, []loader.Stage{{Name: "a"}, {Name: "a-2"}, {Name: "a"}})

	units := te.Units()
	require.Len(t, units, 3)
	ids := map[string]bool{}
	elements := map[string]bool{}
	for i, u := range units {
		ids[u.ID()] = true
		elements[u.ElementID()] = true
		got, ok := te.Unit(u.ID())
		require.True(t, ok)
		assert.Same(t, units[i], got)
	}
	assert.Len(t, ids, 3)
	assert.Len(t, elements, 3)
	assert.Equal(t, "a-3", units[2].ID())

	require.NoError(t, te.SetActive("a-2", true))
	assert.True(t, units[1].Active())
	assert.False(t, units[2].Active())
}

func TestEngineActiveScenesFromConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.ActiveScenes = []int{1, 2}
	te := newTestEngine(t, namedStages(3), WithConfig(cfg))

	te.loop.RunFrame()
	assert.Equal(t, 0, te.renderer.count("s0"))
	assert.Equal(t, 1, te.renderer.count("s1"))
	assert.Equal(t, 1, te.renderer.count("s2"))
}

func TestEngineSetActive(t *testing.T) {
	te := newTestEngine(t, namedStages(2))

	require.NoError(t, te.SetActive("s1", true))
	require.NoError(t, te.SetActive("s0", false))
	te.loop.RunFrame()
	assert.Equal(t, 0, te.renderer.count("s0"))
	assert.Equal(t, 1, te.renderer.count("s1"))

	assert.ErrorIs(t, te.SetActive("nope", true), ErrUnknownScene)
}

func TestEngineInitErrors(t *testing.T) {
	e := NewEngine(WithConfig(smallConfig()), WithStages(namedStages(1)))
	assert.ErrorIs(t, e.Init(context.Background()), ErrNoRenderer)

	te := newTestEngine(t, namedStages(1))
	assert.ErrorIs(t, te.Init(context.Background()), ErrAlreadyInitialized)

	bad := NewEngine(
		WithConfig(smallConfig()),
		WithRenderer(&recordingRenderer{}),
		WithStages([]loader.Stage{{Name: "x", Videos: []loader.VideoRegion{{URL: "v.mp4"}}}}),
	)
	assert.ErrorIs(t, bad.Init(context.Background()), loader.ErrInvalidStage)
}

func TestEngineInitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(
		WithConfig(smallConfig()),
		WithRenderer(&recordingRenderer{}),
		WithOpener(&mediatest.Opener{}),
		WithStages([]loader.Stage{{Name: "x", Videos: []loader.VideoRegion{{URL: "v.mp4", Width: 2, Height: 2}}}}),
	)
	assert.ErrorIs(t, e.Init(ctx), context.Canceled)
}

// cancellingOpener cancels the Init context once trigger has been opened.
type cancellingOpener struct {
	*mediatest.Opener
	trigger string
	cancel  context.CancelFunc
}

func (o *cancellingOpener) OpenVideo(url string) (media.VideoSource, error) {
	v, err := o.Opener.OpenVideo(url)
	if url == o.trigger {
		o.cancel()
	}
	return v, err
}

func TestEngineInitFailureCanRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	v0 := mediatest.NewVideo("a.mp4", nil)
	opener := &cancellingOpener{
		Opener:  &mediatest.Opener{Videos: map[string]*mediatest.Video{"a.mp4": v0, "b.mp4": mediatest.NewVideo("b.mp4", nil)}},
		trigger: "a.mp4",
		cancel:  cancel,
	}
	loop := host.NewLoop()
	r := &recordingRenderer{}
	e := NewEngine(
		WithConfig(smallConfig()),
		WithFrameTimer(loop),
		WithRenderer(r),
		WithOpener(opener),
		WithProfiler(profiler.NewProfiler(profiler.WithQuiet())),
		WithStages([]loader.Stage{
			{Name: "a", Videos: []loader.VideoRegion{{URL: "a.mp4", Width: 2, Height: 2}}},
			{Name: "b", Videos: []loader.VideoRegion{{URL: "b.mp4", Width: 2, Height: 2}}},
		}),
	)
	t.Cleanup(func() { _ = e.Close() })

	require.ErrorIs(t, e.Init(ctx), context.Canceled)
	assert.True(t, v0.Closed())
	assert.Empty(t, e.Units())
	_, ok := e.Unit("a")
	assert.False(t, ok)
	assert.Nil(t, e.(*engine).pool)
	assert.Equal(t, 0, loop.Pending())

	require.NoError(t, e.Init(context.Background()))
	assert.Len(t, e.Units(), 2)
	loop.RunFrame()
	assert.Equal(t, 1, r.count("a"))
}

func TestEngineCloseStopsWorkerPool(t *testing.T) {
	te := newTestEngine(t, namedStages(1))
	eng := te.Engine.(*engine)
	require.NotNil(t, eng.pool)

	require.NoError(t, te.Close())
	assert.Nil(t, eng.pool)
	assert.NoError(t, te.Close())
}

func TestEngineVideosFollowActivation(t *testing.T) {
	v0 := mediatest.NewVideo("a.mp4", mediatest.Solid(2, 2, color.RGBA{G: 255, A: 255}))
	v1 := mediatest.NewVideo("b.mp4", nil)
	stages := []loader.Stage{
		{Name: "a", Videos: []loader.VideoRegion{{URL: "a.mp4", Width: 2, Height: 2}}},
		{Name: "b", Videos: []loader.VideoRegion{{URL: "b.mp4", Width: 2, Height: 2}, {URL: "missing.mp4", Width: 2, Height: 2}}},
	}
	opener := &mediatest.Opener{Videos: map[string]*mediatest.Video{"a.mp4": v0, "b.mp4": v1}}
	te := newTestEngine(t, stages, WithOpener(opener))

	assert.True(t, v0.Playing())
	assert.False(t, v1.Playing())
	u, ok := te.Unit("b")
	require.True(t, ok)
	assert.Len(t, u.Videos(), 1)

	te.HandleKey(common.Key2)
	assert.True(t, v1.Playing())
	te.HandleKey(common.Key1)
	assert.False(t, v0.Playing())

	require.NoError(t, te.Close())
	assert.True(t, v0.Closed())
	assert.True(t, v1.Closed())
	assert.Equal(t, scheduler.StateIdle, te.Scheduler().State())
	assert.False(t, te.Clock().Running())
}

func TestEngineDigitKeys(t *testing.T) {
	te := newTestEngine(t, namedStages(2))

	te.HandleKey(common.Key2)
	u, _ := te.Unit("s1")
	assert.True(t, u.Active())

	te.HandleKey(common.Key9)
	te.HandleKey(common.Key0)
	te.loop.RunFrame()
	assert.Equal(t, 1, te.renderer.count("s0"))
	assert.Equal(t, 1, te.renderer.count("s1"))
}

func TestEngineSpacePausesRendering(t *testing.T) {
	te := newTestEngine(t, namedStages(1))

	te.HandleKey(common.KeySpace)
	assert.Equal(t, scheduler.StateIdle, te.Scheduler().State())
	te.loop.RunFrame()
	assert.Empty(t, te.renderer.drawn)

	te.HandleKey(common.KeySpace)
	assert.Equal(t, scheduler.StateScheduled, te.Scheduler().State())
	te.loop.RunFrame()
	assert.Equal(t, 1, te.renderer.count("s0"))
}

func TestEngineProfilingToggle(t *testing.T) {
	te := newTestEngine(t, namedStages(1))
	assert.False(t, te.Profiling())

	te.HandleKey(common.KeyP)
	assert.True(t, te.Profiling())
	te.HandleKey(common.KeyP)
	assert.False(t, te.Profiling())
}

func TestEngineKeyboardScrolling(t *testing.T) {
	te := newTestEngine(t, namedStages(20))

	te.HandleKey(common.KeyDown)
	assert.InDelta(t, 40, te.page.ScrollY(), 1e-5)
	te.HandleKey(common.KeyPageDown)
	assert.InDelta(t, 40+720*0.9, te.page.ScrollY(), 1e-3)
	te.HandleKey(common.KeyPageUp)
	te.HandleKey(common.KeyUp)
	assert.InDelta(t, 0, te.page.ScrollY(), 1e-3)
}

func TestEngineWheel(t *testing.T) {
	te := newTestEngine(t, namedStages(12))

	te.HandlePointerMove(1260, 100)
	te.HandleWheel(-1)
	assert.InDelta(t, 40, te.page.ScrollY(), 1e-5)

	u, _ := te.Unit("s0")
	before := u.Controller().Radius()
	x, y := center(t, te.page, "s0")
	te.HandlePointerMove(x, y)
	te.HandleWheel(-1)
	assert.InDelta(t, 40, te.page.ScrollY(), 1e-5)
	u.Update(0)
	assert.Greater(t, u.Controller().Radius(), before)

	x, y = center(t, te.page, "s1")
	te.HandlePointerMove(x, y)
	te.HandleWheel(-1)
	assert.InDelta(t, 80, te.page.ScrollY(), 1e-5)
}

func TestEnginePointerDrag(t *testing.T) {
	te := newTestEngine(t, namedStages(2))
	u0, _ := te.Unit("s0")
	u1, _ := te.Unit("s1")

	x, y := center(t, te.page, "s1")
	te.HandlePointerDown(x, y)
	assert.False(t, u1.Controller().Dragging())

	x, y = center(t, te.page, "s0")
	te.HandlePointerDown(x, y)
	require.True(t, u0.Controller().Dragging())
	before := u0.Controller().Azimuth()
	te.HandlePointerMove(x+30, y)
	te.HandlePointerUp(x+30, y)
	assert.False(t, u0.Controller().Dragging())

	u0.Update(0)
	assert.NotEqual(t, before, u0.Controller().Azimuth())
}

func TestEngineResetCameras(t *testing.T) {
	te := newTestEngine(t, namedStages(2))
	u, _ := te.Unit("s1")
	c := u.Controller()
	home := c.Azimuth()

	c.SetAzimuth(home + 1)
	c.SetRadius(2)
	te.HandleKey(common.KeyR)
	assert.InDelta(t, home, c.Azimuth(), 1e-6)
	assert.InDelta(t, 0.1, c.Radius(), 1e-6)
}

func TestEngineOnResize(t *testing.T) {
	te := newTestEngine(t, namedStages(2))

	require.True(t, te.page.Detach("s1"))
	te.page.Resize(800, 200)
	te.OnResize()

	u0, _ := te.Unit("s0")
	u1, _ := te.Unit("s1")
	assert.InDelta(t, 400.0/300.0, u0.Camera().Aspect(), 1e-5)
	assert.InDelta(t, 4.0, u1.Camera().Aspect(), 1e-5)
}

type fakeSurface struct {
	resize    func(width, height int)
	scroll    func(delta float32)
	keyDown   func(keyCode uint32)
	mouseDown func(x, y float32)
	mouseUp   func(x, y float32)
	mouseMove func(x, y float32)
}

func (f *fakeSurface) SetResizeCallback(cb func(width, height int)) { f.resize = cb }
func (f *fakeSurface) SetScrollCallback(cb func(delta float32))     { f.scroll = cb }
func (f *fakeSurface) SetKeyDownCallback(cb func(keyCode uint32))   { f.keyDown = cb }
func (f *fakeSurface) SetMouseDownCallback(cb func(x, y float32))   { f.mouseDown = cb }
func (f *fakeSurface) SetMouseUpCallback(cb func(x, y float32))     { f.mouseUp = cb }
func (f *fakeSurface) SetMouseMoveCallback(cb func(x, y float32))   { f.mouseMove = cb }

func TestEngineBindInput(t *testing.T) {
	te := newTestEngine(t, namedStages(2))
	s := &fakeSurface{}
	te.BindInput(s)
	require.NotNil(t, s.resize)
	require.NotNil(t, s.scroll)
	require.NotNil(t, s.mouseUp)
	require.NotNil(t, s.mouseMove)

	s.resize(900, 500)
	assert.Equal(t, common.Size{Width: 900, Height: 500}, te.page.ClientSize())
	s.resize(0, 0)
	assert.Equal(t, common.Size{Width: 900, Height: 500}, te.page.ClientSize())

	s.keyDown(common.Key2)
	u, _ := te.Unit("s1")
	assert.True(t, u.Active())

	x, y := center(t, te.page, "s1")
	s.mouseDown(x, y)
	assert.True(t, u.Controller().Dragging())
	te.loop.RunFrame()
	assert.Equal(t, common.Size{Width: 900, Height: 500}, te.renderer.size)
}
