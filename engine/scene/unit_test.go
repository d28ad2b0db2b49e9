package scene

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/compositor"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/Carmen-Shannon/oxy-pano/engine/media/mediatest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStage() loader.Stage {
	return loader.Stage{
		Name:       "lobby",
		OuterImage: "lobby.png",
		Videos: []loader.VideoRegion{
			{URL: "a.mp4", X: 0, Y: 0, Width: 2, Height: 2},
			{URL: "b.mp4", X: 4, Y: 0, Width: 2, Height: 2},
		},
	}
}

func smallCompositor() compositor.Compositor {
	return compositor.NewCompositor(compositor.WithSize(8, 4), compositor.WithWorkers(1))
}

func awaitBackground(t *testing.T, u Unit) error {
	t.Helper()
	require.NotNil(t, u.Background())
	select {
	case err := <-u.Background():
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for background")
		return nil
	}
}

func TestUnitID(t *testing.T) {
	assert.Equal(t, "lobby", NewUnit(testStage(), WithCompositor(smallCompositor())).ID())

	unnamed := NewUnit(loader.Stage{}, WithCompositor(smallCompositor()))
	_, err := uuid.Parse(unnamed.ID())
	assert.NoError(t, err)
	assert.Empty(t, unnamed.Name())

	assert.Equal(t, "fixed", NewUnit(testStage(), WithID("fixed"), WithCompositor(smallCompositor())).ID())
}

func TestUnitDefaults(t *testing.T) {
	u := NewUnit(loader.Stage{Name: "a"})
	w, h := u.Compositor().Size()
	assert.Equal(t, 3840, w)
	assert.Equal(t, 1920, h)
	assert.Same(t, u.Compositor(), u.Texture())
	assert.Same(t, u.Controller(), u.Camera().Controller())
	assert.Nil(t, u.Background())
	assert.False(t, u.Active())

	require.NotNil(t, u.Mesh())
	p := u.Mesh().Vertices[0].Position
	assert.InDelta(t, DefaultSphereRadius, mgl32.Vec3(p).Len(), 1e-4)
}

func TestUnitLoadsBackground(t *testing.T) {
	opener := &mediatest.Opener{Images: map[string]*mediatest.Image{
		"lobby.png": {Name: "lobby.png", Img: mediatest.Solid(2, 2, color.RGBA{R: 200, A: 255})},
	}}
	u := NewUnit(testStage(), WithOpener(opener), WithCompositor(smallCompositor()))
	require.NoError(t, awaitBackground(t, u))
	assert.True(t, u.Compositor().NeedsUpdate())
}

func TestUnitMissingBackgroundDegrades(t *testing.T) {
	u := NewUnit(testStage(), WithOpener(&mediatest.Opener{}), WithCompositor(smallCompositor()))
	assert.ErrorIs(t, awaitBackground(t, u), media.ErrAssetLoad)
	assert.False(t, u.Compositor().NeedsUpdate())
}

func TestUnitBindsVideosByIndex(t *testing.T) {
	b := mediatest.NewVideo("b.mp4", mediatest.Solid(1, 1, color.RGBA{G: 255, A: 255}))
	u := NewUnit(testStage(), WithVideos([]media.VideoSource{nil, b}), WithCompositor(smallCompositor()))

	assert.Equal(t, 1, u.Compositor().Regions())
	require.Len(t, u.Videos(), 1)
	assert.False(t, b.Playing())

	u.SetActive(true)
	assert.Equal(t, 1, u.Compositor().CompositeFrame())
	assert.Equal(t, color.RGBA{G: 255, A: 255}, u.Compositor().Snapshot().RGBAAt(4, 0))
}

func TestSetActiveTogglesVideos(t *testing.T) {
	v := mediatest.NewVideo("a.mp4", nil)
	u := NewUnit(testStage(), WithVideos([]media.VideoSource{v}), WithCompositor(smallCompositor()))

	u.SetActive(true)
	u.SetActive(true)
	assert.True(t, u.Active())
	assert.True(t, v.Playing())

	u.SetActive(false)
	u.SetActive(false)
	assert.False(t, u.Active())
	assert.False(t, v.Playing())
	assert.False(t, v.Closed())

	plays, pauses := v.Transitions()
	assert.Equal(t, 1, plays)
	assert.Equal(t, 1, pauses)
}

func TestActiveAtConstructionPlays(t *testing.T) {
	v := mediatest.NewVideo("a.mp4", nil)
	NewUnit(testStage(), WithActive(true), WithVideos([]media.VideoSource{v}), WithCompositor(smallCompositor()))
	assert.True(t, v.Playing())
}

func TestResizeAppliesToInactiveUnit(t *testing.T) {
	u := NewUnit(testStage(), WithAspect(1.5), WithCompositor(smallCompositor()))
	assert.Equal(t, float32(1.5), u.Camera().Aspect())
	require.False(t, u.Active())

	u.OnResize(2)
	assert.Equal(t, float32(2), u.Camera().Aspect())
	u.OnResize(0)
	assert.Equal(t, float32(2), u.Camera().Aspect())
}

func TestSyncAspect(t *testing.T) {
	page := host.NewPage(host.WithViewportSize(1280, 720), host.WithItemSize(400, 300))
	u := NewUnit(testStage(), WithCompositor(smallCompositor()))

	assert.InDelta(t, 16.0/9.0, u.SyncAspect(page.ClientSize()), 1e-5)

	page.AppendSlot("scene-lobby", "Scene lobby")
	require.NoError(t, u.Bind(page, "scene-lobby"))
	assert.InDelta(t, 4.0/3.0, u.SyncAspect(page.ClientSize()), 1e-5)
	assert.InDelta(t, 4.0/3.0, u.Camera().Aspect(), 1e-5)
}

func TestElementResolvedWhenItAppears(t *testing.T) {
	page := host.NewPage()
	u := NewUnit(testStage(), WithCompositor(smallCompositor()))

	_, err := u.Element()
	assert.ErrorIs(t, err, ErrElementMissing)

	err = u.Bind(page, "scene-lobby")
	assert.True(t, errors.Is(err, ErrElementMissing))
	assert.Equal(t, "scene-lobby", u.ElementID())

	page.AppendSlot("scene-lobby", "Scene lobby")
	el, err := u.Element()
	require.NoError(t, err)
	assert.Equal(t, "scene-lobby", el.ID())

	rect := el.BoundingClientRect()
	assert.True(t, u.Controller().PointerDown(rect.Left+1, rect.Top+1))
	u.Controller().PointerUp()
	assert.False(t, u.Controller().PointerDown(rect.Right+5, rect.Top+1))

	require.True(t, page.Detach("scene-lobby"))
	_, err = u.Element()
	assert.ErrorIs(t, err, ErrElementMissing)
}

func TestUpdateMovesCamera(t *testing.T) {
	u := NewUnit(testStage(), WithCompositor(smallCompositor()))
	before := u.ViewProjection()
	assert.False(t, u.Update(0.016))

	u.Controller().OrbitRight()
	assert.True(t, u.Update(0.016))
	assert.False(t, before.ApproxEqual(u.ViewProjection()))
}

func TestCloseReleasesVideos(t *testing.T) {
	a := mediatest.NewVideo("a.mp4", nil)
	b := mediatest.NewVideo("b.mp4", nil)
	u := NewUnit(testStage(), WithActive(true), WithVideos([]media.VideoSource{a, b}), WithCompositor(smallCompositor()))

	require.NoError(t, u.Close())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.False(t, u.Active())
	require.NoError(t, u.Close())

	u.SetActive(true)
	assert.False(t, u.Active())
}

func TestSyncAspectFallsBackOnEmptyViewport(t *testing.T) {
	u := NewUnit(testStage(), WithCompositor(smallCompositor()))
	assert.Equal(t, float32(1), u.SyncAspect(common.Size{}))
}
