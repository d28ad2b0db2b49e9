package compositor

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/Carmen-Shannon/oxy-pano/engine/media/mediatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func newTestCompositor() Compositor {
	return NewCompositor(WithSize(8, 4), WithScaler(draw.NearestNeighbor), WithWorkers(1))
}

func await(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for background")
		return nil
	}
}

func TestDefaultSize(t *testing.T) {
	w, h := NewCompositor().Size()
	assert.Equal(t, 3840, w)
	assert.Equal(t, 1920, h)
}

func TestBackgroundMarksDirtyOnce(t *testing.T) {
	c := newTestCompositor()
	assert.False(t, c.NeedsUpdate())

	require.NoError(t, await(t, c.SetBackground(&mediatest.Image{Name: "bg", Img: mediatest.Solid(2, 2, red)})))
	assert.True(t, c.NeedsUpdate())

	uploads := 0
	assert.True(t, c.Upload(func(pix []byte, w, h int) {
		uploads++
		assert.Equal(t, 8, w)
		assert.Equal(t, 4, h)
		assert.Len(t, pix, 8*4*4)
		assert.Equal(t, []byte{255, 0, 0, 255}, pix[:4])
	}))
	assert.False(t, c.Upload(func([]byte, int, int) { uploads++ }))
	assert.Equal(t, 1, uploads)
	assert.False(t, c.NeedsUpdate())
}

func TestBackgroundFailureLeavesCanvas(t *testing.T) {
	c := newTestCompositor()
	err := await(t, c.SetBackground(&mediatest.Image{Name: "bad", Err: errors.New("404")}))
	assert.ErrorIs(t, err, media.ErrAssetLoad)
	assert.False(t, c.NeedsUpdate())
	assert.Equal(t, color.RGBA{}, c.Snapshot().RGBAAt(0, 0))
}

func TestLaterBackgroundWins(t *testing.T) {
	c := newTestCompositor()
	gate := make(chan struct{})
	first := &mediatest.Image{Name: "first", Img: mediatest.Solid(2, 2, red), Gate: gate}
	second := &mediatest.Image{Name: "second", Img: mediatest.Solid(2, 2, green)}

	firstDone := c.SetBackground(first)
	secondDone := c.SetBackground(second)
	close(gate)

	assert.ErrorIs(t, await(t, firstDone), ErrSuperseded)
	require.NoError(t, await(t, secondDone))
	assert.Equal(t, green, c.Snapshot().RGBAAt(3, 3))
}

func TestVideoOnlyCompositeMarksDirty(t *testing.T) {
	c := newTestCompositor()
	v := mediatest.NewVideo("clip", mediatest.Solid(4, 4, blue))
	require.NoError(t, v.Play())
	c.BindVideoRegion(v, image.Rect(2, 1, 4, 3))
	assert.Equal(t, 1, c.Regions())
	assert.False(t, c.NeedsUpdate())

	assert.Equal(t, 1, c.CompositeFrame())
	assert.True(t, c.NeedsUpdate())

	snap := c.Snapshot()
	assert.Equal(t, blue, snap.RGBAAt(2, 1))
	assert.Equal(t, blue, snap.RGBAAt(3, 2))
	assert.Equal(t, color.RGBA{}, snap.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, snap.RGBAAt(4, 1))
}

func TestCompositeSkipsPausedAndEmptyVideos(t *testing.T) {
	c := newTestCompositor()
	paused := mediatest.NewVideo("paused", mediatest.Solid(1, 1, blue))
	empty := mediatest.NewVideo("empty", nil)
	require.NoError(t, empty.Play())
	c.BindVideoRegion(paused, image.Rect(0, 0, 2, 2))
	c.BindVideoRegion(empty, image.Rect(2, 0, 4, 2))
	c.BindVideoRegion(mediatest.NewVideo("zero", nil), image.Rect(5, 0, 5, 2))

	assert.Equal(t, 0, c.CompositeFrame())
	assert.False(t, c.NeedsUpdate())

	empty.SetFrame(mediatest.Solid(1, 1, green))
	assert.Equal(t, 1, c.CompositeFrame())
	assert.True(t, c.NeedsUpdate())
}

func TestVideoDrawsOverBackground(t *testing.T) {
	c := newTestCompositor()
	require.NoError(t, await(t, c.SetBackground(&mediatest.Image{Name: "bg", Img: mediatest.Solid(1, 1, red)})))
	c.Upload(func([]byte, int, int) {})

	v := mediatest.NewVideo("clip", mediatest.Solid(1, 1, green))
	require.NoError(t, v.Play())
	c.BindVideoRegion(v, image.Rect(6, 2, 10, 6))
	c.CompositeFrame()

	snap := c.Snapshot()
	assert.Equal(t, red, snap.RGBAAt(0, 0))
	assert.Equal(t, green, snap.RGBAAt(7, 3))
}
