package viewport

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pixelOf maps clip space through the target's correction and viewport into framebuffer pixels.
func pixelOf(t Target, ndc mgl32.Vec2) mgl32.Vec2 {
	c := t.Correction.Mul4x1(mgl32.Vec4{ndc.X(), ndc.Y(), 0, 1})
	return mgl32.Vec2{
		t.X + (c.X()/c.W()+1)/2*t.Width,
		t.Y + (1-c.Y()/c.W())/2*t.Height,
	}
}

func TestResolveInside(t *testing.T) {
	// 300x200 element whose bottom edge is 150 px above the bottom of a 800x600 surface.
	target, ok := Resolve(common.Viewport{Left: 100, Bottom: 150, Width: 300, Height: 200}, 800, 600, 1)
	require.True(t, ok)
	assert.Equal(t, float32(100), target.X)
	assert.Equal(t, float32(250), target.Y)
	assert.Equal(t, float32(300), target.Width)
	assert.Equal(t, float32(200), target.Height)
	assert.True(t, target.Correction.ApproxEqual(mgl32.Ident4()))

	x, y, w, h := target.Scissor()
	assert.Equal(t, []uint32{100, 250, 300, 200}, []uint32{x, y, w, h})
}

func TestResolvePixelRatio(t *testing.T) {
	target, ok := Resolve(common.Viewport{Left: 10, Bottom: 20, Width: 100, Height: 50}, 400, 400, 2)
	require.True(t, ok)
	assert.Equal(t, float32(20), target.X)
	assert.Equal(t, float32(400-40-100), target.Y)
	assert.Equal(t, float32(200), target.Width)
	assert.Equal(t, float32(100), target.Height)
}

func TestResolveClampsAndCorrects(t *testing.T) {
	// Element hanging off the top-left corner of the surface.
	v := common.Viewport{Left: -50, Bottom: 500, Width: 200, Height: 200}
	target, ok := Resolve(v, 800, 600, 1)
	require.True(t, ok)
	assert.Equal(t, float32(0), target.X)
	assert.Equal(t, float32(0), target.Y)
	assert.Equal(t, float32(150), target.Width)
	assert.Equal(t, float32(100), target.Height)

	// Corners of the full rectangle land where an unclamped viewport would put them.
	topLeft := pixelOf(target, mgl32.Vec2{-1, 1})
	bottomRight := pixelOf(target, mgl32.Vec2{1, -1})
	assert.InDelta(t, -50, topLeft.X(), 1e-3)
	assert.InDelta(t, -100, topLeft.Y(), 1e-3)
	assert.InDelta(t, 150, bottomRight.X(), 1e-3)
	assert.InDelta(t, 100, bottomRight.Y(), 1e-3)

	// The center of the full rectangle stays put too.
	center := pixelOf(target, mgl32.Vec2{0, 0})
	assert.InDelta(t, 50, center.X(), 1e-3)
	assert.InDelta(t, 0, center.Y(), 1e-3)
}

func TestResolveClampsBottomRight(t *testing.T) {
	v := common.Viewport{Left: 700, Bottom: -50, Width: 200, Height: 100}
	target, ok := Resolve(v, 800, 600, 1)
	require.True(t, ok)
	assert.Equal(t, float32(700), target.X)
	assert.Equal(t, float32(550), target.Y)
	assert.Equal(t, float32(100), target.Width)
	assert.Equal(t, float32(50), target.Height)

	bottomRight := pixelOf(target, mgl32.Vec2{1, -1})
	assert.InDelta(t, 900, bottomRight.X(), 1e-3)
	assert.InDelta(t, 650, bottomRight.Y(), 1e-3)
}

func TestResolveOutside(t *testing.T) {
	_, ok := Resolve(common.Viewport{Left: 900, Bottom: 0, Width: 100, Height: 100}, 800, 600, 1)
	assert.False(t, ok)
	_, ok = Resolve(common.Viewport{Left: 0, Bottom: 0, Width: 0, Height: 100}, 800, 600, 1)
	assert.False(t, ok)
}

func TestScissorRoundsOutward(t *testing.T) {
	target, ok := Resolve(common.Viewport{Left: 10.5, Bottom: 0, Width: 20, Height: 10.25}, 100, 100, 1)
	require.True(t, ok)
	x, y, w, h := target.Scissor()
	assert.Equal(t, uint32(10), x)
	assert.Equal(t, uint32(89), y)
	assert.Equal(t, uint32(21), w)
	assert.Equal(t, uint32(11), h)
}
