package viewport

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Target is a viewport resolved against a framebuffer: top-left origin, physical pixels, and
// clamped to the framebuffer bounds.
//
// GPU viewports must lie inside the render target, so a partially visible rectangle is
// clamped and Correction maps clip space of the full rectangle onto the clamped one. Multiply
// it in front of the view-projection matrix to keep the image where the full rectangle puts it.
type Target struct {
	X      float32
	Y      float32
	Width  float32
	Height float32

	Correction mgl32.Mat4

	surfaceWidth  float32
	surfaceHeight float32
}

// Resolve converts a bottom-left origin viewport in page pixels to a framebuffer target.
//
// Parameters:
//   - v: the viewport from FromBounds
//   - surfaceWidth: framebuffer width in physical pixels
//   - surfaceHeight: framebuffer height in physical pixels
//   - pixelRatio: physical pixels per page pixel
//
// Returns:
//   - Target: the clamped target
//   - bool: false when nothing of the viewport lies inside the framebuffer
func Resolve(v common.Viewport, surfaceWidth, surfaceHeight, pixelRatio float32) (Target, bool) {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	s := v.Scale(pixelRatio)

	fx, fy := s.Left, surfaceHeight-s.Bottom-s.Height
	fw, fh := s.Width, s.Height

	x0 := max(fx, 0)
	y0 := max(fy, 0)
	x1 := min(fx+fw, surfaceWidth)
	y1 := min(fy+fh, surfaceHeight)
	if x1 <= x0 || y1 <= y0 {
		return Target{}, false
	}
	cw, ch := x1-x0, y1-y0

	correction := mgl32.Ident4()
	correction.Set(0, 0, fw/cw)
	correction.Set(1, 1, fh/ch)
	correction.Set(0, 3, (2*(fx-x0)+fw-cw)/cw)
	correction.Set(1, 3, (ch-fh-2*(fy-y0))/ch)

	return Target{
		X:             x0,
		Y:             y0,
		Width:         cw,
		Height:        ch,
		Correction:    correction,
		surfaceWidth:  surfaceWidth,
		surfaceHeight: surfaceHeight,
	}, true
}

// Scissor returns the integer scissor rectangle covering the target, clamped to the framebuffer.
//
// Returns:
//   - x, y, width, height: the scissor rectangle in physical pixels
func (t Target) Scissor() (x, y, width, height uint32) {
	x0 := float32(math.Floor(float64(t.X)))
	y0 := float32(math.Floor(float64(t.Y)))
	x1 := min(float32(math.Ceil(float64(t.X+t.Width))), t.surfaceWidth)
	y1 := min(float32(math.Ceil(float64(t.Y+t.Height))), t.surfaceHeight)
	if x1 <= x0 || y1 <= y0 {
		return uint32(x0), uint32(y0), 0, 0
	}
	return uint32(x0), uint32(y0), uint32(x1 - x0), uint32(y1 - y0)
}
