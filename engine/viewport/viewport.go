// Package viewport maps page-space element rectangles to renderer viewport rectangles.
//
// Page rectangles use a top-left origin with Y growing downward; renderer viewports use a
// bottom-left origin. Rectangles entirely outside the visible viewport are culled.
package viewport

import (
	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
)

// FromBounds converts a client rectangle into a renderer viewport.
//
// The rectangle is off-screen when it lies entirely below, above, left of, or right of the
// visible viewport, or when it has no area. Partially visible rectangles are returned unclipped;
// Resolve clamps them to the framebuffer.
//
// Parameters:
//   - rect: the element rectangle relative to the visible viewport
//   - viewportWidth: visible viewport width in page pixels
//   - viewportHeight: visible viewport height in page pixels
//
// Returns:
//   - common.Viewport: the renderer rectangle with a bottom-left origin
//   - bool: false when the element is off-screen and must not be drawn
func FromBounds(rect common.Rect, viewportWidth, viewportHeight float32) (common.Viewport, bool) {
	if rect.Bottom < 0 || rect.Top > viewportHeight || rect.Right < 0 || rect.Left > viewportWidth {
		return common.Viewport{}, false
	}
	if rect.Empty() {
		return common.Viewport{}, false
	}
	return common.Viewport{
		Left:   rect.Left,
		Bottom: viewportHeight - rect.Bottom,
		Width:  rect.Width(),
		Height: rect.Height(),
	}, true
}

// Compute resolves the element's current rectangle against the canvas client size.
// A nil or detached element is treated as off-screen.
//
// Parameters:
//   - el: the bound element, may be nil
//   - canvas: the canvas supplying the visible viewport size
//
// Returns:
//   - common.Viewport: the renderer rectangle
//   - bool: false when nothing should be drawn
func Compute(el host.Element, canvas host.Canvas) (common.Viewport, bool) {
	if el == nil || !el.Attached() {
		return common.Viewport{}, false
	}
	size := canvas.ClientSize()
	return FromBounds(el.BoundingClientRect(), float32(size.Width), float32(size.Height))
}
