// package common contains plain value types shared by the panorama packages. They are not interface-wrapped structs,
// just small data carriers that cross package boundaries.
package common

// Rect is a bounding box in page (CSS) pixel space with a top-left origin.
// Top grows downward, so Bottom >= Top for a well formed rectangle.
type Rect struct {
	Left   float32
	Top    float32
	Right  float32
	Bottom float32
}

// Width returns Right - Left.
func (r Rect) Width() float32 {
	return r.Right - r.Left
}

// Height returns Bottom - Top.
func (r Rect) Height() float32 {
	return r.Bottom - r.Top
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Aspect returns Width / Height, or 0 when the rectangle is empty.
func (r Rect) Aspect() float32 {
	if r.Empty() {
		return 0
	}
	return r.Width() / r.Height()
}

// Translate returns the rectangle shifted by dx, dy.
func (r Rect) Translate(dx, dy float32) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Contains reports whether the point x, y falls inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Viewport is a render target rectangle in renderer pixel space with a bottom-left origin.
// It is recomputed every frame and never cached across frames.
type Viewport struct {
	Left   float32
	Bottom float32
	Width  float32
	Height float32
}

// Scale returns the viewport with every component multiplied by s.
// Used to convert page pixels into device pixels.
func (v Viewport) Scale(s float32) Viewport {
	return Viewport{Left: v.Left * s, Bottom: v.Bottom * s, Width: v.Width * s, Height: v.Height * s}
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// Aspect returns Width / Height, or 1 when the height is zero.
func (s Size) Aspect() float32 {
	if s.Height == 0 {
		return 1
	}
	return float32(s.Width) / float32(s.Height)
}
