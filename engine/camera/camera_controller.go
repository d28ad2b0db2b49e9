package camera

import (
	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Surface is the on-screen region an orbit controller listens on. host.Element satisfies it.
type Surface interface {
	// BoundingClientRect returns the surface rectangle in viewport pixels.
	BoundingClientRect() common.Rect
}

// CameraController defines the union interface for orbit camera control.
// Controllers own positional state (position, target). Camera reads from controller
// and computes view/projection matrices. Input is accumulated as a pending delta and only
// applied by Update, so a controller that is not updated keeps its pose.
type CameraController interface {
	orbitCameraController
	pointerCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetTarget(x, y, z float32)

	// Zoom queues a change of the orbit radius. Positive delta zooms in (closer to target).
	//
	// Parameters:
	//   - delta: zoom amount scaled by ZoomSpeed
	Zoom(delta float32)

	// Update applies the pending interaction delta, with damping when enabled, plus any
	// auto-rotation for the elapsed time.
	//
	// Parameters:
	//   - dt: elapsed time in seconds since the previous update
	//
	// Returns:
	//   - bool: true if the pose changed
	Update(dt float32) bool
}

// orbitCameraController defines orbit-specific control methods.
// Orbit controls use spherical coordinates (radius, azimuth, elevation) relative to the
// target/pivot point.
type orbitCameraController interface {
	// OrbitLeft queues a rotation left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight queues a rotation right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp queues an upward tilt by one orbit speed step, clamped to max elevation.
	OrbitUp()

	// OrbitDown queues a downward tilt by one orbit speed step, clamped to min elevation.
	OrbitDown()

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// MinRadius returns the minimum allowed orbit radius.
	//
	// Returns:
	//   - float32: minimum zoom distance
	MinRadius() float32

	// MaxRadius returns the maximum allowed orbit radius.
	//
	// Returns:
	//   - float32: maximum zoom distance
	MaxRadius() float32

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// SetAzimuth sets the horizontal angle directly and recomputes position.
	//
	// Parameters:
	//   - azimuth: new horizontal angle in radians
	SetAzimuth(azimuth float32)

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32

	// SetElevation sets the vertical angle directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - elevation: new vertical angle in radians
	SetElevation(elevation float32)

	// MinElevation returns the minimum allowed elevation angle.
	//
	// Returns:
	//   - float32: minimum elevation in radians
	MinElevation() float32

	// MaxElevation returns the maximum allowed elevation angle.
	//
	// Returns:
	//   - float32: maximum elevation in radians
	MaxElevation() float32

	// OrbitSpeed returns the keyboard orbit speed in radians per step.
	//
	// Returns:
	//   - float32: radians per orbit call
	OrbitSpeed() float32

	// RotateSpeed returns the pointer drag rotation multiplier.
	//
	// Returns:
	//   - float32: multiplier for drag rotation
	RotateSpeed() float32

	// ZoomSpeed returns the zoom speed multiplier.
	//
	// Returns:
	//   - float32: multiplier for zoom input
	ZoomSpeed() float32

	// DampingFactor returns the fraction of the pending delta applied per update, or 0 when
	// damping is disabled.
	//
	// Returns:
	//   - float32: damping factor in [0, 1]
	DampingFactor() float32
}

// pointerCameraController defines drag-to-rotate methods driven by pointer events on the
// bound surface. A full drag across the surface height rotates by 2*pi times RotateSpeed.
type pointerCameraController interface {
	// BindSurface attaches the interaction surface. Pointer presses outside it are ignored.
	//
	// Parameters:
	//   - surface: the surface, or nil to accept presses anywhere
	BindSurface(surface Surface)

	// PointerDown starts a drag when the point lies inside the bound surface.
	//
	// Parameters:
	//   - x, y: pointer position in viewport pixels
	//
	// Returns:
	//   - bool: true if the drag started
	PointerDown(x, y float32) bool

	// PointerMove queues a rotation proportional to the movement since the last event.
	// Ignored when no drag is in progress.
	//
	// Parameters:
	//   - x, y: pointer position in viewport pixels
	PointerMove(x, y float32)

	// PointerUp ends the current drag.
	PointerUp()

	// Dragging reports whether a drag is in progress.
	//
	// Returns:
	//   - bool: true while dragging
	Dragging() bool
}
