package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/go-gl/mathgl/mgl32"
)

// settleEpsilon is the pending delta below which a damped controller is considered at rest.
const settleEpsilon = 1e-5

// cameraControllerImpl is the single implementation of CameraController.
// Orbit and pointer input accumulate into pending deltas that Update folds into the
// spherical coordinates before recomputing position.
type cameraControllerImpl struct {
	mu *sync.Mutex

	// Camera position (computed from target + spherical coords)
	position mgl32.Vec3
	target   mgl32.Vec3

	// Spherical coordinates (offset from target)
	radius    float32
	azimuth   float32 // Horizontal angle around Y axis
	elevation float32 // Vertical angle from horizontal plane

	// Orbit constraints
	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	// Speed settings
	orbitSpeed       float32
	rotateSpeed      float32
	mouseSensitivity float32
	zoomSpeed        float32
	autoRotateSpeed  float32
	dampingFactor    float32

	// Pending input
	azimuthDelta   float32
	elevationDelta float32
	radiusDelta    float32

	surface  Surface
	dragging bool
	lastX    float32
	lastY    float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new orbit controller sitting just off the target, suited to
// viewing a panorama from inside its sphere.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu: &sync.Mutex{},

		radius:    0.1,
		azimuth:   0.0,
		elevation: 0.0,

		minRadius:    0.01,
		maxRadius:    4.0,
		minElevation: -float32(math.Pi/2 - 0.01),
		maxElevation: float32(math.Pi/2 - 0.01),

		orbitSpeed:       0.03,
		rotateSpeed:      1.0,
		mouseSensitivity: 0.005,
		zoomSpeed:        0.05,
	}

	for _, option := range options {
		option(cc)
	}

	cc.radius = common.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = common.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
	return cc
}

// --- internal helpers ---

// updatePosition recomputes the camera position from spherical coordinates.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position = cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

// radiansPerPixel returns the drag rotation per pointer pixel. Caller must hold the mutex.
func (cc *cameraControllerImpl) radiansPerPixel() float32 {
	if cc.surface != nil {
		if h := cc.surface.BoundingClientRect().Height(); h > 0 {
			return 2 * math.Pi / h * cc.rotateSpeed
		}
	}
	return cc.mouseSensitivity
}

// --- CameraController shared methods ---

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = mgl32.Vec3{x, y, z}
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radiusDelta -= delta * cc.zoomSpeed
}

func (cc *cameraControllerImpl) Update(dt float32) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	dAzim := cc.azimuthDelta
	dElev := cc.elevationDelta
	dRad := cc.radiusDelta
	if cc.dampingFactor > 0 {
		dAzim *= cc.dampingFactor
		dElev *= cc.dampingFactor
		dRad *= cc.dampingFactor
		cc.azimuthDelta -= dAzim
		cc.elevationDelta -= dElev
		cc.radiusDelta -= dRad
		if abs(cc.azimuthDelta) < settleEpsilon && abs(cc.elevationDelta) < settleEpsilon && abs(cc.radiusDelta) < settleEpsilon {
			cc.azimuthDelta, cc.elevationDelta, cc.radiusDelta = 0, 0, 0
		}
	} else {
		cc.azimuthDelta, cc.elevationDelta, cc.radiusDelta = 0, 0, 0
	}
	if !cc.dragging && dt > 0 {
		dAzim += cc.autoRotateSpeed * dt
	}

	prev := cc.position
	cc.azimuth += dAzim
	cc.elevation = common.Clamp(cc.elevation+dElev, cc.minElevation, cc.maxElevation)
	cc.radius = common.Clamp(cc.radius+dRad, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
	return !cc.position.ApproxEqual(prev)
}

// --- orbitCameraController implementation ---

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuthDelta -= cc.orbitSpeed
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuthDelta += cc.orbitSpeed
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevationDelta += cc.orbitSpeed
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevationDelta -= cc.orbitSpeed
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = common.Clamp(radius, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) MinRadius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minRadius
}

func (cc *cameraControllerImpl) MaxRadius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxRadius
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) SetAzimuth(azimuth float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth = azimuth
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *cameraControllerImpl) SetElevation(elevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation = common.Clamp(elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) MinElevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minElevation
}

func (cc *cameraControllerImpl) MaxElevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxElevation
}

func (cc *cameraControllerImpl) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}

func (cc *cameraControllerImpl) RotateSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.rotateSpeed
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

func (cc *cameraControllerImpl) DampingFactor() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.dampingFactor
}

// --- pointerCameraController implementation ---

func (cc *cameraControllerImpl) BindSurface(surface Surface) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.surface = surface
	cc.dragging = false
}

func (cc *cameraControllerImpl) PointerDown(x, y float32) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.surface != nil && !cc.surface.BoundingClientRect().Contains(x, y) {
		return false
	}
	cc.dragging = true
	cc.lastX, cc.lastY = x, y
	return true
}

func (cc *cameraControllerImpl) PointerMove(x, y float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.dragging {
		return
	}
	step := cc.radiansPerPixel()
	cc.azimuthDelta -= (x - cc.lastX) * step
	cc.elevationDelta += (y - cc.lastY) * step
	cc.lastX, cc.lastY = x, y
}

func (cc *cameraControllerImpl) PointerUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dragging = false
}

func (cc *cameraControllerImpl) Dragging() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.dragging
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
